// Package server exposes the savings-curve pipeline over HTTP: a small web
// UI plus a JSON API that accepts calibration table uploads and returns the
// per-item curves and the aggregated prepositioning schedule.
package server

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sigmaun/prepo/internal/aggregate"
	"github.com/sigmaun/prepo/internal/config"
	"github.com/sigmaun/prepo/internal/curve"
	"github.com/sigmaun/prepo/pkg/constants"
	"github.com/sigmaun/prepo/pkg/output"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	defaults      config.SimulationConfig
	version       string
}

// NewHandler constructs the HTTP handler that serves the web UI and the
// savings-curve API. A nil cfg uses built-in defaults.
func NewHandler(logger *zap.Logger, cfg *Config, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg, _ = LoadConfig("")
	}

	maxUploadSize := cfg.UploadSizeBytes()
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	defaults := cfg.Simulation
	defaults.Normalize()

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{
		logger:        logger,
		maxUploadSize: maxUploadSize,
		defaults:      defaults,
		version:       trimmedVersion,
	}

	mux := http.NewServeMux()

	// Curve API endpoint (calibration table upload)
	mux.HandleFunc("/api/curves", h.handleCurves)

	// Version endpoint for UI metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	fileServer := http.FileServer(http.FS(sub))
	mux.Handle("/", fileServer)

	return mux
}

type curvesResponse struct {
	Items       []string      `json:"items"`
	Rows        []curveRow    `json:"rows"`
	CSV         string        `json:"csv"`
	Schedule    []scheduleRow `json:"schedule,omitempty"`
	ScheduleCSV string        `json:"scheduleCsv,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
	Duration    string        `json:"duration"`
}

type curveRow struct {
	Item          string  `json:"item"`
	Level         int     `json:"level"`
	CostPremium   float64 `json:"costPremium"`
	DemandTail    float64 `json:"demandTail"`
	ShortfallTail float64 `json:"shortfallTail"`
	CrossTerm     float64 `json:"crossTerm"`
	GrossSavings  float64 `json:"grossSavings"`
	HoldingCost   float64 `json:"holdingCost"`
	NetSavings    float64 `json:"netSavings"`
}

type scheduleRow struct {
	NetSavings float64 `json:"netSavings"`
	TotalSpend float64 `json:"totalSpend"`
}

func (h *handler) handleCurves(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize))
			return
		}
		h.respondError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "missing calibration file")
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", "server.handleCurves"),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to read calibration: %v", err))
		return
	}

	sim, err := h.sweepFromRequest(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.runCurves(w, buf.Bytes(), sim, start, "server.handleCurves")
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// sweepFromRequest merges form-field overrides over the server's sweep
// defaults.
func (h *handler) sweepFromRequest(r *http.Request) (config.SimulationConfig, error) {
	sim := h.defaults

	fields := []struct {
		name string
		dst  *int
	}{
		{"minLevel", &sim.MinLevel},
		{"maxLevel", &sim.MaxLevel},
		{"levelStep", &sim.LevelStep},
		{"samples", &sim.Samples},
	}
	for _, field := range fields {
		raw := strings.TrimSpace(r.FormValue(field.name))
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil {
			return sim, fmt.Errorf("invalid %s value %q", field.name, raw)
		}
		*field.dst = value
	}

	if raw := strings.TrimSpace(r.FormValue("reseed")); raw != "" {
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return sim, fmt.Errorf("invalid reseed value %q", raw)
		}
		sim.Reseed = &value
	}

	sim.Normalize()
	if err := sim.Validate(); err != nil {
		return sim, err
	}
	return sim, nil
}

func (h *handler) runCurves(w http.ResponseWriter, calibBytes []byte, sim config.SimulationConfig, start time.Time, op string) {
	calib, err := config.LoadCalibrationFromReader(bytes.NewReader(calibBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	conf := config.Configuration{Simulation: sim}
	warnings := conf.ValidateConfiguration(calib)

	// A fresh fixed-seed source per request keeps responses reproducible.
	src := rand.NewPCG(constants.SampleSeed, 0)
	results, err := curve.GetCurves(h.logger, src, conf, *calib)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to compute savings curves: %v", err), op)
		return
	}

	response := curvesResponse{
		Items:    extractItemNames(results),
		Rows:     buildRows(results),
		CSV:      output.CsvString(results),
		Warnings: warnings,
	}

	if schedule, ok := aggregate.Combine(h.logger, results); ok {
		response.Schedule = buildSchedule(schedule)
		response.ScheduleCSV = output.ScheduleCsvString(schedule)
	} else {
		response.Warnings = append(response.Warnings,
			"savings curves share no common range; widen the level sweep")
	}

	elapsed := time.Since(start)
	response.Duration = elapsed.String()

	h.logger.Info("savings curves computed",
		zap.String("op", op),
		zap.Int("items", len(response.Items)),
		zap.Int("rows", len(response.Rows)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondErrorWithOp(w, status, msg, "server.handleCurves")
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("curve request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func extractItemNames(results []curve.Curve) []string {
	names := make([]string, 0, len(results))
	for _, result := range results {
		names = append(names, result.Item)
	}
	return names
}

func buildRows(results []curve.Curve) []curveRow {
	var rows []curveRow
	for _, result := range results {
		for _, point := range result.Points {
			rows = append(rows, curveRow{
				Item:          point.Item,
				Level:         point.Level,
				CostPremium:   point.CostPremium,
				DemandTail:    point.DemandTail,
				ShortfallTail: point.ShortfallTail,
				CrossTerm:     point.CrossTerm,
				GrossSavings:  point.GrossSavings,
				HoldingCost:   point.HoldingCost,
				NetSavings:    point.NetSavings,
			})
		}
	}
	return rows
}

func buildSchedule(schedule aggregate.Schedule) []scheduleRow {
	rows := make([]scheduleRow, 0, len(schedule))
	for _, level := range schedule {
		rows = append(rows, scheduleRow{
			NetSavings: level.NetSavings,
			TotalSpend: level.TotalSpend,
		})
	}
	return rows
}
