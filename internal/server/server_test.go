package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// sweepFields keeps test uploads fast while still sweeping several levels.
var sweepFields = map[string]string{
	"minLevel":  "0",
	"maxLevel":  "200",
	"levelStep": "50",
	"samples":   "2000",
}

func TestHandleCurvesSuccess(t *testing.T) {
	handler := newTestHandler(t)

	rr := performUpload(t, handler, sweepFields, readCalibrationFixture(t))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp curvesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	expectedItems := []string{"blankets", "water"}
	if len(resp.Items) != len(expectedItems) {
		t.Fatalf("expected items %v, got %v", expectedItems, resp.Items)
	}
	for i, name := range expectedItems {
		if resp.Items[i] != name {
			t.Fatalf("expected item %d to be %s, got %s", i, name, resp.Items[i])
		}
	}

	// 2 items x 5 levels (0 through 200 by 50).
	if len(resp.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(resp.Rows))
	}
	if resp.Rows[0].Item != "blankets" || resp.Rows[0].Level != 0 {
		t.Fatalf("expected first row blankets at level 0, got %s at %d", resp.Rows[0].Item, resp.Rows[0].Level)
	}
	last := resp.Rows[len(resp.Rows)-1]
	if last.Item != "water" || last.Level != 200 {
		t.Fatalf("expected last row water at level 200, got %s at %d", last.Item, last.Level)
	}
	for _, row := range resp.Rows {
		if row.Item == "blankets" && row.HoldingCost != 0.1 {
			t.Fatalf("expected blankets holding cost 0.1, got %v", row.HoldingCost)
		}
		if row.DemandTail < 0 || row.DemandTail > 1 || row.ShortfallTail < 0 || row.ShortfallTail > 1 {
			t.Fatalf("expected tail probabilities within [0, 1], got %+v", row)
		}
	}

	if !strings.HasPrefix(resp.CSV, "item,x,") {
		t.Fatalf("expected CSV payload with header, got %q", resp.CSV)
	}
	if len(resp.Schedule) == 0 {
		t.Fatalf("expected aggregated schedule for overlapping curves, warnings: %v", resp.Warnings)
	}
	for i := 1; i < len(resp.Schedule); i++ {
		if resp.Schedule[i].NetSavings <= resp.Schedule[i-1].NetSavings {
			t.Fatalf("expected schedule sorted by rising net savings, got %v then %v",
				resp.Schedule[i-1].NetSavings, resp.Schedule[i].NetSavings)
		}
	}
	if !strings.HasPrefix(resp.ScheduleCSV, "m,total_x") {
		t.Fatalf("expected schedule CSV payload, got %q", resp.ScheduleCSV)
	}
	if len(resp.Warnings) != 0 {
		t.Fatalf("expected no warnings for clean calibration, got %v", resp.Warnings)
	}
	if resp.Duration == "" {
		t.Fatal("expected duration in response")
	}
}

func TestHandleCurvesDeterministic(t *testing.T) {
	handler := newTestHandler(t)
	fields := map[string]string{
		"minLevel":  "0",
		"maxLevel":  "100",
		"levelStep": "100",
		"samples":   "500",
	}
	content := readCalibrationFixture(t)

	first := performUpload(t, handler, fields, content)
	second := performUpload(t, handler, fields, content)

	if first.Code != http.StatusOK || second.Code != http.StatusOK {
		t.Fatalf("expected both uploads to succeed, got %d and %d", first.Code, second.Code)
	}

	var a, b curvesResponse
	if err := json.Unmarshal(first.Body.Bytes(), &a); err != nil {
		t.Fatalf("failed to decode first response: %v", err)
	}
	if err := json.Unmarshal(second.Body.Bytes(), &b); err != nil {
		t.Fatalf("failed to decode second response: %v", err)
	}

	if a.CSV != b.CSV {
		t.Fatal("expected identical uploads to produce identical CSV payloads")
	}
	if a.ScheduleCSV != b.ScheduleCSV {
		t.Fatal("expected identical uploads to produce identical schedule payloads")
	}
}

func TestHandleCurvesMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/curves", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestHandleCurvesUploadTooLarge(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	cfg.SetUploadSizeBytes(64)
	handler := NewHandler(zap.NewNop(), cfg, "test")

	rr := performUpload(t, handler, nil, readCalibrationFixture(t))

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "upload exceeds limit") {
		t.Fatalf("expected upload limit error message, got %q", msg)
	}
}

func TestHandleCurvesMissingFile(t *testing.T) {
	handler := newTestHandler(t)

	rr := performUpload(t, handler, sweepFields, nil)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); msg != "missing calibration file" {
		t.Fatalf("expected missing file error, got %q", msg)
	}
}

func TestHandleCurvesMalformedCalibration(t *testing.T) {
	handler := newTestHandler(t)

	rr := performUpload(t, handler, sweepFields, []byte("item,nope\n"))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "calibration") {
		t.Fatalf("expected calibration parse error, got %q", msg)
	}
}

func TestHandleCurvesBadFormValue(t *testing.T) {
	handler := newTestHandler(t)

	rr := performUpload(t, handler, map[string]string{"samples": "abc"}, readCalibrationFixture(t))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "invalid samples value") {
		t.Fatalf("expected samples parse error, got %q", msg)
	}
}

func TestHandleCurvesBadReseedValue(t *testing.T) {
	handler := newTestHandler(t)

	rr := performUpload(t, handler, map[string]string{"reseed": "maybe"}, readCalibrationFixture(t))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "invalid reseed value") {
		t.Fatalf("expected reseed parse error, got %q", msg)
	}
}

func TestHandleCurvesInvalidSweep(t *testing.T) {
	handler := newTestHandler(t)

	rr := performUpload(t, handler, map[string]string{"minLevel": "300", "maxLevel": "200"}, readCalibrationFixture(t))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
	if msg := decodeError(t, rr); !strings.Contains(msg, "exceeds maximum level") {
		t.Fatalf("expected sweep bounds error, got %q", msg)
	}
}

func TestHandleCurvesDisjointRangesWarns(t *testing.T) {
	handler := newTestHandler(t)

	// alpha's net savings sit near 49 across the sweep while beta's sit at
	// -0.1, so the two curves cannot share a savings range.
	calibration := strings.Join([]string{
		"item,m_T,h,v,c,mean_a,stdev_a,min_a,max_a,m_D,a_D,stdev_D,Q0,m_Q,a_Q,stdev_Q,rho",
		"alpha,10,0.01,50,1,1,0.2,0.5,2,1000,0,50,0.3,80,0,15,0",
		"beta,10,0.01,5,1,1,0.2,0.5,2,5,0,1,0.3,3,0,1,0",
		"",
	}, "\n")
	fields := map[string]string{
		"minLevel":  "100",
		"maxLevel":  "200",
		"levelStep": "50",
		"samples":   "200",
	}

	rr := performUpload(t, handler, fields, []byte(calibration))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp curvesResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if len(resp.Schedule) != 0 {
		t.Fatalf("expected no schedule for disjoint curves, got %v", resp.Schedule)
	}
	found := false
	for _, warning := range resp.Warnings {
		if strings.Contains(warning, "share no common range") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected disjoint-range warning, got %v", resp.Warnings)
	}
}

func TestHandleVersion(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	handler := NewHandler(zap.NewNop(), cfg, "1.2.3")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode version response: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", resp["version"])
	}
}

func TestHandleVersionMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}

func TestNewHandlerNilConfig(t *testing.T) {
	handler := NewHandler(nil, nil, "")

	req := httptest.NewRequest(http.MethodGet, "/api/version", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode version response: %v", err)
	}
	if resp["version"] != "dev" {
		t.Fatalf("expected fallback version dev, got %q", resp["version"])
	}
}

func TestStaticAssetsServed(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 for index, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Prepo") {
		t.Fatalf("expected HTML body to contain title, got %q", rr.Body.String())
	}
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	return NewHandler(zap.NewNop(), cfg, "test")
}

func readCalibrationFixture(t *testing.T) []byte {
	t.Helper()

	content, err := os.ReadFile(filepath.Join("..", "..", "test", "test_calibration.csv"))
	if err != nil {
		t.Fatalf("failed to read test calibration: %v", err)
	}
	return content
}

// performUpload posts a multipart form to /api/curves with the given form
// fields and, when content is non-nil, a calibration file part.
func performUpload(t *testing.T, handler http.Handler, fields map[string]string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("failed to write form field %s: %v", name, err)
		}
	}
	if content != nil {
		part, err := writer.CreateFormFile("file", "calibration.csv")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("failed to write form data: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/curves", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp["error"]
}
