package main

import (
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/sigmaun/prepo/internal/aggregate"
	"github.com/sigmaun/prepo/internal/config"
	"github.com/sigmaun/prepo/internal/curve"
	"github.com/sigmaun/prepo/pkg/constants"
	"github.com/sigmaun/prepo/pkg/output"
	"github.com/sigmaun/prepo/pkg/validation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	// Determine log level (CLI override takes precedence)
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info" // Default to info level
	}

	// Parse log level
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	// Determine output format
	format := loggingConfig.Format
	if format == "" {
		format = "json" // Default to JSON for production
	}

	// Configure encoder
	var config zap.Config
	switch format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		config = zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	// Configure output file if specified
	if loggingConfig.OutputFile != "" {
		// Ensure the directory exists
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}

		// Test if we can create/write to the file
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		config.OutputPaths = []string{loggingConfig.OutputFile}
		config.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return config.Build()
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	calibrationLocation := flag.String("calibration", "", "path to the item calibration table (overrides config)")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	// Initialize logging based on config and CLI override
	logger, err := initializeLogger(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	outputFormat, err = validation.NormalizeOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	// Load the item calibration table (CLI override takes precedence)
	calibrationPath := conf.CalibrationFile
	if *calibrationLocation != "" {
		calibrationPath = *calibrationLocation
	}
	calib, err := config.LoadCalibration(calibrationPath)
	if err != nil {
		logger.Fatal("failed to load calibration table",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration(calib)
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	err = conf.Simulation.Validate()
	if err != nil {
		logger.Fatal("invalid sweep settings",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Run the Monte Carlo sweep to get the savings curves.
	src := rand.NewPCG(constants.SampleSeed, 0)
	results, err := curve.GetCurves(logger, src, *conf, *calib)
	if err != nil {
		logger.Fatal("failed to compute savings curves",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(results)
		if schedule, ok := aggregate.Combine(logger, results); ok {
			output.PrettySchedule(schedule)
		} else {
			logger.Warn("savings curves share no common range; skipping the aggregated schedule",
				zap.String("op", "main"),
			)
		}
	case constants.OutputFormatCSV:
		if conf.Output.File != "" {
			if err := output.WriteCsvFile(conf.Output.File, results); err != nil {
				logger.Fatal("failed to write output file",
					zap.String("op", "main"),
					zap.Error(err),
				)
			}
			logger.Info("wrote savings curves",
				zap.String("op", "main"),
				zap.String("file", conf.Output.File),
			)
		} else {
			output.CsvFormat(results)
		}
	}

}
