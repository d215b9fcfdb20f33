// Package constants provides shared constants for the prepo application.
package constants

// Simulation constants
const (
	// SampleSeed is the fixed seed applied to the random source before each
	// (item, level) sampling batch when reseeding is enabled. Reusing the
	// same stream across levels reduces cross-level sampling noise.
	SampleSeed uint64 = 100

	// DefaultSamples is the default number of Monte Carlo trials per
	// (item, level) batch.
	DefaultSamples = 1000

	// DefaultLevelStep is the default sweep increment between
	// prepositioning levels.
	DefaultLevelStep = 1

	// DefaultMaxLevel is the default upper end of the sweep for server runs
	// that do not set one.
	DefaultMaxLevel = 200
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultCalibrationFile is the default calibration table file name
	DefaultCalibrationFile = "calibration.csv"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address for the web UI
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum upload size for
	// calibration tables (256 KB)
	DefaultMaxUploadSizeBytes int64 = 256 * 1024
)

// Validation constants
const (
	// ProbabilityTolerance is the tolerance for comparing estimated
	// probabilities and savings rates
	ProbabilityTolerance = 1e-9

	// SpendTolerance is the tolerance for currency spend comparisons (1 cent)
	SpendTolerance = 0.01
)
