// Package config defines the data structures related to configuration and
// includes functions for loading the run configuration and the item
// calibration table.
package config

import (
	"fmt"

	"github.com/sigmaun/prepo/pkg/constants"
	"github.com/sigmaun/prepo/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all run configuration for prepo.
type Configuration struct {
	CalibrationFile string           `yaml:"calibrationFile,omitempty"`
	Simulation      SimulationConfig `yaml:"simulation,omitempty"`
	Logging         LoggingConfig    `yaml:"logging,omitempty"`
	Output          OutputConfig     `yaml:"output,omitempty"`
}

// SimulationConfig holds the sweep and sampling settings shared by every
// item in a run.
type SimulationConfig struct {
	MinLevel  int   `yaml:"minLevel"`            // lowest prepositioning level, currency units
	MaxLevel  int   `yaml:"maxLevel"`            // highest prepositioning level, inclusive
	LevelStep int   `yaml:"levelStep,omitempty"` // sweep increment
	Samples   int   `yaml:"samples,omitempty"`   // Monte Carlo trials per level
	Reseed    *bool `yaml:"reseed,omitempty"`    // reset the random source before each batch
}

// ReseedEnabled reports the reseed policy; reseeding defaults to on so that
// every level's batch draws the same sample stream.
func (s SimulationConfig) ReseedEnabled() bool {
	if s.Reseed == nil {
		return true
	}
	return *s.Reseed
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
	File   string `yaml:"file,omitempty"`   // optional file output; default stdout
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.Normalize()

	return &configuration, nil
}

// Normalize fills in defaults for settings the config file left unset.
func (conf *Configuration) Normalize() {
	if conf.CalibrationFile == "" {
		conf.CalibrationFile = constants.DefaultCalibrationFile
	}
	conf.Simulation.Normalize()
}

// Normalize fills in sweep defaults; explicit invalid values are left in
// place for Validate to reject.
func (s *SimulationConfig) Normalize() {
	if s.LevelStep == 0 {
		s.LevelStep = constants.DefaultLevelStep
	}
	if s.Samples == 0 {
		s.Samples = constants.DefaultSamples
	}
}

// Validate rejects sweep settings the estimator cannot run with.
func (s SimulationConfig) Validate() error {
	if s.MinLevel > s.MaxLevel {
		return fmt.Errorf("sweep minimum level %d exceeds maximum level %d", s.MinLevel, s.MaxLevel)
	}
	if s.LevelStep < 1 {
		return fmt.Errorf("sweep level step must be at least 1, got %d", s.LevelStep)
	}
	if s.Samples < 1 {
		return fmt.Errorf("sample size must be at least 1, got %d", s.Samples)
	}
	return nil
}

// ValidateConfiguration performs general validation of the run configuration
// against the loaded calibration and returns warnings.
func (conf *Configuration) ValidateConfiguration(calib *Calibration) []string {
	validator := validation.CalibrationValidator{
		Sweep: validation.SweepInfo{
			MinLevel:  conf.Simulation.MinLevel,
			MaxLevel:  conf.Simulation.MaxLevel,
			LevelStep: conf.Simulation.LevelStep,
		},
	}

	if calib != nil {
		validator.MeanInterval = calib.MeanInterval
		for _, item := range calib.Items {
			validator.Items = append(validator.Items, validation.ItemInfo{
				Name:           item.Name,
				MeanInterval:   item.MeanInterval,
				SupplyZeroProb: item.SupplyZeroProb,
				DemandStdev:    item.DemandStdev,
				SupplyStdev:    item.SupplyStdev,
				Correlation:    item.Correlation,
			})
		}
	}

	return validator.ValidateAll()
}
