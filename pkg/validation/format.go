// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/sigmaun/prepo/pkg/constants"
)

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("expected output format of %s or %s, got %s",
			constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}

// NormalizeOutputFormat canonicalizes an output format value from a flag or
// config file: surrounding whitespace and letter case are ignored, and an
// empty value selects the pretty format. Unsupported values fail with the
// ValidateOutputFormat error.
func NormalizeOutputFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if normalized == "" {
		normalized = constants.OutputFormatPretty
	}
	if err := ValidateOutputFormat(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
