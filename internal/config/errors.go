package config

import (
	"fmt"
	"strings"
)

// Error types reported by ConfigurationError.
const (
	ErrorTypeIO    = "io"
	ErrorTypeParse = "parse"
	ErrorTypeValue = "value"
)

// ConfigurationError is returned when the settings file cannot be used.
// It is fatal for a run: nothing can execute without a readable file.
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`
	ErrorType   string   `json:"errorType"`
	Key         string   `json:"key,omitempty"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions,omitempty"`
	Err         error    `json:"-"`
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	if ce.Key != "" {
		return fmt.Sprintf("[%s] %s (%s): %s", ce.ErrorType, ce.FilePath, ce.Key, ce.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

func (ce *ConfigurationError) Unwrap() error {
	return ce.Err
}

// DetailedError returns a multi-line message including suggestions.
func (ce *ConfigurationError) DetailedError() string {
	parts := []string{
		fmt.Sprintf("Configuration error in %s", ce.FilePath),
		fmt.Sprintf("  Type: %s", ce.ErrorType),
	}
	if ce.Key != "" {
		parts = append(parts, fmt.Sprintf("  Key: %s", ce.Key))
	}
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, s := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", s))
		}
	}
	return strings.Join(parts, "\n")
}

func newIOError(path string, err error) *ConfigurationError {
	return &ConfigurationError{
		FilePath:  path,
		ErrorType: ErrorTypeIO,
		Message:   fmt.Sprintf("cannot read settings file: %v", err),
		Suggestions: []string{
			"pass --config with the path to a settings file",
			"copy boardcheck.example.yaml to boardcheck.yaml and fill in credentials",
		},
		Err: err,
	}
}

func newParseError(path string, err error) *ConfigurationError {
	return &ConfigurationError{
		FilePath:  path,
		ErrorType: ErrorTypeParse,
		Message:   fmt.Sprintf("invalid YAML: %v", err),
		Err:       err,
	}
}
