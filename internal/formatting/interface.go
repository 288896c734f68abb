// Package formatting renders command results for the terminal or for
// machines (JSON, YAML).
package formatting

import (
	"fmt"
	"io"

	"boardcheck/internal/trello"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
	FormatTable   OutputFormat = "table"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatConsole, FormatJSON, FormatYAML, FormatTable:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown output format %q (valid: console, json, yaml, table)", s)
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool // Suppress decorative elements
}

// Formatter renders board client results.
type Formatter interface {
	FormatBoard(w io.Writer, b *trello.Board) error
	FormatStatus(w io.Writer, id string, status int) error
	FormatMessage(w io.Writer, msg string) error
	// FormatData renders arbitrary structured data.
	FormatData(w io.Writer, data interface{}) error
}

// New returns the formatter for options.Format. Unknown formats fall back
// to the table formatter.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return &JSONFormatter{options: options}
	case FormatYAML:
		return &YAMLFormatter{options: options}
	case FormatConsole:
		return &ConsoleFormatter{options: options}
	default:
		return &TableFormatter{options: options}
	}
}

func statusData(id string, status int) map[string]interface{} {
	return map[string]interface{}{"id": id, "status": status}
}
