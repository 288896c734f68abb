package formatting

import (
	"fmt"
	"io"

	"boardcheck/internal/trello"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter writes YAML documents.
type YAMLFormatter struct {
	options Options
}

func (f *YAMLFormatter) FormatBoard(w io.Writer, b *trello.Board) error {
	return f.FormatData(w, b.AsMap())
}

func (f *YAMLFormatter) FormatStatus(w io.Writer, id string, status int) error {
	return f.FormatData(w, statusData(id, status))
}

func (f *YAMLFormatter) FormatMessage(w io.Writer, msg string) error {
	return f.FormatData(w, map[string]interface{}{"message": msg})
}

func (f *YAMLFormatter) FormatData(w io.Writer, data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	_, err = w.Write(out)
	return err
}
