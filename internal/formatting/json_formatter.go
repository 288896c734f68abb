package formatting

import (
	"fmt"
	"io"

	"boardcheck/internal/trello"
)

// JSONFormatter writes indented JSON documents.
type JSONFormatter struct {
	options Options
}

func (f *JSONFormatter) FormatBoard(w io.Writer, b *trello.Board) error {
	return f.FormatData(w, b)
}

func (f *JSONFormatter) FormatStatus(w io.Writer, id string, status int) error {
	return f.FormatData(w, statusData(id, status))
}

func (f *JSONFormatter) FormatMessage(w io.Writer, msg string) error {
	return f.FormatData(w, map[string]interface{}{"message": msg})
}

func (f *JSONFormatter) FormatData(w io.Writer, data interface{}) error {
	_, err := fmt.Fprintln(w, PrettyJSON(data))
	return err
}
