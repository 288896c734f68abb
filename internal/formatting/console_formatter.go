package formatting

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"boardcheck/internal/trello"
)

// ConsoleFormatter prints plain lines.
type ConsoleFormatter struct {
	options Options
}

func (f *ConsoleFormatter) FormatBoard(w io.Writer, b *trello.Board) error {
	if f.options.Quiet {
		_, err := fmt.Fprintln(w, b.ID)
		return err
	}
	_, err := fmt.Fprintf(w, "Board %s\n  name: %s\n  url:  %s\n", b.ID, b.Name, b.URL)
	return err
}

func (f *ConsoleFormatter) FormatStatus(w io.Writer, id string, status int) error {
	if f.options.Quiet {
		_, err := fmt.Fprintln(w, status)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %d %s\n", id, status, http.StatusText(status))
	return err
}

func (f *ConsoleFormatter) FormatMessage(w io.Writer, msg string) error {
	_, err := fmt.Fprintln(w, msg)
	return err
}

func (f *ConsoleFormatter) FormatData(w io.Writer, data interface{}) error {
	m, ok := data.(map[string]interface{})
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s: %v\n", k, m[k]); err != nil {
			return err
		}
	}
	return nil
}
