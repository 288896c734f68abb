package formatting

import (
	"fmt"
	"io"
	"net/http"
	"sort"

	"boardcheck/internal/trello"
	bcstrings "boardcheck/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// TableFormatter renders rounded go-pretty tables.
type TableFormatter struct {
	options Options
}

// NewTable creates a table with the standard styling writing to w.
func NewTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// Header colours column titles.
func Header(titles ...string) table.Row {
	row := make(table.Row, len(titles))
	for i, title := range titles {
		row[i] = text.FgHiCyan.Sprint(title)
	}
	return row
}

func (f *TableFormatter) FormatBoard(w io.Writer, b *trello.Board) error {
	t := NewTable(w)
	t.AppendHeader(Header("ID", "NAME", "URL"))
	t.AppendRow(table.Row{b.ID, text.FgHiWhite.Sprint(b.Name), b.URL})
	t.Render()
	return nil
}

func (f *TableFormatter) FormatStatus(w io.Writer, id string, status int) error {
	colour := text.FgGreen
	if status != http.StatusOK {
		colour = text.FgYellow
	}
	t := NewTable(w)
	t.AppendHeader(Header("ID", "STATUS", "MEANING"))
	t.AppendRow(table.Row{id, colour.Sprint(status), http.StatusText(status)})
	t.Render()
	return nil
}

func (f *TableFormatter) FormatMessage(w io.Writer, msg string) error {
	_, err := fmt.Fprintf(w, "%s %s\n", text.FgGreen.Sprint("✅"), msg)
	return err
}

func (f *TableFormatter) FormatData(w io.Writer, data interface{}) error {
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

	t := NewTable(w)
	t.AppendHeader(Header("KEY", "VALUE"))
	for _, key := range keys {
		valueStr := bcstrings.TruncateLine(fmt.Sprintf("%v", m[key]), bcstrings.DefaultValueMaxLen)
		t.AppendRow(table.Row{text.FgHiCyan.Sprint(key), valueStr})
	}
	t.Render()
	return nil
}
