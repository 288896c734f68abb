// Package template renders scenario step arguments.
//
// Arguments are Go text/templates with the sprig function library plus a
// few suite helpers. Strings without template markers pass through
// untouched, and a string that is exactly one reference such as
// "{{ .created.id }}" keeps the referenced value's type.
package template

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	texttemplate "text/template"
	"time"

	"boardcheck/internal/trello"

	"github.com/Masterminds/sprig/v3"
)

// Engine resolves templates in argument values.
type Engine struct {
	// Pattern to match a whole-string reference like {{ .name.field }}
	singleRef *regexp.Regexp
	refs      *regexp.Regexp
	now       func() time.Time
}

// New creates a template engine using the wall clock.
func New() *Engine {
	return NewWithClock(time.Now)
}

// NewWithClock creates a template engine with a fixed time source.
func NewWithClock(now func() time.Time) *Engine {
	return &Engine{
		singleRef: regexp.MustCompile(`^\{\{\s*\.([a-zA-Z_][a-zA-Z0-9_]*(?:\.[a-zA-Z_][a-zA-Z0-9_]*)*)\s*\}\}$`),
		refs:      regexp.MustCompile(`\{\{-?\s*\.([a-zA-Z_][a-zA-Z0-9_]*)`),
		now:       now,
	}
}

func (e *Engine) funcs() texttemplate.FuncMap {
	fm := sprig.TxtFuncMap()
	fm["boardName"] = func(prefix ...string) string {
		p := trello.DefaultBoardPrefix
		if len(prefix) > 0 && prefix[0] != "" {
			p = prefix[0]
		}
		return trello.GenerateBoardName(p, e.now())
	}
	fm["millis"] = func() int64 { return e.now().UnixMilli() }
	return fm
}

// Replace resolves all templates in value against vars.
func (e *Engine) Replace(value interface{}, vars map[string]interface{}) (interface{}, error) {
	switch v := value.(type) {
	case string:
		return e.replaceString(v, vars)
	case map[string]interface{}:
		return e.replaceMap(v, vars)
	case []interface{}:
		return e.replaceSlice(v, vars)
	default:
		return value, nil
	}
}

func (e *Engine) replaceString(s string, vars map[string]interface{}) (interface{}, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	if m := e.singleRef.FindStringSubmatch(strings.TrimSpace(s)); m != nil {
		if v, ok := lookupPath(vars, strings.Split(m[1], ".")); ok {
			return v, nil
		}
	}

	tmpl, err := texttemplate.New("arg").Funcs(e.funcs()).Option("missingkey=error").Parse(s)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", s, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("render template %q: %w", s, err)
	}
	return buf.String(), nil
}

func (e *Engine) replaceMap(m map[string]interface{}, vars map[string]interface{}) (map[string]interface{}, error) {
	result := make(map[string]interface{}, len(m))
	for key, value := range m {
		replaced, err := e.Replace(value, vars)
		if err != nil {
			return nil, fmt.Errorf("error in key '%s': %w", key, err)
		}
		result[key] = replaced
	}
	return result, nil
}

func (e *Engine) replaceSlice(s []interface{}, vars map[string]interface{}) ([]interface{}, error) {
	result := make([]interface{}, len(s))
	for i, value := range s {
		replaced, err := e.Replace(value, vars)
		if err != nil {
			return nil, fmt.Errorf("error at index %d: %w", i, err)
		}
		result[i] = replaced
	}
	return result, nil
}

// ExtractVariables lists the top-level variable names referenced in value.
func (e *Engine) ExtractVariables(value interface{}) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(v interface{})
	walk = func(v interface{}) {
		switch t := v.(type) {
		case string:
			for _, m := range e.refs.FindAllStringSubmatch(t, -1) {
				if !seen[m[1]] {
					seen[m[1]] = true
					out = append(out, m[1])
				}
			}
		case map[string]interface{}:
			for _, val := range t {
				walk(val)
			}
		case []interface{}:
			for _, val := range t {
				walk(val)
			}
		}
	}
	walk(value)
	return out
}

func lookupPath(vars map[string]interface{}, path []string) (interface{}, bool) {
	var cur interface{} = vars
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok {
			return nil, false
		}
	}
	return cur, true
}
