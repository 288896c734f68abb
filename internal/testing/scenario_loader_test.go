package testing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLoader() TestScenarioLoader {
	return NewTestScenarioLoaderWithLogger(false, NewSilentLogger(false, false))
}

func writeScenario(t *testing.T, dir, file, content string) string {
	t.Helper()
	p := filepath.Join(dir, file)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadScenarios_Embedded(t *testing.T) {
	scenarios, err := newLoader().LoadScenarios("")
	require.NoError(t, err)
	require.Len(t, scenarios, 11)

	byCategory := map[TestCategory]int{}
	for i, s := range scenarios {
		byCategory[s.Category]++
		if i > 0 {
			assert.Less(t, scenarios[i-1].Name, s.Name, "scenarios are sorted by name")
		}
	}
	assert.Equal(t, 4, byCategory[CategoryAPI])
	assert.Equal(t, 2, byCategory[CategoryWeb])
	assert.Equal(t, 2, byCategory[CategoryMobile])
	assert.Equal(t, 3, byCategory[CategoryIntegration])

	assert.Contains(t, ScenarioTags(scenarios), "smoke")
}

func TestLoadScenarios_EmbeddedArgsAreValid(t *testing.T) {
	scenarios, err := newLoader().LoadScenarios("")
	require.NoError(t, err)

	results := ValidateScenarioArgs(scenarios)
	assert.Equal(t, results.TotalScenarios, results.ValidScenarios, FormatValidationResults(results, true))
	assert.Zero(t, results.TotalErrors)
}

func TestFilterScenarios(t *testing.T) {
	loader := newLoader()
	scenarios, err := loader.LoadScenarios("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		config TestConfiguration
		want   []string
	}{
		{
			name:   "by category",
			config: TestConfiguration{Category: CategoryWeb},
			want:   []string{"web-board-visible", "web-invalid-login"},
		},
		{
			name:   "by tag",
			config: TestConfiguration{Tag: "smoke"},
			want:   []string{"mobile-smoke", "web-board-visible"},
		},
		{
			name:   "by name",
			config: TestConfiguration{Scenario: "api-board-rename"},
			want:   []string{"api-board-rename"},
		},
		{
			name:   "category and tag",
			config: TestConfiguration{Category: CategoryAPI, Tag: "negative"},
			want:   []string{"api-board-invalid-id", "api-board-not-found"},
		},
		{
			name:   "nothing matches",
			config: TestConfiguration{Category: CategoryMobile, Tag: "web"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var names []string
			for _, s := range loader.FilterScenarios(scenarios, tt.config) {
				names = append(names, s.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

const validScenario = `name: custom
category: api
steps:
  - id: status
    action: board.status
    args:
      id: abc
    expected:
      success: true
    retry:
      count: 2
      delay: 1s
`

func TestLoadScenarios_DirectoryAndFile(t *testing.T) {
	dir := t.TempDir()
	file := writeScenario(t, dir, "custom.yaml", validScenario)
	writeScenario(t, dir, "nested/other.yml", `name: other
category: web
channels: [web]
steps:
  - id: open
    action: web.open_home
`)
	writeScenario(t, dir, "README.md", "not a scenario")

	loader := newLoader()

	scenarios, err := loader.LoadScenarios(dir)
	require.NoError(t, err)
	require.Len(t, scenarios, 2)
	assert.Equal(t, "custom", scenarios[0].Name)
	assert.Equal(t, "other", scenarios[1].Name)
	require.NotNil(t, scenarios[0].Steps[0].Retry)
	assert.Equal(t, 2, scenarios[0].Steps[0].Retry.Count)
	assert.Equal(t, "1s", scenarios[0].Steps[0].Retry.Delay.String())

	single, err := loader.LoadScenarios(file)
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "custom", single[0].Name)
}

func TestLoadScenarios_MissingPath(t *testing.T) {
	_, err := newLoader().LoadScenarios(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadScenarios_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errText string
	}{
		{
			name:    "missing name",
			content: "category: api\nsteps:\n  - id: a\n    action: board.get\n",
			errText: "name is required",
		},
		{
			name:    "bad category",
			content: "name: x\ncategory: desktop\nsteps:\n  - id: a\n    action: board.get\n",
			errText: "unknown category",
		},
		{
			name:    "no steps",
			content: "name: x\ncategory: api\n",
			errText: "at least one step",
		},
		{
			name:    "unknown action",
			content: "name: x\ncategory: api\nsteps:\n  - id: a\n    action: board.archive\n",
			errText: "unknown action",
		},
		{
			name:    "web action without channel",
			content: "name: x\ncategory: web\nsteps:\n  - id: a\n    action: web.login\n",
			errText: "needs the web channel",
		},
		{
			name:    "flow without channels",
			content: "name: x\ncategory: integration\nsteps:\n  - id: a\n    action: flow.create_and_observe\n",
			errText: "at least one channel",
		},
		{
			name:    "unknown channel",
			content: "name: x\ncategory: web\nchannels: [desktop]\nsteps:\n  - id: a\n    action: board.get\n",
			errText: "unknown channel",
		},
		{
			name:    "negative retry",
			content: "name: x\ncategory: api\nsteps:\n  - id: a\n    action: board.get\n    retry:\n      count: -1\n",
			errText: "retry count",
		},
		{
			name:    "cleanup step without id",
			content: "name: x\ncategory: api\nsteps:\n  - id: a\n    action: board.get\ncleanup:\n  - action: board.delete\n",
			errText: "step id is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := writeScenario(t, t.TempDir(), "bad.yaml", tt.content)
			_, err := newLoader().LoadScenarios(p)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestLoadScenarios_DuplicateNames(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", validScenario)
	writeScenario(t, dir, "b.yaml", validScenario)

	_, err := newLoader().LoadScenarios(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `duplicate scenario name "custom"`)
}

func TestLoadAndFilterScenarios(t *testing.T) {
	scenarios, err := LoadAndFilterScenarios("", TestConfiguration{Category: CategoryIntegration}, NewSilentLogger(false, false))
	require.NoError(t, err)
	assert.Len(t, scenarios, 3)

	assert.Empty(t, LoadScenariosForCompletion(filepath.Join(t.TempDir(), "absent")))
	assert.Len(t, LoadScenariosForCompletion(""), 11)
}

func TestValidateScenarioArgs_ReportsProblems(t *testing.T) {
	scenarios := []TestScenario{{
		Name:     "broken",
		Category: CategoryAPI,
		Steps: []TestStep{
			{ID: "rename", Action: ActionBoardUpdateName, Args: map[string]interface{}{"id": "1", "title": "x"}},
			{ID: "mystery", Action: "board.archive"},
		},
	}}

	results := ValidateScenarioArgs(scenarios)
	assert.Equal(t, 0, results.ValidScenarios)
	assert.Equal(t, 3, results.TotalErrors)
	assert.Equal(t, 1, results.ValidationSummary["missing_argument"])
	assert.Equal(t, 1, results.ValidationSummary["unexpected_argument"])
	assert.Equal(t, 1, results.ValidationSummary["unknown_action"])

	out := FormatValidationResults(results, false)
	assert.Contains(t, out, "❌ broken")
	assert.Contains(t, out, "argument 'name' is required by 'board.update_name'")
	assert.Contains(t, out, "Known actions:")
}

func TestValidateScenarioArgs_UndefinedVariable(t *testing.T) {
	scenarios := []TestScenario{{
		Name:     "refs",
		Category: CategoryAPI,
		Steps: []TestStep{
			{ID: "get-early", Action: ActionBoardGet, Args: map[string]interface{}{"id": "{{ .created.id }}"}},
			{ID: "create", Action: ActionBoardCreate, Args: map[string]interface{}{"name": "{{ boardName }}"}, Store: "created"},
			{ID: "get", Action: ActionBoardGet, Args: map[string]interface{}{"id": "{{ .created.id }}"}},
		},
		Cleanup: []TestStep{
			{ID: "delete", Action: ActionBoardDelete, Args: map[string]interface{}{"id": "{{ .created.id }}"}},
		},
	}}

	results := ValidateScenarioArgs(scenarios)
	assert.Equal(t, 1, results.TotalErrors)
	assert.Equal(t, 1, results.ValidationSummary["undefined_variable"])
	require.Len(t, results.ScenarioResults[0].Errors, 1)
	assert.Contains(t, results.ScenarioResults[0].Errors[0].Message, "Step get-early")
}
