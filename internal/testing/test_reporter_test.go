package testing

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

func sampleSuite() TestSuiteResult {
	return TestSuiteResult{
		RunID:           "run-1",
		TotalScenarios:  2,
		PassedScenarios: 1,
		FailedScenarios: 1,
		Duration:        3 * time.Second,
		ScenarioResults: []TestScenarioResult{
			{Scenario: TestScenario{Name: "ok"}, Result: ResultPassed},
			{Scenario: TestScenario{Name: "bad"}, Result: ResultFailed, Error: "step expectations not met", Screenshot: "screenshots/bad_1.png"},
		},
	}
}

func TestTestReporter_CompactOutput(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReporter(&buf, false, false, "", "")

	r.ReportStart(TestConfiguration{})
	r.ReportScenarioStart(TestScenario{Name: "api-board-rename"})
	r.ReportScenarioResult(TestScenarioResult{Scenario: TestScenario{Name: "api-board-rename"}, Result: ResultPassed, Duration: time.Second})

	out := buf.String()
	assert.Contains(t, out, "🧪 Starting boardcheck suite")
	assert.Contains(t, out, "🎯 api-board-rename... ✅ (1s)")
}

func TestTestReporter_ParallelBuffersScenarioLines(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReporter(&buf, false, false, "", "")
	r.SetParallelMode(true)

	r.ReportScenarioStart(TestScenario{Name: "a"})
	r.ReportScenarioStart(TestScenario{Name: "b"})
	assert.Empty(t, buf.String())

	r.ReportScenarioResult(TestScenarioResult{Scenario: TestScenario{Name: "b"}, Result: ResultFailed, Screenshot: "shots/b.png"})
	r.ReportScenarioResult(TestScenarioResult{Scenario: TestScenario{Name: "a"}, Result: ResultPassed})

	out := buf.String()
	assert.Contains(t, out, "🎯 b... ❌ (0s)\n   📸 shots/b.png\n🎯 a... ✅ (0s)\n")
}

func TestTestReporter_VerboseScenario(t *testing.T) {
	var buf bytes.Buffer
	r := newTestReporter(&buf, true, false, "", "")

	r.ReportScenarioStart(TestScenario{Name: "web", Category: CategoryWeb, Channels: []string{"web"}, Tags: []string{"smoke"}, Steps: make([]TestStep, 2)})
	r.ReportScenarioResult(TestScenarioResult{
		Scenario: TestScenario{Name: "web"},
		Result:   ResultFailed,
		Error:    "expected observed=true, got false",
		StepResults: []TestStepResult{
			{Step: TestStep{ID: "open"}, Result: ResultPassed},
			{Step: TestStep{ID: "look"}, Result: ResultFailed, Error: "expected observed=true, got false"},
		},
		Screenshot: "shots/web.png",
	})

	out := buf.String()
	assert.Contains(t, out, "🎯 Starting scenario: web (web)")
	assert.Contains(t, out, "📱 Channels: web")
	assert.Contains(t, out, "📊 Step Summary: 2 total, 1 ✅ passed, 1 ❌ failed")
	assert.Contains(t, out, "❌ look: expected observed=true, got false")
	assert.Contains(t, out, "📸 Screenshot: shots/web.png")
}

func TestTestReporter_SuiteSummaryAndJSONReport(t *testing.T) {
	var buf bytes.Buffer
	dir := t.TempDir()
	r := newTestReporter(&buf, false, false, dir, ReportFormatJSON)
	r.now = func() time.Time { return time.Date(2026, 3, 1, 12, 30, 45, 0, time.UTC) }

	r.ReportSuiteResult(sampleSuite())

	out := buf.String()
	assert.Contains(t, out, "🏁 Test Suite Complete")
	assert.Contains(t, out, "📏 Success Rate: 50.0%")
	assert.Contains(t, out, "💔 Some tests failed")

	path := filepath.Join(dir, "boardcheck-test-report-20260301-123045.json")
	assert.Contains(t, out, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded TestSuiteResult
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded.RunID)
	assert.Len(t, decoded.ScenarioResults, 2)
}

func TestSaveDetailedReport_YAML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	path, err := saveDetailedReport(dir, ReportFormatYAML, at, sampleSuite())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "boardcheck-test-report-20260301-080000.yaml"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, "run-1", decoded["run_id"])
	assert.EqualValues(t, 1, decoded["failed_scenarios"])
}

func TestQuietReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewQuietReporter(&buf)

	r.ReportScenarioResult(TestScenarioResult{Scenario: TestScenario{Name: "fine"}, Result: ResultPassed})
	r.ReportScenarioResult(TestScenarioResult{Scenario: TestScenario{Name: "broken"}, Result: ResultError, Error: "no chrome"})
	r.ReportSuiteResult(TestSuiteResult{TotalScenarios: 2, PassedScenarios: 1, ErrorScenarios: 1})

	assert.Equal(t, "💥 broken: no chrome\n❌ 1/2 tests failed (0s)\n", buf.String())
}

func TestJSONReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewJSONReporter(&buf)

	r.ReportStart(TestConfiguration{Parallel: 2})
	r.ReportScenarioResult(TestScenarioResult{Scenario: TestScenario{Name: "a"}, Result: ResultPassed})
	r.ReportSuiteResult(TestSuiteResult{RunID: "run-2", TotalScenarios: 1, PassedScenarios: 1})

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.EqualValues(t, 2, doc["configuration"].(map[string]interface{})["parallel"])
	assert.Len(t, doc["results"], 1)
	assert.Equal(t, "run-2", doc["summary"].(map[string]interface{})["run_id"])
}

func TestStructuredReporter_TracksScenarios(t *testing.T) {
	r := NewStructuredReporter(true, false)

	r.ReportStart(TestConfiguration{})
	r.ReportScenarioStart(TestScenario{Name: "one"})
	r.ReportStepResult(TestStepResult{Scenario: "one", Step: TestStep{ID: "s1"}, Result: ResultPassed})
	r.ReportStepResult(TestStepResult{Scenario: "unknown", Step: TestStep{ID: "s1"}, Result: ResultPassed})

	states := r.GetScenarioStates()
	require.Contains(t, states, "one")
	assert.Equal(t, ScenarioStatusRunning, states["one"].Status)
	assert.Len(t, states["one"].StepResults, 1)

	r.ReportScenarioResult(TestScenarioResult{Scenario: TestScenario{Name: "one"}, Result: ResultPassed})
	r.ReportSuiteResult(TestSuiteResult{TotalScenarios: 1, PassedScenarios: 1})

	assert.Equal(t, ScenarioStatusCompleted, r.GetScenarioStates()["one"].Status)
	assert.Len(t, r.GetCurrentResults(), 1)
	require.NotNil(t, r.GetCurrentSuiteResult())
	assert.True(t, r.IsVerbose())

	out, err := r.GetResultsAsJSON()
	require.NoError(t, err)
	assert.Contains(t, out, `"total_scenarios": 1`)
}
