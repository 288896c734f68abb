package testing

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"boardcheck/internal/formatting"
	bcstrings "boardcheck/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"sigs.k8s.io/yaml"
)

// reportTimestampLayout names detailed report files.
const reportTimestampLayout = "20060102-150405"

// testReporter implements the TestReporter interface
type testReporter struct {
	out          io.Writer
	verbose      bool
	debug        bool
	reportPath   string
	reportFormat ReportFormat
	now          func() time.Time

	mu              sync.Mutex
	parallelMode    bool
	scenarioBuffers map[string]string
}

// NewTestReporter creates a console reporter writing to out. When
// reportPath is set, a detailed report file is written there at the end.
func NewTestReporter(out io.Writer, verbose, debug bool, reportPath string, format ReportFormat) TestReporter {
	return newTestReporter(out, verbose, debug, reportPath, format)
}

func newTestReporter(out io.Writer, verbose, debug bool, reportPath string, format ReportFormat) *testReporter {
	if out == nil {
		out = os.Stdout
	}
	if format == "" {
		format = ReportFormatJSON
	}
	return &testReporter{
		out:             out,
		verbose:         verbose,
		debug:           debug,
		reportPath:      reportPath,
		reportFormat:    format,
		now:             time.Now,
		scenarioBuffers: make(map[string]string),
	}
}

func (r *testReporter) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

// SetParallelMode enables or disables parallel output buffering
func (r *testReporter) SetParallelMode(parallel bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.parallelMode = parallel
	if parallel {
		r.scenarioBuffers = make(map[string]string)
	}
}

// ReportStart is called when test execution begins
func (r *testReporter) ReportStart(config TestConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("🧪 Starting boardcheck suite\n")

	if r.verbose {
		r.printf("\n⚙️  Configuration:\n")
		r.printf("   • Category: %s\n", stringOrDefault(string(config.Category), "all"))
		r.printf("   • Tag: %s\n", stringOrDefault(config.Tag, "all"))
		r.printf("   • Scenario: %s\n", stringOrDefault(config.Scenario, "all"))
		r.printf("   • Browser: %s\n", stringOrDefault(config.Browser, "configured default"))
		r.printf("   • Parallel workers: %d\n", config.Parallel)
		r.printf("   • Fail fast: %t\n", config.FailFast)
		r.printf("   • Debug mode: %t\n", r.debug)
		r.printf("   • Timeout: %v\n", config.Timeout)
		r.printf("   • Scenarios: %s\n", stringOrDefault(config.ConfigPath, "embedded"))
		if config.ReportPath != "" {
			r.printf("   • Report path: %s (%s)\n", config.ReportPath, r.reportFormat)
		}
		r.printf("\n")
	}
}

// ReportScenarioStart is called when a scenario begins
func (r *testReporter) ReportScenarioStart(scenario TestScenario) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.verbose {
		if r.parallelMode {
			r.scenarioBuffers[scenario.Name] = fmt.Sprintf("🎯 %s... ", scenario.Name)
		} else {
			r.printf("🎯 %s... ", scenario.Name)
		}
		return
	}

	r.printf("🎯 Starting scenario: %s (%s)\n", scenario.Name, scenario.Category)
	if scenario.Description != "" {
		r.printf("   📝 Description: %s\n", scenario.Description)
	}
	if len(scenario.Tags) > 0 {
		r.printf("   🏷️  Tags: %s\n", strings.Join(scenario.Tags, ", "))
	}
	if len(scenario.Channels) > 0 {
		r.printf("   📱 Channels: %s\n", strings.Join(scenario.Channels, ", "))
	}
	r.printf("   📋 Steps: %d\n", len(scenario.Steps))
	if len(scenario.Cleanup) > 0 {
		r.printf("   🧹 Cleanup steps: %d\n", len(scenario.Cleanup))
	}
	if scenario.Timeout > 0 {
		r.printf("   ⏱️  Timeout: %v\n", scenario.Timeout)
	}
	r.printf("\n")
}

// ReportStepResult is called when a step completes
func (r *testReporter) ReportStepResult(stepResult TestStepResult) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	step := stepResult.Step
	r.printf("   %s Step: %s (%v)\n", getResultSymbol(stepResult.Result), step.ID, stepResult.Duration)
	if step.Description != "" {
		r.printf("      📝 Description: %s\n", step.Description)
	}
	r.printf("      🔧 Action: %s\n", step.Action)

	if len(step.Args) > 0 {
		r.printf("      📥 Arguments:\n")
		keys := make([]string, 0, len(step.Args))
		for key := range step.Args {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			r.printf("         • %s: %s\n", key, formatValue(step.Args[key]))
		}
	}

	if stepResult.RetryCount > 0 {
		r.printf("      🔄 Retries: %d\n", stepResult.RetryCount)
	}
	if step.Timeout > 0 {
		r.printf("      ⏱️  Timeout: %v\n", step.Timeout)
	}

	if stepResult.Response != nil {
		r.printf("      📤 Response:\n%s\n", indentText(formatResponse(stepResult.Response), "         "))
	}

	if hasExpectations(step.Expected) {
		r.printf("      🎯 Expectations:\n")
		r.printf("         • Success: %t\n", step.Expected.Success)
		if len(step.Expected.Contains) > 0 {
			r.printf("         • Contains: %s\n", strings.Join(step.Expected.Contains, ", "))
		}
		if len(step.Expected.ErrorContains) > 0 {
			r.printf("         • Error contains: %s\n", strings.Join(step.Expected.ErrorContains, ", "))
		}
		if len(step.Expected.NotContains) > 0 {
			r.printf("         • Not contains: %s\n", strings.Join(step.Expected.NotContains, ", "))
		}
		if step.Expected.StatusCode > 0 {
			r.printf("         • Status code: %d\n", step.Expected.StatusCode)
		}
		if step.Expected.Observed != nil {
			r.printf("         • Observed: %t\n", *step.Expected.Observed)
		}
		if len(step.Expected.Fields) > 0 {
			r.printf("         • Field checks: %d\n", len(step.Expected.Fields))
		}
	}

	if stepResult.Error != "" {
		r.printf("      ❌ Error: %s\n", stepResult.Error)
	}
	r.printf("\n")
}

// ReportScenarioResult is called when a scenario completes
func (r *testReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	symbol := getResultSymbol(scenarioResult.Result)

	if !r.verbose {
		switch {
		case r.parallelMode:
			start, ok := r.scenarioBuffers[scenarioResult.Scenario.Name]
			delete(r.scenarioBuffers, scenarioResult.Scenario.Name)
			if !ok {
				start = fmt.Sprintf("🎯 %s... ", scenarioResult.Scenario.Name)
			}
			r.printf("%s%s (%v)\n", start, symbol, scenarioResult.Duration)
		default:
			r.printf("%s (%v)\n", symbol, scenarioResult.Duration)
		}
		if scenarioResult.Screenshot != "" {
			r.printf("   📸 %s\n", scenarioResult.Screenshot)
		}
		return
	}

	r.printf("%s Scenario completed: %s (%v)\n", symbol, scenarioResult.Scenario.Name, scenarioResult.Duration)
	if scenarioResult.Error != "" {
		r.printf("   ❌ Scenario Error: %s\n", scenarioResult.Error)
	}

	passed, failedSteps, errored := 0, 0, 0
	for _, stepResult := range scenarioResult.StepResults {
		switch stepResult.Result {
		case ResultPassed:
			passed++
		case ResultFailed:
			failedSteps++
		case ResultError:
			errored++
		}
	}

	r.printf("   📊 Step Summary: %d total", len(scenarioResult.StepResults))
	if passed > 0 {
		r.printf(", %d ✅ passed", passed)
	}
	if failedSteps > 0 {
		r.printf(", %d ❌ failed", failedSteps)
	}
	if errored > 0 {
		r.printf(", %d 💥 errors", errored)
	}
	r.printf("\n")

	if failedSteps > 0 || errored > 0 {
		r.printf("   🔍 Failed Steps:\n")
		for _, stepResult := range scenarioResult.StepResults {
			if failed(stepResult.Result) {
				r.printf("      %s %s: %s\n", getResultSymbol(stepResult.Result), stepResult.Step.ID, stepResult.Error)
			}
		}
	}

	if len(scenarioResult.Sessions) > 0 && r.debug {
		for ch, id := range scenarioResult.Sessions {
			r.printf("   🔌 %s session: %s\n", ch, id)
		}
	}
	if scenarioResult.Screenshot != "" {
		r.printf("   📸 Screenshot: %s\n", scenarioResult.Screenshot)
	}
	r.printf("\n")
}

// ReportSuiteResult is called when all tests complete
func (r *testReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.printf("\n🏁 Test Suite Complete\n")
	r.printf("⏱️  Duration: %v\n", suiteResult.Duration)

	t := formatting.NewTable(r.out)
	t.AppendHeader(formatting.Header("RESULT", "COUNT"))
	t.AppendRow(table.Row{"✅ Passed", suiteResult.PassedScenarios})
	if suiteResult.FailedScenarios > 0 {
		t.AppendRow(table.Row{"❌ Failed", text.FgRed.Sprint(suiteResult.FailedScenarios)})
	}
	if suiteResult.ErrorScenarios > 0 {
		t.AppendRow(table.Row{"💥 Errors", text.FgRed.Sprint(suiteResult.ErrorScenarios)})
	}
	if suiteResult.SkippedScenarios > 0 {
		t.AppendRow(table.Row{"⏭️  Skipped", suiteResult.SkippedScenarios})
	}
	t.AppendFooter(table.Row{"Total", suiteResult.TotalScenarios})
	t.Render()

	successRate := 0.0
	if suiteResult.TotalScenarios > 0 {
		successRate = float64(suiteResult.PassedScenarios) / float64(suiteResult.TotalScenarios) * 100
	}
	r.printf("📏 Success Rate: %.1f%%\n", successRate)

	if suiteResult.Succeeded() {
		r.printf("\n🎉 All tests passed!\n")
	} else {
		r.printf("\n💔 Some tests failed\n")
	}

	if r.reportPath != "" {
		path, err := saveDetailedReport(r.reportPath, r.reportFormat, r.now(), suiteResult)
		if err != nil {
			r.printf("⚠️  Failed to save detailed report: %v\n", err)
		} else {
			r.printf("📄 Detailed report saved to: %s\n", path)
		}
	}
}

// saveDetailedReport writes the suite result into dir and returns the file path
func saveDetailedReport(dir string, format ReportFormat, at time.Time, suiteResult TestSuiteResult) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	var (
		data []byte
		err  error
		ext  string
	)
	switch format {
	case ReportFormatYAML:
		data, err = yaml.Marshal(suiteResult)
		ext = "yaml"
	default:
		data, err = json.MarshalIndent(suiteResult, "", "  ")
		ext = "json"
	}
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to %s: %w", ext, err)
	}

	path := filepath.Join(dir, fmt.Sprintf("boardcheck-test-report-%s.%s", at.Format(reportTimestampLayout), ext))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// indentText adds indentation to each line of text
func indentText(text string, indent string) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}

// formatValue formats a value for display in arguments
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return fmt.Sprintf("%q", v)
	case map[string]interface{}, []interface{}:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return fmt.Sprintf("%v", value)
}

const maxResponseLen = 200

// formatResponse renders action results as indented JSON where possible
func formatResponse(response interface{}) string {
	if m, ok := response.(map[string]interface{}); ok {
		return formatting.PrettyJSON(m)
	}
	return bcstrings.Truncate(fmt.Sprintf("%v", response), maxResponseLen)
}

// hasExpectations checks if a TestExpectation has any meaningful values set
func hasExpectations(expected TestExpectation) bool {
	return len(expected.Contains) > 0 ||
		len(expected.ErrorContains) > 0 ||
		len(expected.NotContains) > 0 ||
		len(expected.Fields) > 0 ||
		expected.StatusCode > 0 ||
		expected.Observed != nil ||
		!expected.Success
}

// getResultSymbol returns an appropriate symbol for the test result
func getResultSymbol(result TestResult) string {
	switch result {
	case ResultPassed:
		return "✅"
	case ResultFailed:
		return "❌"
	case ResultSkipped:
		return "⏭️"
	case ResultError:
		return "💥"
	default:
		return "❓"
	}
}

// stringOrDefault returns the string if not empty, otherwise returns the default
func stringOrDefault(s, defaultValue string) string {
	if s == "" {
		return defaultValue
	}
	return s
}

// NewQuietReporter creates a reporter that only outputs failures and a summary line
func NewQuietReporter(out io.Writer) TestReporter {
	if out == nil {
		out = os.Stdout
	}
	return &quietReporter{out: out}
}

// quietReporter implements minimal output for CI/CD integration
type quietReporter struct {
	out io.Writer
	mu  sync.Mutex
}

func (r *quietReporter) ReportStart(TestConfiguration) {}
func (r *quietReporter) ReportScenarioStart(TestScenario) {}
func (r *quietReporter) ReportStepResult(TestStepResult) {}
func (r *quietReporter) SetParallelMode(bool) {}

func (r *quietReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	if !failed(scenarioResult.Result) {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, "%s %s: %s\n", getResultSymbol(scenarioResult.Result), scenarioResult.Scenario.Name,
		bcstrings.TruncateLine(scenarioResult.Error, maxResponseLen))
}

func (r *quietReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if suiteResult.Succeeded() {
		fmt.Fprintf(r.out, "✅ All %d tests passed (%v)\n", suiteResult.TotalScenarios, suiteResult.Duration)
		return
	}
	fmt.Fprintf(r.out, "❌ %d/%d tests failed (%v)\n",
		suiteResult.FailedScenarios+suiteResult.ErrorScenarios,
		suiteResult.TotalScenarios,
		suiteResult.Duration)
}

// NewJSONReporter creates a reporter that prints one JSON document at the end
func NewJSONReporter(out io.Writer) TestReporter {
	if out == nil {
		out = os.Stdout
	}
	return &jsonReporter{out: out}
}

// jsonReporter implements JSON output for machine consumption
type jsonReporter struct {
	out     io.Writer
	mu      sync.Mutex
	results []TestScenarioResult
	config  TestConfiguration
}

func (r *jsonReporter) ReportStart(config TestConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = config
	r.results = make([]TestScenarioResult, 0)
}

func (r *jsonReporter) ReportScenarioStart(TestScenario) {}
func (r *jsonReporter) ReportStepResult(TestStepResult) {}
func (r *jsonReporter) SetParallelMode(bool) {}

func (r *jsonReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, scenarioResult)
}

func (r *jsonReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	output := map[string]interface{}{
		"configuration": r.config,
		"results":       r.results,
		"summary":       suiteResult,
	}
	fmt.Fprintln(r.out, formatting.PrettyJSON(output))
}
