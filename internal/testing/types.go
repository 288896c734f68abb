package testing

import (
	"context"
	"time"
)

// TestCategory represents the category of tests to execute
type TestCategory string

const (
	// CategoryAPI covers scenarios that only talk to the REST API
	CategoryAPI TestCategory = "api"
	// CategoryWeb covers browser scenarios
	CategoryWeb TestCategory = "web"
	// CategoryMobile covers Android app scenarios
	CategoryMobile TestCategory = "mobile"
	// CategoryIntegration covers cross-channel scenarios
	CategoryIntegration TestCategory = "integration"
)

// ValidCategories lists the categories accepted by the loader and the CLI.
var ValidCategories = []TestCategory{CategoryAPI, CategoryWeb, CategoryMobile, CategoryIntegration}

// TestResult represents the result of test execution
type TestResult string

const (
	ResultPassed  TestResult = "PASSED"
	ResultFailed  TestResult = "FAILED"
	ResultSkipped TestResult = "SKIPPED"
	// ResultError means the step could not be executed, as opposed to
	// executing and not meeting expectations
	ResultError TestResult = "ERROR"
)

// ExecutionMode represents the mode of test execution
type ExecutionMode string

const (
	// ExecutionModeCLI prints progress to the terminal
	ExecutionModeCLI ExecutionMode = "cli"
	// ExecutionModeEmbedded collects results without writing to stdout,
	// for use from go test
	ExecutionModeEmbedded ExecutionMode = "embedded"
)

// ReportFormat selects the detailed report file encoding.
type ReportFormat string

const (
	ReportFormatJSON ReportFormat = "json"
	ReportFormatYAML ReportFormat = "yaml"
)

// TestLogger provides centralized logging for test execution
type TestLogger interface {
	// Debug logs debug-level messages (only shown when debug=true)
	Debug(format string, args ...interface{})
	// Info logs info-level messages (shown when verbose=true or debug=true)
	Info(format string, args ...interface{})
	// Error logs error-level messages (always shown)
	Error(format string, args ...interface{})
	IsDebugEnabled() bool
	IsVerboseEnabled() bool
}

// TestConfiguration defines the overall test execution configuration
type TestConfiguration struct {
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`
	Category TestCategory  `yaml:"category,omitempty" json:"category,omitempty"`
	// Tag keeps only scenarios carrying this tag (TestNG group)
	Tag      string `yaml:"tag,omitempty" json:"tag,omitempty"`
	Scenario string `yaml:"scenario,omitempty" json:"scenario,omitempty"`
	// Parallel is the number of scenario workers
	Parallel int  `yaml:"parallel" json:"parallel"`
	FailFast bool `yaml:"fail_fast" json:"fail_fast"`
	Verbose  bool `yaml:"verbose" json:"verbose"`
	Debug    bool `yaml:"debug" json:"debug"`
	// ConfigPath is the scenario file or directory; empty uses the embedded set
	ConfigPath   string       `yaml:"config_path,omitempty" json:"config_path,omitempty"`
	ReportPath   string       `yaml:"report_path,omitempty" json:"report_path,omitempty"`
	ReportFormat ReportFormat `yaml:"report_format,omitempty" json:"report_format,omitempty"`
	// Browser overrides the scenario and configured browser
	Browser string `yaml:"browser,omitempty" json:"browser,omitempty"`
}

// TestScenario defines a single test scenario
type TestScenario struct {
	Name        string       `yaml:"name" json:"name"`
	Category    TestCategory `yaml:"category" json:"category"`
	Description string       `yaml:"description" json:"description,omitempty"`
	// Channels lists the UI sessions opened before the steps run (web, mobile)
	Channels []string `yaml:"channels,omitempty" json:"channels,omitempty"`
	// Browser selects the web engine for this scenario
	Browser string     `yaml:"browser,omitempty" json:"browser,omitempty"`
	Steps   []TestStep `yaml:"steps" json:"steps"`
	// Cleanup steps always run, even after a failed step
	Cleanup []TestStep    `yaml:"cleanup,omitempty" json:"cleanup,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
	Tags    []string      `yaml:"tags,omitempty" json:"tags,omitempty"`
	Skip    bool          `yaml:"skip,omitempty" json:"skip,omitempty"`
}

// HasTag reports whether the scenario carries tag.
func (s TestScenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TestStep defines a single step within a test scenario
type TestStep struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	// Action names a registered action, e.g. board.create
	Action   string                 `yaml:"action" json:"action"`
	Args     map[string]interface{} `yaml:"args" json:"args,omitempty"`
	Expected TestExpectation        `yaml:"expected" json:"expected"`
	// Store saves the step result under this name for later templates
	Store   string        `yaml:"store,omitempty" json:"store,omitempty"`
	Retry   *RetryConfig  `yaml:"retry,omitempty" json:"retry,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// TestExpectation defines what result is expected from a test step
type TestExpectation struct {
	Success       bool     `yaml:"success" json:"success"`
	ErrorContains []string `yaml:"error_contains,omitempty" json:"error_contains,omitempty"`
	Contains      []string `yaml:"contains,omitempty" json:"contains,omitempty"`
	NotContains   []string `yaml:"not_contains,omitempty" json:"not_contains,omitempty"`
	// Fields checks top-level fields of a map result for equality
	Fields map[string]interface{} `yaml:"fields,omitempty" json:"fields,omitempty"`
	// StatusCode checks the "status" field of a result or the status of a BoardError
	StatusCode int `yaml:"status_code,omitempty" json:"status_code,omitempty"`
	// Observed checks the "observed" field reported by UI probes
	Observed *bool `yaml:"observed,omitempty" json:"observed,omitempty"`
	// WaitForState re-runs the action until the expectation holds or this elapses
	WaitForState time.Duration `yaml:"wait_for_state,omitempty" json:"wait_for_state,omitempty"`
}

// RetryConfig defines retry behavior for test steps
type RetryConfig struct {
	Count             int           `yaml:"count" json:"count"`
	Delay             time.Duration `yaml:"delay" json:"delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier,omitempty" json:"backoff_multiplier,omitempty"`
}

// TestSuiteResult represents the overall result of test suite execution
type TestSuiteResult struct {
	RunID            string               `json:"run_id"`
	StartTime        time.Time            `json:"start_time"`
	EndTime          time.Time            `json:"end_time"`
	Duration         time.Duration        `json:"duration"`
	TotalScenarios   int                  `json:"total_scenarios"`
	PassedScenarios  int                  `json:"passed_scenarios"`
	FailedScenarios  int                  `json:"failed_scenarios"`
	SkippedScenarios int                  `json:"skipped_scenarios"`
	ErrorScenarios   int                  `json:"error_scenarios"`
	ScenarioResults  []TestScenarioResult `json:"scenario_results"`
	Configuration    TestConfiguration    `json:"configuration"`
}

// Succeeded reports whether no scenario failed or errored.
func (r *TestSuiteResult) Succeeded() bool {
	return r.FailedScenarios == 0 && r.ErrorScenarios == 0
}

// count adds one scenario outcome to the per-result counters.
func (r *TestSuiteResult) count(scenarioResult TestScenarioResult) {
	switch scenarioResult.Result {
	case ResultPassed:
		r.PassedScenarios++
	case ResultFailed:
		r.FailedScenarios++
	case ResultSkipped:
		r.SkippedScenarios++
	case ResultError:
		r.ErrorScenarios++
	}
}

// TestScenarioResult represents the result of a single test scenario
type TestScenarioResult struct {
	Scenario    TestScenario     `json:"scenario"`
	Result      TestResult       `json:"result"`
	StartTime   time.Time        `json:"start_time"`
	EndTime     time.Time        `json:"end_time"`
	Duration    time.Duration    `json:"duration"`
	StepResults []TestStepResult `json:"step_results"`
	Error       string           `json:"error,omitempty"`
	// Screenshot is the failure capture path, when one was written
	Screenshot string `json:"screenshot,omitempty"`
	// Sessions maps channel to session id for the UI sessions used
	Sessions map[string]string `json:"sessions,omitempty"`
}

// TestStepResult represents the result of a single test step
type TestStepResult struct {
	// Scenario names the scenario the step ran in
	Scenario   string        `json:"scenario"`
	Step       TestStep      `json:"step"`
	Result     TestResult    `json:"result"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
	Response   interface{}   `json:"response,omitempty"`
	Error      string        `json:"error,omitempty"`
	RetryCount int           `json:"retry_count"`
}

// TestRunner interface defines the test execution engine
type TestRunner interface {
	Run(ctx context.Context, config TestConfiguration, scenarios []TestScenario) (*TestSuiteResult, error)
}

// TestScenarioLoader interface defines how test scenarios are loaded
type TestScenarioLoader interface {
	// LoadScenarios loads scenarios from a file or directory; an empty path
	// loads the embedded defaults
	LoadScenarios(configPath string) ([]TestScenario, error)
	FilterScenarios(scenarios []TestScenario, config TestConfiguration) []TestScenario
}

// TestReporter interface defines how test results are reported
type TestReporter interface {
	ReportStart(config TestConfiguration)
	ReportScenarioStart(scenario TestScenario)
	ReportStepResult(stepResult TestStepResult)
	ReportScenarioResult(scenarioResult TestScenarioResult)
	ReportSuiteResult(suiteResult TestSuiteResult)
	// SetParallelMode enables or disables parallel output buffering
	SetParallelMode(parallel bool)
}

// StructuredTestReporter extends TestReporter with methods for structured data access
type StructuredTestReporter interface {
	TestReporter
	GetCurrentSuiteResult() *TestSuiteResult
	GetScenarioStates() map[string]*ScenarioState
	GetCurrentResults() []TestScenarioResult
	GetResultsAsJSON() (string, error)
	IsVerbose() bool
	IsDebug() bool
}
