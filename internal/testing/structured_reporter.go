package testing

import (
	"sync"
	"time"

	"boardcheck/internal/formatting"
)

// Scenario states tracked by the structured reporter.
const (
	ScenarioStatusRunning   = "running"
	ScenarioStatusCompleted = "completed"
	ScenarioStatusFailed    = "failed"
)

// ScenarioState is the live view of one scenario in an embedded run.
type ScenarioState struct {
	Scenario    TestScenario     `json:"scenario"`
	StartTime   time.Time        `json:"start_time"`
	StepResults []TestStepResult `json:"step_results"`
	Status      string           `json:"status"`
	// Screenshot is the failure capture, once the scenario has finished
	Screenshot string `json:"screenshot,omitempty"`
}

func (s *ScenarioState) clone() *ScenarioState {
	c := *s
	c.StepResults = append([]TestStepResult(nil), s.StepResults...)
	return &c
}

// structuredReporter keeps everything in memory and prints nothing. It
// backs embedded runs, where a go test function inspects the results.
type structuredReporter struct {
	verbose bool
	debug   bool

	mu      sync.RWMutex
	states  map[string]*ScenarioState
	suite   *TestSuiteResult
	results []TestScenarioResult
}

// NewStructuredReporter creates a reporter that captures structured data without output
func NewStructuredReporter(verbose, debug bool) StructuredTestReporter {
	return &structuredReporter{
		verbose: verbose,
		debug:   debug,
		states:  make(map[string]*ScenarioState),
	}
}

func (r *structuredReporter) ReportStart(config TestConfiguration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suite = &TestSuiteResult{StartTime: time.Now(), Configuration: config}
}

func (r *structuredReporter) ReportScenarioStart(scenario TestScenario) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[scenario.Name] = &ScenarioState{
		Scenario:  scenario,
		StartTime: time.Now(),
		Status:    ScenarioStatusRunning,
	}
}

// ReportStepResult appends to the owning scenario; steps of scenarios that
// were never started are dropped.
func (r *structuredReporter) ReportStepResult(stepResult TestStepResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if state, ok := r.states[stepResult.Scenario]; ok {
		state.StepResults = append(state.StepResults, stepResult)
	}
}

func (r *structuredReporter) ReportScenarioResult(scenarioResult TestScenarioResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if state, ok := r.states[scenarioResult.Scenario.Name]; ok {
		state.Status = ScenarioStatusCompleted
		if failed(scenarioResult.Result) {
			state.Status = ScenarioStatusFailed
		}
		state.Screenshot = scenarioResult.Screenshot
	}

	r.results = append(r.results, scenarioResult)
	if r.suite != nil {
		r.suite.ScenarioResults = append(r.suite.ScenarioResults, scenarioResult)
		r.suite.TotalScenarios = len(r.suite.ScenarioResults)
		r.suite.count(scenarioResult)
	}
}

// ReportSuiteResult replaces the running tally with the runner's final result.
func (r *structuredReporter) ReportSuiteResult(suiteResult TestSuiteResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.suite = &suiteResult
	for _, state := range r.states {
		if state.Status == ScenarioStatusRunning {
			state.Status = ScenarioStatusCompleted
		}
	}
}

func (r *structuredReporter) SetParallelMode(bool) {}

func (r *structuredReporter) GetCurrentSuiteResult() *TestSuiteResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.suite == nil {
		return nil
	}
	suite := *r.suite
	suite.ScenarioResults = append([]TestScenarioResult(nil), r.suite.ScenarioResults...)
	return &suite
}

func (r *structuredReporter) GetScenarioStates() map[string]*ScenarioState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make(map[string]*ScenarioState, len(r.states))
	for name, state := range r.states {
		states[name] = state.clone()
	}
	return states
}

func (r *structuredReporter) GetCurrentResults() []TestScenarioResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]TestScenarioResult{}, r.results...)
}

// GetResultsAsJSON renders the suite result, or a no_results marker
// before anything ran.
func (r *structuredReporter) GetResultsAsJSON() (string, error) {
	suite := r.GetCurrentSuiteResult()
	if suite == nil {
		return formatting.PrettyJSON(map[string]string{
			"status":  "no_results",
			"message": "No test results available",
		}), nil
	}
	return formatting.PrettyJSON(suite), nil
}

func (r *structuredReporter) IsVerbose() bool { return r.verbose }

func (r *structuredReporter) IsDebug() bool { return r.debug }
