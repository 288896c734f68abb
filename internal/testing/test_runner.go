package testing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"boardcheck/internal/capture"
	"boardcheck/internal/session"
	"boardcheck/internal/template"
	"boardcheck/internal/ui"

	"github.com/google/uuid"
)

const (
	// defaultStatePollInterval is how often wait_for_state re-runs an action
	defaultStatePollInterval = 1 * time.Second
	// cleanupTimeout bounds cleanup steps and session teardown after the
	// scenario context has expired
	cleanupTimeout = 2 * time.Minute
)

// testRunner implements the TestRunner interface
type testRunner struct {
	envFactory        EnvironmentFactory
	actions           ActionRegistry
	loader            TestScenarioLoader
	reporter          TestReporter
	capturer          *capture.Capturer
	engine            *template.Engine
	statePollInterval time.Duration
	debug             bool
	logger            TestLogger
}

// NewTestRunner creates a new test runner
func NewTestRunner(envFactory EnvironmentFactory, loader TestScenarioLoader, reporter TestReporter, capturer *capture.Capturer, debug bool) TestRunner {
	return NewTestRunnerWithLogger(envFactory, loader, reporter, capturer, debug, NewStdoutLogger(false, debug))
}

// NewTestRunnerWithLogger creates a new test runner with custom logger
func NewTestRunnerWithLogger(envFactory EnvironmentFactory, loader TestScenarioLoader, reporter TestReporter, capturer *capture.Capturer, debug bool, logger TestLogger) TestRunner {
	return &testRunner{
		envFactory:        envFactory,
		actions:           DefaultActions(),
		loader:            loader,
		reporter:          reporter,
		capturer:          capturer,
		engine:            template.New(),
		statePollInterval: defaultStatePollInterval,
		debug:             debug,
		logger:            logger,
	}
}

// Run executes test scenarios according to the configuration
func (r *testRunner) Run(ctx context.Context, config TestConfiguration, scenarios []TestScenario) (*TestSuiteResult, error) {
	if r.envFactory == nil {
		return nil, errors.New("test runner has no environment factory")
	}

	result := &TestSuiteResult{
		RunID:           uuid.NewString(),
		StartTime:       time.Now(),
		ScenarioResults: make([]TestScenarioResult, 0, len(scenarios)),
		Configuration:   config,
	}

	r.reporter.ReportStart(config)

	filteredScenarios := r.loader.FilterScenarios(scenarios, config)
	result.TotalScenarios = len(filteredScenarios)

	if len(filteredScenarios) == 0 {
		result.EndTime = time.Now()
		r.reporter.ReportSuiteResult(*result)
		return result, nil
	}

	if config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, config.Timeout)
		defer cancel()
	}

	if config.Parallel <= 1 {
		r.reporter.SetParallelMode(false)
		for _, scenario := range filteredScenarios {
			scenarioResult := r.runScenario(ctx, scenario, config)
			result.ScenarioResults = append(result.ScenarioResults, scenarioResult)
			result.count(scenarioResult)
			r.reporter.ReportScenarioResult(scenarioResult)

			if config.FailFast && failed(scenarioResult.Result) {
				r.logger.Debug("🛑 Fail-fast triggered by scenario: %s\n", scenarioResult.Scenario.Name)
				break
			}
		}
	} else {
		r.reporter.SetParallelMode(true)
		result.ScenarioResults = r.runScenariosParallel(ctx, filteredScenarios, config, result)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	r.reporter.ReportSuiteResult(*result)

	return result, nil
}

func failed(res TestResult) bool {
	return res == ResultFailed || res == ResultError
}

// runScenariosParallel executes scenarios with a worker pool. After a
// fail-fast trigger, queued scenarios are dropped and running ones finish.
func (r *testRunner) runScenariosParallel(ctx context.Context, scenarios []TestScenario, config TestConfiguration, suiteResult *TestSuiteResult) []TestScenarioResult {
	scenarioChan := make(chan TestScenario, len(scenarios))
	resultChan := make(chan TestScenarioResult, len(scenarios))

	for _, scenario := range scenarios {
		scenarioChan <- scenario
	}
	close(scenarioChan)

	stopCtx, stop := context.WithCancel(context.Background())
	defer stop()

	var wg sync.WaitGroup
	numWorkers := config.Parallel
	if numWorkers > len(scenarios) {
		numWorkers = len(scenarios)
	}

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			for scenario := range scenarioChan {
				if stopCtx.Err() != nil {
					r.logger.Debug("⏭️  Worker %d dropping scenario after fail-fast: %s\n", workerID, scenario.Name)
					continue
				}
				r.logger.Debug("🔄 Worker %d executing scenario: %s\n", workerID, scenario.Name)
				resultChan <- r.runScenario(ctx, scenario, config)
			}
		}(i)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var results []TestScenarioResult
	for result := range resultChan {
		results = append(results, result)
		suiteResult.count(result)
		r.reporter.ReportScenarioResult(result)

		if config.FailFast && failed(result.Result) && stopCtx.Err() == nil {
			r.logger.Debug("🛑 Fail-fast triggered by scenario: %s\n", result.Scenario.Name)
			stop()
		}
	}

	return results
}

// browserFor picks the web engine: the run override, then the scenario's
// own choice, then the configured default.
func (r *testRunner) browserFor(scenario TestScenario, config TestConfiguration) string {
	if config.Browser != "" {
		return config.Browser
	}
	return scenario.Browser
}

// runScenario executes a single test scenario with its own session set
func (r *testRunner) runScenario(ctx context.Context, scenario TestScenario, config TestConfiguration) (result TestScenarioResult) {
	result = TestScenarioResult{
		Scenario:    scenario,
		StartTime:   time.Now(),
		StepResults: make([]TestStepResult, 0, len(scenario.Steps)+len(scenario.Cleanup)),
		Result:      ResultPassed,
	}

	r.reporter.ReportScenarioStart(scenario)

	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	if scenario.Skip {
		result.Result = ResultSkipped
		return result
	}

	scenarioCtx := ctx
	if scenario.Timeout > 0 {
		var cancel context.CancelFunc
		scenarioCtx, cancel = context.WithTimeout(ctx, scenario.Timeout)
		defer cancel()
	}

	env, err := r.envFactory(scenario)
	if err != nil {
		result.Result = ResultError
		result.Error = fmt.Sprintf("failed to prepare environment: %v", err)
		return result
	}

	// Capture has to see the sessions before they are quit.
	defer r.finishScenario(ctx, scenario, env, &result)

	for _, ch := range scenario.Channels {
		selector := ""
		if session.Channel(ch) == session.ChannelWeb {
			selector = r.browserFor(scenario, config)
		}
		if err := env.Sessions.Init(scenarioCtx, session.Channel(ch), selector); err != nil {
			result.Result = ResultError
			result.Error = fmt.Sprintf("failed to start %s session: %v", ch, err)
			return result
		}
		if result.Sessions == nil {
			result.Sessions = make(map[string]string)
		}
		result.Sessions[ch] = env.Sessions.Manager(session.Channel(ch)).ID()
		r.logger.Debug("✅ Started %s session for scenario %s\n", ch, scenario.Name)
	}

	scenarioContext := NewScenarioContext()

	for _, step := range scenario.Steps {
		stepResult := r.runStep(scenarioCtx, env, step, scenarioContext)
		stepResult.Scenario = scenario.Name
		result.StepResults = append(result.StepResults, stepResult)
		r.reporter.ReportStepResult(stepResult)

		if failed(stepResult.Result) {
			result.Result = stepResult.Result
			result.Error = stepResult.Error
			break
		}
	}

	if len(scenario.Cleanup) > 0 {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()

		for _, cleanupStep := range scenario.Cleanup {
			stepResult := r.runStep(cleanupCtx, env, cleanupStep, scenarioContext)
			stepResult.Scenario = scenario.Name
			result.StepResults = append(result.StepResults, stepResult)
			r.reporter.ReportStepResult(stepResult)

			if failed(stepResult.Result) && result.Result == ResultPassed {
				result.Result = stepResult.Result
				result.Error = stepResult.Error
			}
		}
	}

	return result
}

// finishScenario takes the failure screenshot and releases the sessions.
func (r *testRunner) finishScenario(ctx context.Context, scenario TestScenario, env *Environment, result *TestScenarioResult) {
	teardownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	if failed(result.Result) && r.capturer != nil {
		result.Screenshot = r.capturer.OnFailure(teardownCtx, scenario.Name, env.Sessions)
	}

	if err := env.Close(); err != nil {
		r.logger.Error("⚠️  Failed to close sessions for scenario %s: %v\n", scenario.Name, err)
	}
}

// stepOutcome is one execution of a step's action and its expectation check.
type stepOutcome struct {
	response interface{}
	err      error
	ok       bool
	reason   string
}

// attempt runs the action once. An unknown action never satisfies the
// expectation, even one that expects failure.
func (r *testRunner) attempt(ctx context.Context, env *Environment, step TestStep, args map[string]interface{}) stepOutcome {
	response, err := r.actions.Execute(ctx, env, step.Action, args)
	if ui.IsWaitTimeout(err) {
		r.logger.Debug("⏱️  Step %s: element wait exhausted: %v\n", step.ID, err)
	}
	if errors.Is(err, ErrUnknownAction) {
		return stepOutcome{err: err, reason: err.Error()}
	}
	ok, reason := checkExpectations(step.Expected, response, err)
	return stepOutcome{response: response, err: err, ok: ok, reason: reason}
}

// runStep executes a single step with template resolution, retries and
// state waiting
func (r *testRunner) runStep(ctx context.Context, env *Environment, step TestStep, scenarioContext *ScenarioContext) TestStepResult {
	result := TestStepResult{
		Step:      step,
		StartTime: time.Now(),
		Result:    ResultPassed,
	}
	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
	}()

	stepCtx := ctx
	if step.Timeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(ctx, step.Timeout)
		defer cancel()
	}

	processor := NewTemplateProcessor(scenarioContext, r.engine)
	resolvedArgs, err := processor.ResolveArgs(step.Args)
	if err != nil {
		result.Result = ResultError
		result.Error = fmt.Sprintf("template resolution failed: %v", err)
		return result
	}
	// Expected fields may refer to stored results too.
	if len(step.Expected.Fields) > 0 {
		fields, err := processor.ResolveArgs(step.Expected.Fields)
		if err != nil {
			result.Result = ResultError
			result.Error = fmt.Sprintf("template resolution of expected fields failed: %v", err)
			return result
		}
		step.Expected.Fields = fields
	}

	out := r.attempt(stepCtx, env, step, resolvedArgs)

	if step.Retry != nil {
		delay := step.Retry.Delay
		for i := 1; !out.ok && i <= step.Retry.Count; i++ {
			if errors.Is(out.err, ErrUnknownAction) || !sleepCtx(stepCtx, delay) {
				break
			}
			r.logger.Debug("🔁 Step %s: retry %d/%d (%s)\n", step.ID, i, step.Retry.Count, out.reason)
			result.RetryCount = i
			out = r.attempt(stepCtx, env, step, resolvedArgs)
			if step.Retry.BackoffMultiplier > 0 {
				delay = time.Duration(float64(delay) * step.Retry.BackoffMultiplier)
			}
		}
	}

	if !out.ok && step.Expected.WaitForState > 0 && !errors.Is(out.err, ErrUnknownAction) {
		out = r.waitForState(stepCtx, env, step, resolvedArgs, out)
	}

	result.Response = out.response
	if step.Store != "" && out.response != nil {
		scenarioContext.StoreResult(step.Store, out.response)
		r.logger.Debug("💾 Step %s: Stored result as '%s'\n", step.ID, step.Store)
	}

	if !out.ok {
		if out.err != nil && (step.Expected.Success || errors.Is(out.err, ErrUnknownAction)) {
			result.Result = ResultError
			result.Error = fmt.Sprintf("action %s failed: %v", step.Action, out.err)
		} else {
			result.Result = ResultFailed
			result.Error = fmt.Sprintf("step expectations not met: %s", out.reason)
		}
	}

	return result
}

// waitForState re-runs the action on a ticker until the expectation holds
// or WaitForState elapses. The last outcome is returned on timeout.
func (r *testRunner) waitForState(ctx context.Context, env *Environment, step TestStep, args map[string]interface{}, last stepOutcome) stepOutcome {
	waitCtx, cancel := context.WithTimeout(ctx, step.Expected.WaitForState)
	defer cancel()

	ticker := time.NewTicker(r.statePollInterval)
	defer ticker.Stop()

	r.logger.Debug("⏳ Step %s: waiting up to %v for expected state\n", step.ID, step.Expected.WaitForState)

	for {
		select {
		case <-waitCtx.Done():
			r.logger.Debug("⏰ Step %s: state waiting timeout reached\n", step.ID)
			return last
		case <-ticker.C:
			out := r.attempt(waitCtx, env, step, args)
			if out.ok {
				r.logger.Debug("✅ Step %s: expected state achieved\n", step.ID)
				return out
			}
			if waitCtx.Err() == nil {
				last = out
			}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
