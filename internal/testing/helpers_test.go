package testing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"boardcheck/internal/capture"
	"boardcheck/internal/config"
	"boardcheck/internal/driver"
	"boardcheck/internal/driver/drivertest"
	"boardcheck/internal/session"
	"boardcheck/internal/trello"
	"boardcheck/internal/trello/trellotest"

	"github.com/stretchr/testify/require"
)

// fastConfig keeps UI waits short so that NotObserved outcomes return quickly.
func fastConfig(extra map[string]string) *config.Config {
	values := map[string]string{
		config.KeyWaitTimeout:       "200ms",
		config.KeyWaitMobileTimeout: "200ms",
		config.KeyWaitPollInterval:  "5ms",
		config.KeyHomeURL:           "https://trello.example/home",
		config.KeyUsername:          "qa@example.com",
		config.KeyPassword:          "secret",
	}
	for k, v := range extra {
		values[k] = v
	}
	return config.FromMap(values)
}

// fakeDrivers hands out scripted drivers and remembers the selectors used.
type fakeDrivers struct {
	mu        sync.Mutex
	web       *drivertest.Driver
	mobile    *drivertest.Driver
	selectors []string
	webErr    error
}

func newFakeDrivers() *fakeDrivers {
	return &fakeDrivers{web: drivertest.New(), mobile: drivertest.New()}
}

func (f *fakeDrivers) webFactory(_ context.Context, selector string) (driver.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectors = append(f.selectors, selector)
	if f.webErr != nil {
		return nil, f.webErr
	}
	return f.web, nil
}

func (f *fakeDrivers) mobileFactory(_ context.Context, _ string) (driver.Driver, error) {
	return f.mobile, nil
}

func (f *fakeDrivers) usedSelectors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.selectors...)
}

// envFactory returns an EnvironmentFactory over the fake drivers and boards.
func (f *fakeDrivers) envFactory(cfg *config.Config, boards BoardAPI) EnvironmentFactory {
	return func(TestScenario) (*Environment, error) {
		return NewEnvironment(cfg, boards, session.NewSetWith(f.webFactory, f.mobileFactory, "chrome")), nil
	}
}

// newBoardServer starts the in-memory boards API and a client for it.
func newBoardServer(t *testing.T) (*trellotest.Server, *trello.Client) {
	t.Helper()
	srv := trellotest.NewServer("k", "t")
	t.Cleanup(srv.Close)
	client, err := trello.NewClient(srv.URL, trello.Credentials{Key: "k", Token: "t"}, trello.WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return srv, client
}

// newRunner builds a runner with a structured reporter and quick polling.
func newRunner(t *testing.T, envs EnvironmentFactory, actions ActionRegistry) (*testRunner, StructuredTestReporter) {
	t.Helper()
	logger := NewSilentLogger(false, false)
	reporter := NewStructuredReporter(false, false)
	r := NewTestRunnerWithLogger(envs, NewTestScenarioLoaderWithLogger(false, logger), reporter, capture.New(t.TempDir()), false, logger).(*testRunner)
	if actions != nil {
		r.actions = actions
	}
	r.statePollInterval = defaultTestPollInterval
	return r, reporter
}

// callLog records action invocations across goroutines.
type callLog struct {
	mu    sync.Mutex
	calls []string
	args  []map[string]interface{}
}

func (c *callLog) record(name string, args map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
	c.args = append(c.args, args)
}

func (c *callLog) names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

func (c *callLog) argsAt(i int) map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.args[i]
}

// recording returns an action that logs its call and returns result.
func (c *callLog) recording(name string, result interface{}, err error) ActionFunc {
	return func(_ context.Context, _ *Environment, args map[string]interface{}) (interface{}, error) {
		c.record(name, args)
		return result, err
	}
}

func step(id, action string, success bool) TestStep {
	return TestStep{ID: id, Action: action, Expected: TestExpectation{Success: success}}
}

func scenario(name string, steps ...TestStep) TestScenario {
	return TestScenario{Name: name, Category: CategoryAPI, Steps: steps}
}

var errBoom = fmt.Errorf("boom")
