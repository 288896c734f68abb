package testing

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"boardcheck/internal/capture"
	"boardcheck/internal/config"
	"boardcheck/internal/trello"
)

// MaxParallel caps the number of scenario workers.
const MaxParallel = 50

// DefaultTestConfiguration returns a default test configuration
func DefaultTestConfiguration() TestConfiguration {
	return TestConfiguration{
		Timeout:      10 * time.Minute,
		Parallel:     1,
		ReportFormat: ReportFormatJSON,
	}
}

// TestFramework holds all components needed for testing
type TestFramework struct {
	Runner       TestRunner
	Loader       TestScenarioLoader
	Reporter     TestReporter
	Logger       TestLogger
	Environments EnvironmentFactory
	Capturer     *capture.Capturer
}

// FrameworkOptions configures NewTestFramework.
type FrameworkOptions struct {
	Mode    ExecutionMode
	Verbose bool
	Debug   bool
	// Quiet prints failures and a summary line only
	Quiet bool
	// JSON prints one JSON document at the end instead of progress
	JSON         bool
	ReportPath   string
	ReportFormat ReportFormat
	// ScreenshotsDir overrides screenshots.dir from the configuration
	ScreenshotsDir string
	Out            io.Writer

	Config *config.Config
	// Boards replaces the REST client built from Config
	Boards BoardAPI
	// Environments replaces the default per-scenario environment factory
	Environments EnvironmentFactory
	HTTPClient   *http.Client
}

// NewBoardClient builds the REST client from the trello.* keys of cfg.
func NewBoardClient(cfg *config.Config, httpClient *http.Client) (*trello.Client, error) {
	creds := trello.Credentials{
		Key:   cfg.GetOr(config.KeyAPIKey, ""),
		Token: cfg.GetOr(config.KeyToken, ""),
	}
	var opts []trello.ClientOption
	if httpClient != nil {
		opts = append(opts, trello.WithHTTPClient(httpClient))
	}
	return trello.NewClient(cfg.GetOr(config.KeyBaseURL, ""), creds, opts...)
}

// NewTestFramework creates a fully configured test framework. The mode
// picks the logger and reporter: CLI runs print progress, embedded runs
// collect results silently.
func NewTestFramework(opts FrameworkOptions) (*TestFramework, error) {
	var logger TestLogger
	switch opts.Mode {
	case ExecutionModeEmbedded:
		logger = NewSilentLogger(opts.Verbose, opts.Debug)
	default:
		logger = NewStdoutLogger(opts.Verbose, opts.Debug)
	}

	envs := opts.Environments
	if envs == nil {
		if opts.Config == nil {
			return nil, fmt.Errorf("a configuration is required to build scenario environments")
		}
		boards := opts.Boards
		if boards == nil {
			client, err := NewBoardClient(opts.Config, opts.HTTPClient)
			if err != nil {
				return nil, fmt.Errorf("failed to create board client: %w", err)
			}
			boards = client
		}
		envs = NewEnvironmentFactory(opts.Config, boards)
	}

	dir := opts.ScreenshotsDir
	if dir == "" && opts.Config != nil {
		dir = opts.Config.GetOr(config.KeyScreenshotsDir, capture.DefaultDir)
	}
	capturer := capture.New(dir)

	loader := NewTestScenarioLoaderWithLogger(opts.Debug, logger)

	var reporter TestReporter
	switch {
	case opts.Mode == ExecutionModeEmbedded:
		reporter = NewStructuredReporter(opts.Verbose, opts.Debug)
	case opts.JSON:
		reporter = NewJSONReporter(opts.Out)
	case opts.Quiet:
		reporter = NewQuietReporter(opts.Out)
	default:
		reporter = NewTestReporter(opts.Out, opts.Verbose, opts.Debug, opts.ReportPath, opts.ReportFormat)
	}

	runner := NewTestRunnerWithLogger(envs, loader, reporter, capturer, opts.Debug, logger)

	return &TestFramework{
		Runner:       runner,
		Loader:       loader,
		Reporter:     reporter,
		Logger:       logger,
		Environments: envs,
		Capturer:     capturer,
	}, nil
}

// ValidateConfiguration validates a test configuration
func ValidateConfiguration(config TestConfiguration) error {
	if config.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if config.Parallel < 1 || config.Parallel > MaxParallel {
		return fmt.Errorf("parallel workers must be between 1 and %d", MaxParallel)
	}

	if config.Category != "" && !isValidCategory(config.Category) {
		return fmt.Errorf("unknown category %q (valid: %v)", config.Category, ValidCategories)
	}

	switch config.ReportFormat {
	case "", ReportFormatJSON, ReportFormatYAML:
	default:
		return fmt.Errorf("unknown report format %q (valid: json, yaml)", config.ReportFormat)
	}

	return nil
}
