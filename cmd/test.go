package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"boardcheck/internal/cli"
	"boardcheck/internal/testing"
	"boardcheck/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	testTimeout       time.Duration
	testVerbose       bool
	testDebug         bool
	testQuiet         bool
	testJSON          bool
	testCategory      string
	testTag           string
	testScenario      string
	testScenariosPath string
	testBrowser       string
	testReportPath    string
	testReportFormat  string
	testFailFast      bool
	testParallel      int
	testScreenshots   string
	testWatch         bool
	testValidate      bool
)

// SuiteFailedError is returned when a run finished with failed or errored
// scenarios.
type SuiteFailedError struct {
	Failed int
	Total  int
}

func (e *SuiteFailedError) Error() string {
	return fmt.Sprintf("%d of %d scenarios failed", e.Failed, e.Total)
}

// completeCategoryFlag provides shell completion for the category flag
func completeCategoryFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var out []string
	for _, c := range testing.ValidCategories {
		out = append(out, string(c))
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// completeScenarioFlag completes scenario names from the selected scenario set
func completeScenarioFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var names []string
	for _, scenario := range testing.LoadScenariosForCompletion(testScenariosPath) {
		names = append(names, scenario.Name)
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}

// completeTagFlag completes the tags used by the selected scenario set
func completeTagFlag(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return testing.ScenarioTags(testing.LoadScenariosForCompletion(testScenariosPath)), cobra.ShellCompDirectiveNoFileComp
}

func newTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Run the board verification scenarios",
		Long: `The test command runs YAML scenarios against the Trello REST API, a web
browser session and an Android (Appium) session.

Each scenario gets its own sessions. The channels a scenario lists are
started before its steps and quit after its cleanup steps. When a scenario
fails, a screenshot of the active session is saved before the sessions are
closed.

Without --scenarios, the built-in scenarios are used:
  api          board lifecycle, rename and error statuses
  web          sign-in, board visibility and rejected credentials
  mobile       app start and login screen
  integration  a board created over the API, then checked on web and mobile

Example usage:
  boardcheck test                               # Run all built-in scenarios
  boardcheck test --category=api                # REST scenarios only
  boardcheck test --tag=smoke                   # Scenarios tagged smoke
  boardcheck test --scenario=web-board-visible  # One scenario
  boardcheck test --browser=firefox             # Override the configured browser
  boardcheck test --parallel=4 --fail-fast      # Four workers, stop on first failure
  boardcheck test --scenarios=./qa --watch      # Re-run when ./qa changes
  boardcheck test --validate                    # Check scenario arguments only
  boardcheck test --report=reports --report-format=yaml

Exit codes: 0 when every scenario passed, 1 when any failed, 2 when the
settings could not be loaded.`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if testParallel < 1 || testParallel > testing.MaxParallel {
				return fmt.Errorf("parallel workers must be between 1 and %d, got %d", testing.MaxParallel, testParallel)
			}
			if testWatch && testScenariosPath == "" {
				return fmt.Errorf("--watch needs --scenarios pointing at a file or directory")
			}
			if testDebug {
				logging.InitForCLI(logging.LevelDebug, cmd.ErrOrStderr())
			}
			return nil
		},
		RunE: runTest,
	}

	cmd.Flags().DurationVar(&testTimeout, "timeout", 10*time.Minute, "Overall test execution timeout")

	cmd.Flags().BoolVar(&testVerbose, "verbose", false, "Print every step with its arguments and response")
	cmd.Flags().BoolVar(&testDebug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&testQuiet, "quiet", false, "Print failures and a summary line only")
	cmd.Flags().BoolVar(&testJSON, "json", false, "Print the results as one JSON document")

	cmd.Flags().StringVar(&testCategory, "category", "", "Run scenarios of one category (api, web, mobile, integration)")
	cmd.Flags().StringVar(&testTag, "tag", "", "Run scenarios carrying this tag")
	cmd.Flags().StringVar(&testScenario, "scenario", "", "Run one scenario by name")
	cmd.Flags().StringVar(&testScenariosPath, "scenarios", "", "Scenario file or directory (default: built-in scenarios)")
	cmd.Flags().StringVar(&testBrowser, "browser", "", "Browser for web sessions, overriding settings and scenarios (chrome, firefox, edge)")

	cmd.Flags().StringVar(&testReportPath, "report", "", "Directory for a detailed report file")
	cmd.Flags().StringVar(&testReportFormat, "report-format", string(testing.ReportFormatJSON), "Detailed report format (json, yaml)")
	cmd.Flags().StringVar(&testScreenshots, "screenshots", "", "Directory for failure screenshots (default: screenshots.dir setting)")

	cmd.Flags().BoolVar(&testFailFast, "fail-fast", false, "Stop after the first failed scenario")
	cmd.Flags().IntVar(&testParallel, "parallel", 1, fmt.Sprintf("Number of parallel scenario workers (1-%d)", testing.MaxParallel))
	cmd.Flags().BoolVar(&testWatch, "watch", false, "Re-run when scenario files change")
	cmd.Flags().BoolVar(&testValidate, "validate", false, "Validate scenario arguments without running anything")

	_ = cmd.RegisterFlagCompletionFunc("category", completeCategoryFlag)
	_ = cmd.RegisterFlagCompletionFunc("scenario", completeScenarioFlag)
	_ = cmd.RegisterFlagCompletionFunc("tag", completeTagFlag)

	cmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
	cmd.MarkFlagsMutuallyExclusive("json", "verbose")

	return cmd
}

func init() {
	rootCmd.AddCommand(newTestCmd())
}

// testConfiguration builds the run configuration from the flags.
func testConfiguration() testing.TestConfiguration {
	return testing.TestConfiguration{
		Timeout:      testTimeout,
		Category:     testing.TestCategory(testCategory),
		Tag:          testTag,
		Scenario:     testScenario,
		Parallel:     testParallel,
		FailFast:     testFailFast,
		Verbose:      testVerbose,
		Debug:        testDebug,
		ConfigPath:   testScenariosPath,
		ReportPath:   testReportPath,
		ReportFormat: testing.ReportFormat(testReportFormat),
		Browser:      testBrowser,
	}
}

func runTest(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(cmd.ErrOrStderr(), "\nReceived interrupt signal, stopping tests gracefully...")
			cancel()
		case <-ctx.Done():
		}
	}()

	testConfig := testConfiguration()

	if testValidate {
		return runScenarioValidation(cmd, testConfig)
	}

	if err := testing.ValidateConfiguration(testConfig); err != nil {
		return err
	}

	settings, err := loadSettings(testBrowser)
	if err != nil {
		return err
	}

	framework, err := testing.NewTestFramework(testing.FrameworkOptions{
		Mode:           testing.ExecutionModeCLI,
		Verbose:        testVerbose,
		Debug:          testDebug,
		Quiet:          testQuiet,
		JSON:           testJSON,
		ReportPath:     testReportPath,
		ReportFormat:   testConfig.ReportFormat,
		ScreenshotsDir: testScreenshots,
		Out:            cmd.OutOrStdout(),
		Config:         settings,
	})
	if err != nil {
		return fmt.Errorf("failed to create test framework: %w", err)
	}

	runErr := runSuite(ctx, cmd, framework, testConfig)
	if !testWatch {
		return runErr
	}

	watcher := testing.NewScenarioWatcher(testScenariosPath, testing.DefaultWatchDebounce)
	fmt.Fprintf(cmd.OutOrStdout(), "\n👀 Watching %s for changes (Ctrl+C to stop)\n", testScenariosPath)
	return watchSuite(ctx, cmd, watcher, runErr, func(ctx context.Context) error {
		return runSuite(ctx, cmd, framework, testConfig)
	})
}

type suiteWatcher interface {
	Watch(ctx context.Context, onChange func(context.Context)) error
}

// watchSuite re-runs the suite on every change and, once watching stops,
// returns the error of the most recent run.
func watchSuite(ctx context.Context, cmd *cobra.Command, w suiteWatcher, lastErr error, run func(context.Context) error) error {
	if lastErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(lastErr))
	}
	err := w.Watch(ctx, func(ctx context.Context) {
		fmt.Fprintf(cmd.OutOrStdout(), "\n🔄 Scenario change detected, re-running\n")
		lastErr = run(ctx)
		if lastErr != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), cli.FormatError(lastErr))
		}
	})
	if err != nil {
		return err
	}
	return lastErr
}

// runSuite loads the scenarios and runs them once.
func runSuite(ctx context.Context, cmd *cobra.Command, framework *testing.TestFramework, testConfig testing.TestConfiguration) error {
	scenarios, err := framework.Loader.LoadScenarios(testConfig.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load test scenarios: %w", err)
	}

	if len(scenarios) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No test scenarios found in "+scenarioSource(testConfig.ConfigPath)))
		return nil
	}

	result, err := framework.Runner.Run(ctx, testConfig, scenarios)
	if err != nil {
		return fmt.Errorf("test execution failed: %w", err)
	}

	if !result.Succeeded() {
		return &SuiteFailedError{
			Failed: result.FailedScenarios + result.ErrorScenarios,
			Total:  result.TotalScenarios,
		}
	}
	return nil
}

func scenarioSource(path string) string {
	if path == "" {
		return "the built-in scenarios"
	}
	return path
}

// runScenarioValidation checks step arguments of the selected scenarios
func runScenarioValidation(cmd *cobra.Command, testConfig testing.TestConfiguration) error {
	logger := testing.NewWriterLogger(testVerbose, testDebug, cmd.OutOrStdout(), cmd.ErrOrStderr())

	scenarios, err := testing.LoadAndFilterScenarios(testConfig.ConfigPath, testConfig, logger)
	if err != nil {
		return fmt.Errorf("failed to load test scenarios: %w", err)
	}

	if len(scenarios) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), cli.FormatWarning("No test scenarios matched"))
		return nil
	}

	results := testing.ValidateScenarioArgs(scenarios)
	fmt.Fprint(cmd.OutOrStdout(), testing.FormatValidationResults(results, testVerbose))

	if results.TotalErrors > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\n❌ Validation failed with %d errors\n", results.TotalErrors)
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("All scenarios passed validation!"))
	return nil
}
