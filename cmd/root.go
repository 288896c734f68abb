package cmd

import (
	"errors"
	"fmt"
	"os"

	"boardcheck/internal/config"
	"boardcheck/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates failed scenarios or a failed command.
	ExitCodeError = 1
	// ExitCodeConfigError indicates the settings could not be resolved.
	ExitCodeConfigError = 2
)

var (
	settingsPath string
	envFilePath  string
	logLevel     string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "boardcheck",
	Short: "Verify Trello boards across the REST API, the web app and the Android app",
	Long: `boardcheck drives the Trello REST API, a browser session and an Appium
session against the same account and checks that what one channel creates
the others can see.

Settings are read from boardcheck.yaml (or --config). When the CI
environment variable is true, TRELLO_KEY style environment variables
override the file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
		return nil
	},
}

// SetVersion sets the version for the root command.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a semantic code on error.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "boardcheck version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			fmt.Fprintln(os.Stderr, cfgErr.DetailedError())
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode maps an error to the process exit code.
func getExitCode(err error) int {
	var cfgErr *config.ConfigurationError
	if errors.As(err, &cfgErr) {
		return ExitCodeConfigError
	}
	return ExitCodeError
}

// loadSettings resolves the settings file shared by all subcommands.
func loadSettings(browserOverride string) (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{
		Path:            settingsPath,
		EnvFile:         envFilePath,
		BrowserOverride: browserOverride,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	logging.Debug("CLI", "Settings loaded from %s (CI overrides: %t)", cfg.Path(), cfg.CIMode())
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "Settings file (default: "+config.DefaultFileName+")")
	rootCmd.PersistentFlags().StringVar(&envFilePath, "env-file", "", "Optional .env file loaded before the settings are resolved")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level for diagnostics on stderr (debug, info, warn, error)")

	rootCmd.AddCommand(newVersionCmd())
}
