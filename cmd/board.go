package cmd

import (
	"boardcheck/internal/cli"
	"boardcheck/internal/config"
	"boardcheck/internal/testing"

	"github.com/spf13/cobra"
)

var boardFlags cli.CommandFlags

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Run single board operations against the REST API",
	Long: `Create, read, rename, delete and probe boards with the credentials from
the settings file. Useful for preparing data by hand or cleaning up boards
left behind by an interrupted run.

Examples:
  boardcheck board create "Release plan"
  boardcheck board get 5f1b2c3d4e5f6a7b8c9d0e1f -o json
  boardcheck board rename 5f1b2c3d4e5f6a7b8c9d0e1f "Release plan v2"
  boardcheck board delete 5f1b2c3d4e5f6a7b8c9d0e1f
  boardcheck board status 5f1b2c3d4e5f6a7b8c9d0e1f`,
}

var boardCreateCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a board (default name PinAppBoard-<millis>)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		exec, err := newBoardExecutor(cmd)
		if err != nil {
			return err
		}
		return exec.Create(cmd.Context(), name)
	},
}

var boardGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, err := newBoardExecutor(cmd)
		if err != nil {
			return err
		}
		return exec.Get(cmd.Context(), args[0])
	},
}

var boardRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a board",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, err := newBoardExecutor(cmd)
		if err != nil {
			return err
		}
		return exec.Rename(cmd.Context(), args[0], args[1])
	},
}

var boardDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, err := newBoardExecutor(cmd)
		if err != nil {
			return err
		}
		return exec.Delete(cmd.Context(), args[0])
	},
}

var boardStatusCmd = &cobra.Command{
	Use:   "status <id>",
	Short: "Print the HTTP status of reading a board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exec, err := newBoardExecutor(cmd)
		if err != nil {
			return err
		}
		return exec.Status(cmd.Context(), args[0])
	},
}

func init() {
	cli.RegisterCommonFlags(boardCmd, &boardFlags)

	boardCmd.AddCommand(boardCreateCmd, boardGetCmd, boardRenameCmd, boardDeleteCmd, boardStatusCmd)
	rootCmd.AddCommand(boardCmd)
}

// newBoardExecutor loads the settings and builds the REST client for cmd.
func newBoardExecutor(cmd *cobra.Command) (*cli.BoardExecutor, error) {
	options, err := boardFlags.ToExecutorOptions()
	if err != nil {
		return nil, err
	}

	settings, err := loadSettings("")
	if err != nil {
		return nil, err
	}

	client, err := testing.NewBoardClient(settings, nil)
	if err != nil {
		return nil, &config.ConfigurationError{
			FilePath:  settings.Path(),
			ErrorType: config.ErrorTypeValue,
			Key:       config.KeyBaseURL,
			Message:   err.Error(),
			Err:       err,
		}
	}
	options.Endpoint = settings.GetOr(config.KeyBaseURL, "")

	return cli.NewBoardExecutor(client, options, cmd.OutOrStdout(), cmd.ErrOrStderr()), nil
}
