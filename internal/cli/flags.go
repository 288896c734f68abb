package cli

import (
	"boardcheck/internal/formatting"

	"github.com/spf13/cobra"
)

// CommandFlags holds the flag values shared by the board subcommands.
type CommandFlags struct {
	// OutputFormat is one of table, console, json, yaml
	OutputFormat string
	// Quiet suppresses the spinner and decorations
	Quiet bool
}

// RegisterCommonFlags registers --output/-o and --quiet/-q as persistent
// flags of cmd.
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVarP(&flags.OutputFormat, "output", "o", string(formatting.FormatTable), "Output format (table, console, json, yaml)")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress progress indicators")
}

// ToExecutorOptions validates the flags and converts them for NewBoardExecutor.
func (f *CommandFlags) ToExecutorOptions() (ExecutorOptions, error) {
	format, err := formatting.ParseFormat(f.OutputFormat)
	if err != nil {
		return ExecutorOptions{}, err
	}
	return ExecutorOptions{
		Format: format,
		Quiet:  f.Quiet,
	}, nil
}
