package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of boardcheck",
		Long:  `Print the build version of boardcheck, as injected with -ldflags.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "boardcheck version %s\n", rootCmd.Version)
		},
	}
}
