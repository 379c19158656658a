// Package cmd implements the command line interface for training and
// serving ad placement policies
package cmd

import "github.com/spf13/cobra"

// RootCommand returns the root command of the ad placement CLI
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adplace",
		Short: "Train and serve deep Q-learning ad placement policies",
	}
	AddFlags(cmd)

	cmd.AddCommand(
		TrainCommand(),
		AdjustCommand(),
	)

	return cmd
}
