package cmd

import "github.com/spf13/cobra"

var (
	seed     int64
	rows     int
	discount float64
	savePath string

	episodes        int
	checkpointEvery int

	checkpoint string
	window     int
	streamSeed int64
)

// AddFlags registers the persistent flags shared by every subcommand
func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().Int64Var(&seed, "seed", 42,
		"Seed for dataset generation, exploration, and reward noise")
	cmd.PersistentFlags().IntVar(&rows, "rows", 1000,
		"Number of synthetic impression records to generate")
	cmd.PersistentFlags().Float64Var(&discount, "discount", 0.95,
		"Discount factor applied to bootstrapped values")
	cmd.PersistentFlags().StringVar(&savePath, "save-path", ".",
		"Directory to save checkpoints, tracked data, and plots")
}
