package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/aunum/log"
	"github.com/spf13/cobra"

	"github.com/adrlab/adplace/agent/policy"
	"github.com/adrlab/adplace/dataset"
	"github.com/adrlab/adplace/environment/adserver"
	"github.com/adrlab/adplace/realtime"
	"github.com/adrlab/adplace/utils/plotutils"
)

// AdjustCommand returns the command that serves a trained placement
// policy over a held-out impression stream
func AdjustCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Serve a trained policy over a held-out impression stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adjust()
		},
	}

	cmd.Flags().StringVar(&checkpoint, "checkpoint", "policy_final.bin",
		"Policy checkpoint to serve with")
	cmd.Flags().IntVar(&window, "window", 10,
		"Number of records per serving window")
	cmd.Flags().Int64Var(&streamSeed, "stream-seed", 1337,
		"Seed for the held-out impression stream")

	return cmd
}

func adjust() error {
	pol, err := policy.Load(checkpoint)
	if err != nil {
		return fmt.Errorf("adjust: could not load policy: %v", err)
	}

	actor, err := realtime.NewActor(pol)
	if err != nil {
		return fmt.Errorf("adjust: %v", err)
	}

	stream, err := dataset.Generate(rows, uint64(streamSeed))
	if err != nil {
		return fmt.Errorf("adjust: could not generate stream: %v", err)
	}

	reward, err := adserver.NewRewardModel(adserver.DefaultImpact,
		adserver.DefaultNoiseStdDev, uint64(seed))
	if err != nil {
		return fmt.Errorf("adjust: could not create reward model: %v", err)
	}

	adjuster, err := realtime.New(actor, reward, window, nil)
	if err != nil {
		return fmt.Errorf("adjust: %v", err)
	}

	rolling, err := adjuster.Run(stream)
	if err != nil {
		return fmt.Errorf("adjust: %v", err)
	}
	log.Infof("served %v windows, final rolling CTR %.4f", len(rolling),
		rolling[len(rolling)-1])

	ctrPlot := filepath.Join(savePath, "ctr.png")
	if err := plotutils.CTR(rolling, ctrPlot); err != nil {
		return fmt.Errorf("adjust: %v", err)
	}
	log.Infof("rolling CTR plot saved to %v", ctrPlot)

	return nil
}
