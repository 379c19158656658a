package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/aunum/log"
	"github.com/spf13/cobra"

	"github.com/adrlab/adplace/agent/deepq"
	"github.com/adrlab/adplace/dataset"
	"github.com/adrlab/adplace/environment/adserver"
	"github.com/adrlab/adplace/experiment"
	"github.com/adrlab/adplace/experiment/checkpointer"
	"github.com/adrlab/adplace/experiment/tracker"
	"github.com/adrlab/adplace/utils/plotutils"
)

// TrainCommand returns the command that trains a placement policy on a
// synthetic impression dataset
func TrainCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a deep Q-learning placement policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return train()
		},
	}

	cmd.Flags().IntVar(&episodes, "episodes", 50,
		"Number of training episodes")
	cmd.Flags().IntVar(&checkpointEvery, "checkpoint-every", 10,
		"Episodes between policy checkpoints")

	return cmd
}

func train() error {
	table, err := dataset.Generate(rows, uint64(seed))
	if err != nil {
		return fmt.Errorf("train: could not generate dataset: %v", err)
	}

	env, _, err := adserver.New(table, adserver.NewConfig(discount),
		uint64(seed))
	if err != nil {
		return fmt.Errorf("train: could not create environment: %v", err)
	}

	config, err := deepq.NewDefaultConfig()
	if err != nil {
		return fmt.Errorf("train: could not configure agent: %v", err)
	}

	agent, err := deepq.New(env, config, seed)
	if err != nil {
		return fmt.Errorf("train: could not create agent: %v", err)
	}

	// Approximate step budget per episode
	maxEpisodeSteps := env.Len() / config.BatchSize()
	if maxEpisodeSteps < 1 {
		maxEpisodeSteps = 1
	}

	returnsFile := filepath.Join(savePath, "returns.bin")
	trackers := []tracker.Tracker{
		tracker.NewReturn(returnsFile),
		tracker.NewEpisodeLength(filepath.Join(savePath, "lengths.bin")),
	}
	checkpointers := []checkpointer.Checkpointer{
		checkpointer.NewNEpisode(checkpointEvery, agent,
			checkpointer.FilenameEnumerator(0,
				filepath.Join(savePath, "policy"), "bin")),
	}

	log.Infof("training for %v episodes of at most %v steps", episodes,
		maxEpisodeSteps)

	exp := experiment.NewOnline(env, agent, episodes, maxEpisodeSteps,
		trackers, checkpointers)
	if err := exp.Run(); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	exp.Save()

	finalPolicy := filepath.Join(savePath, "policy_final.bin")
	if err := agent.Save(finalPolicy); err != nil {
		return fmt.Errorf("train: could not save final policy: %v", err)
	}
	log.Infof("final policy saved to %v", finalPolicy)

	returns, err := tracker.LoadData(returnsFile)
	if err != nil {
		return fmt.Errorf("train: could not load tracked returns: %v", err)
	}
	rewardsPlot := filepath.Join(savePath, "rewards.png")
	if err := plotutils.Rewards(returns, rewardsPlot); err != nil {
		return fmt.Errorf("train: %v", err)
	}
	log.Infof("training progress plot saved to %v", rewardsPlot)

	return nil
}
