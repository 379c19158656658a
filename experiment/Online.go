package experiment

import (
	"fmt"

	"github.com/aunum/log"
	"github.com/gosuri/uilive"

	"github.com/adrlab/adplace/agent"
	env "github.com/adrlab/adplace/environment"
	"github.com/adrlab/adplace/experiment/checkpointer"
	"github.com/adrlab/adplace/experiment/tracker"
	ts "github.com/adrlab/adplace/timestep"
)

// Online is an Experiment that trains an agent online. Training runs
// for a fixed number of episodes, each episode bounded by a step
// budget. The agent learns after every environmental step, and
// episodic cleanup is delegated to the agent's EndEpisode at every
// episode boundary.
type Online struct {
	env.Environment
	agent.Agent

	episodes        int // Number of episodes to run
	maxEpisodeSteps int // Step budget per episode
	currentEpisode  int

	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer

	progress *uilive.Writer
}

// NewOnline creates and returns a new online experiment of an agent on
// a given environment. The episodes parameter determines how many
// episodes are run, and maxEpisodeSteps bounds the number of
// environmental steps per episode. Trackers determine which generated
// data is saved, and checkpointers persist the agent during training.
func NewOnline(e env.Environment, a agent.Agent, episodes,
	maxEpisodeSteps int, t []tracker.Tracker,
	c []checkpointer.Checkpointer) *Online {
	return &Online{
		Environment:     e,
		Agent:           a,
		episodes:        episodes,
		maxEpisodeSteps: maxEpisodeSteps,
		trackers:        t,
		checkpointers:   c,
	}
}

// Register registers a tracker.Tracker with the experiment so that
// data generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment and returns the
// episodic return
func (o *Online) RunEpisode() (float64, error) {
	step := o.Environment.Reset()
	o.Agent.ObserveFirst(step)
	o.track(step)

	var episodeReturn float64
	for i := 0; i < o.maxEpisodeSteps && !step.Last(); i++ {
		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		step, _ = o.Environment.Step(action)
		episodeReturn += step.Reward

		o.track(step)

		// Observe the timestep and learn
		o.Agent.Observe(action, step)
		if err := o.Agent.Step(); err != nil {
			return episodeReturn, fmt.Errorf("runepisode: could not "+
				"update agent: %v", err)
		}
	}

	// Trackers accumulate per-episode data keyed on Last timesteps, so
	// an episode cut off by the step budget is closed out explicitly
	if !step.Last() {
		o.track(ts.New(ts.Last, 0, step.Discount, step.Observation,
			step.Number+1))
	}

	if err := o.Agent.EndEpisode(); err != nil {
		return episodeReturn, fmt.Errorf("runepisode: could not end "+
			"episode: %v", err)
	}

	o.currentEpisode++
	return episodeReturn, o.checkpoint()
}

// Run runs the entire experiment for all episodes, logging the return
// and exploration rate after each episode
func (o *Online) Run() error {
	o.progress = uilive.New()
	o.progress.Start()
	defer o.progress.Stop()

	for o.currentEpisode < o.episodes {
		episodeReturn, err := o.RunEpisode()
		if err != nil {
			return fmt.Errorf("run: episode %v: %v", o.currentEpisode, err)
		}

		fmt.Fprintf(o.progress, "episode %v/%v \t return: %.4f%v\n",
			o.currentEpisode, o.episodes, episodeReturn, o.epsilonSuffix())
	}

	log.Infof("training finished after %v episodes", o.currentEpisode)
	return nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// track tracks the current timestep by caching its data in each tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}

// checkpoint persists the agent with every registered checkpointer
func (o *Online) checkpoint() error {
	for _, c := range o.checkpointers {
		if err := c.Checkpoint(); err != nil {
			return fmt.Errorf("checkpoint: %v", err)
		}
	}
	return nil
}

// epsilonSuffix renders the agent's exploration rate when the agent
// exposes one
func (o *Online) epsilonSuffix() string {
	explorer, ok := o.Agent.(interface{ Epsilon() float64 })
	if !ok {
		return ""
	}
	return fmt.Sprintf(" \t ε: %.4f", explorer.Epsilon())
}
