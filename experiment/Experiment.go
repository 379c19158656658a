// Package experiment implements functionality for running a training
// experiment
package experiment

import (
	"github.com/adrlab/adplace/experiment/tracker"
	ts "github.com/adrlab/adplace/timestep"
)

// Experiment outlines structs that can run experiments. Experiments
// track environment TimeSteps, caching data about each TimeStep in RAM
// to be later saved to disk with the Save() function. The Run() method
// runs all episodes until the episode limit is reached, and
// RunEpisode() runs a single episode.
//
// Experiments use Trackers to determine which of the generated data is
// saved. Each TimeStep is sent to every registered Tracker through its
// Track() method. New Trackers can be registered through the
// constructor or through an Experiment's Register() function.
type Experiment interface {
	Run() error
	RunEpisode() (float64, error) // Returns the episodic return

	// Save all tracked data to disk
	Save()

	// Register adds a new tracker.Tracker to the (possibly already
	// running) experiment
	Register(t tracker.Tracker)

	track(ts.TimeStep)
}
