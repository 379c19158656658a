// Package environment outlines the interfaces needed to implement
// concrete environments
package environment

import (
	"github.com/adrlab/adplace/spec"
	"github.com/adrlab/adplace/timestep"
)

// Environment implements a simulated environment with discrete
// actions. An Environment starts ready to use and is reset between
// episodes.
type Environment interface {
	// Reset restarts the environment and returns the first timestep
	// of the new episode
	Reset() timestep.TimeStep

	// Step takes one environmental step given a discrete action id and
	// returns the next timestep and whether the episode has ended
	Step(action int) (timestep.TimeStep, bool)

	ObservationSpec() spec.Environment
	ActionSpec() spec.Environment
	RewardSpec() spec.Environment
	DiscountSpec() spec.Environment
}
