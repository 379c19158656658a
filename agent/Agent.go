// Package agent defines an agent interface
package agent

import (
	"github.com/adrlab/adplace/timestep"
)

// Agent determines the implementation details of an agent or
// algorithm.
//
// An Agent is composed of a Learner, which learns weights, and a
// Policy which chooses actions in each state. The Policy chooses which
// actions are taken, and the Learner uses these actions to update the
// Policy.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights
// are updated.
type Learner interface {
	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep)

	// Observe records that an action led to some timestep
	Observe(action int, next timestep.TimeStep)

	// Step performs a single update to the learner
	Step() error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode() error
}

// Policy represents a policy that an agent can have. Policies
// determine how agents select actions.
type Policy interface {
	// SelectAction returns a discrete action id for the timestep's
	// observation
	SelectAction(t timestep.TimeStep) int

	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// EGreedyPolicy is a Policy whose exploration rate can be set and
// retrieved
type EGreedyPolicy interface {
	Policy
	SetEpsilon(float64)
	Epsilon() float64
}

// Saver is an agent that can persist its learned approximator under a
// named checkpoint, reloadable into an approximator of identical
// architecture.
type Saver interface {
	Agent
	Save(filename string) error
}
