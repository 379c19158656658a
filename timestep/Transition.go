package timestep

import "gonum.org/v1/gonum/mat"

// Transition is a single (s, a, r, s') tuple recorded from the
// agent-environment interaction. Transitions are immutable once
// created and live until evicted from an experience replay buffer.
//
// The Discount field is the discount to apply when bootstrapping past
// NextState. Terminal transitions carry a discount of 0, so a learning
// target of r + discount * max Q(s') handles terminal and non-terminal
// transitions uniformly.
type Transition struct {
	State    mat.Vector
	Action   int
	Reward   float64
	Discount float64

	NextState mat.Vector
	Terminal  bool
}

// NewTransition creates a Transition from two adjacent timesteps and
// the action that led from the first to the second.
func NewTransition(step TimeStep, action int, next TimeStep) Transition {
	return Transition{
		State:     step.Observation,
		Action:    action,
		Reward:    next.Reward,
		Discount:  next.Discount,
		NextState: next.Observation,
		Terminal:  next.Last(),
	}
}
