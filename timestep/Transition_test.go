package timestep

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestNewTransition(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0.1, 0.2})
	nextObs := mat.NewVecDense(2, []float64{0.3, 0.4})

	step := New(Mid, 0.5, 0.95, obs, 3)
	next := New(Mid, 0.7, 0.95, nextObs, 4)

	transition := NewTransition(step, 1, next)
	if transition.Action != 1 {
		t.Errorf("action %v, expected 1", transition.Action)
	}
	if transition.Reward != 0.7 {
		t.Errorf("reward %v, expected the next step's reward",
			transition.Reward)
	}
	if transition.Discount != 0.95 {
		t.Errorf("discount %v, expected 0.95", transition.Discount)
	}
	if transition.Terminal {
		t.Error("transition to a Mid step marked terminal")
	}
}

func TestNewTransitionTerminal(t *testing.T) {
	obs := mat.NewVecDense(2, []float64{0.1, 0.2})
	zero := mat.NewVecDense(2, nil)

	step := New(Mid, 0.5, 0.95, obs, 3)
	last := New(Last, 0.9, 0, zero, 4)

	transition := NewTransition(step, 2, last)
	if !transition.Terminal {
		t.Error("transition to a Last step not marked terminal")
	}

	// A terminal transition carries no discount, so targets computed as
	// r + discount * max Q(s') reduce to the reward alone
	if transition.Discount != 0 {
		t.Errorf("terminal discount %v, expected 0", transition.Discount)
	}
}
