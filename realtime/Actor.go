package realtime

import (
	"fmt"

	G "gorgonia.org/gorgonia"

	"github.com/adrlab/adplace/agent/policy"
	ts "github.com/adrlab/adplace/timestep"
)

// Actor adapts a checkpointed placement policy into an agent.Policy
// serving one record at a time. The policy is used with whatever
// exploration rate it was saved with, so a policy checkpointed late in
// training serves near-greedily.
type Actor struct {
	policy *policy.EGreedyMLP
	vm     G.VM
	eval   bool

	evalEpsilon float64
}

// NewActor creates and returns a new Actor serving with a loaded
// policy
func NewActor(p *policy.EGreedyMLP) (*Actor, error) {
	if p.BatchSize() != 1 {
		return nil, fmt.Errorf("newactor: policy must serve one record "+
			"at a time \n\twant(batch size 1) \n\thave(%v)", p.BatchSize())
	}

	return &Actor{
		policy: p,
		vm:     G.NewTapeMachine(p.Graph()),
	}, nil
}

// SelectAction runs the policy's computational graph on the timestep's
// observation and returns the selected action id
func (a *Actor) SelectAction(t ts.TimeStep) int {
	obs := make([]float64, t.Observation.Len())
	for i := range obs {
		obs[i] = t.Observation.AtVec(i)
	}

	if err := a.policy.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	if err := a.vm.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	action, _ := a.policy.SelectAction()
	a.vm.Reset()

	return action
}

// Eval sets the Actor into evaluation mode, serving greedily
func (a *Actor) Eval() {
	if a.eval {
		return
	}
	a.eval = true
	a.evalEpsilon = a.policy.Epsilon()
	a.policy.SetEpsilon(0.0)
}

// Train restores the exploration rate in effect when Eval was called
func (a *Actor) Train() {
	if !a.eval {
		return
	}
	a.eval = false
	a.policy.SetEpsilon(a.evalEpsilon)
}

// IsEval returns whether the Actor is in evaluation mode
func (a *Actor) IsEval() bool {
	return a.eval
}
