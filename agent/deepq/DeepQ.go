// Package deepq implements the deep Q-learning algorithm for choosing
// ad placements
package deepq

import (
	"fmt"
	"os"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/adrlab/adplace/agent/policy"
	"github.com/adrlab/adplace/environment"
	"github.com/adrlab/adplace/expreplay"
	"github.com/adrlab/adplace/spec"
	ts "github.com/adrlab/adplace/timestep"
	"github.com/adrlab/adplace/utils/floatutils"
)

// DeepQ implements deep Q-learning with experience replay and a target
// network. The MSE between the bootstrapped update target and the
// predicted value of the selected action is minimized.
//
// Three copies of the action-value network exist. The behaviour policy
// selects actions one state at a time. The train network learns
// weights over batches sampled from the replay buffer; after every
// learning step its weights are copied back into the behaviour policy.
// The target network provides the update target r + γ max Q(s', a')
// and is synchronized with the train network once per episode.
type DeepQ struct {
	behaviour   *policy.EGreedyMLP // Behaviour egreedy policy
	behaviourVM G.VM

	// Network whose weights are adapted, taking batches of inputs
	trainNet   *policy.EGreedyMLP
	trainNetVM G.VM
	solver     G.Solver

	// Network providing the update target for a batch of inputs
	targetNet   *policy.EGreedyMLP
	targetNetVM G.VM

	// nextStateActionValues is the input node in the graph of trainNet
	// that is given the action values of the next states, computed by
	// targetNet
	nextStateActionValues *G.Node
	rewards               *G.Node
	discounts             *G.Node

	// Actions taken at the previous states, as one-hot rows
	selectedActions *G.Node
	numActions      int

	replay expreplay.ExperienceReplayer

	// Exploration schedule
	epsilon      float64
	epsilonDecay float64
	minEpsilon   float64

	// Keep track of previous states and actions to add to the replay
	// buffer
	prevStep   ts.TimeStep
	prevAction int
	nextStep   ts.TimeStep

	batchSize     int
	gradientSteps int

	eval        bool // Whether or not in evaluation mode
	evalEpsilon float64
}

// New creates and returns a new DeepQ agent
func New(env environment.Environment, config Config,
	seed int64) (*DeepQ, error) {
	// Ensure environment has discrete actions enumerated from 0
	if env.ActionSpec().Cardinality != spec.Discrete {
		return nil, fmt.Errorf("deepq: cannot use non-discrete actions")
	}
	if env.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("deepq: actions must be 1-dimensional")
	}
	if env.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("deepq: actions must be enumerated " +
			"starting from 0")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	batchSize := config.BatchSize()
	numActions := int(env.ActionSpec().UpperBound.AtVec(0)) + 1
	numFeatures := env.ObservationSpec().Shape.Len()

	// Behaviour policy for selecting actions one state at a time
	g := G.NewGraph()
	behaviour, err := policy.NewEGreedyMLP(
		config.Epsilon,
		numFeatures,
		1,
		numActions,
		g,
		config.PolicyLayers,
		config.Biases,
		config.InitWFn.InitWFn(),
		config.Activations,
		seed,
	)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour policy: %v",
			err)
	}
	behaviourVM := G.NewTapeMachine(g)

	// Network which learns the weights over sampled batches
	trainNet, err := behaviour.ClonePolicyWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning network: %v",
			err)
	}
	gTrain := trainNet.Graph()

	// Network providing the update target
	targetNet, err := behaviour.ClonePolicyWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	// Create nodes to compute the update target: r + γ max[Q(s', a')].
	// The discount is stored per transition and is 0 on terminal
	// transitions, so terminal targets reduce to the reward alone.
	nextStateActionValues := G.NewMatrix(gTrain, tensor.Float64,
		G.WithShape(batchSize, numActions), G.WithName("targetActionVals"))
	rewards := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("reward"))
	discounts := G.NewVector(gTrain, tensor.Float64, G.WithShape(batchSize),
		G.WithName("discount"))

	updateTarget := G.Must(G.Max(nextStateActionValues, 1))
	updateTarget = G.Must(G.HadamardProd(updateTarget, discounts))
	updateTarget = G.Must(G.Add(updateTarget, rewards))

	// Actions selected in the previous states, needed to compute the
	// loss using the correct action value since the network outputs one
	// value per environmental action
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithName("actionSelected"),
		G.WithShape(batchSize, numActions),
	)
	selectedActionsValue := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	selectedActionsValue = G.Must(G.Sum(selectedActionsValue, 1))

	// Mean squared TD error
	losses := G.Must(G.Sub(updateTarget, selectedActionsValue))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}

	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Learnables()...),
	)

	replay, err := config.ExpReplay.Create(seed)
	if err != nil {
		return nil, fmt.Errorf("new: could not create experience replay "+
			"buffer: %v", err)
	}

	return &DeepQ{
		behaviour:             behaviour,
		behaviourVM:           behaviourVM,
		trainNet:              trainNet,
		trainNetVM:            trainNetVM,
		solver:                config.Solver.Solver,
		targetNet:             targetNet,
		targetNetVM:           targetNetVM,
		nextStateActionValues: nextStateActionValues,
		rewards:               rewards,
		discounts:             discounts,
		selectedActions:       selectedActions,
		numActions:            numActions,
		replay:                replay,
		epsilon:               config.Epsilon,
		epsilonDecay:          config.EpsilonDecay,
		minEpsilon:            config.MinEpsilon,
		batchSize:             batchSize,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DeepQ) ObserveFirst(t ts.TimeStep) {
	if !t.First() {
		fmt.Fprintf(os.Stderr, "Warning: ObserveFirst() should only be "+
			"called on the first timestep (current timestep = %d)\n",
			t.Number)
	}
	d.prevStep = ts.TimeStep{}
	d.nextStep = t
}

// Observe observes and records any timestep other than the first
// timestep
func (d *DeepQ) Observe(action int, nextStep ts.TimeStep) {
	if !d.nextStep.First() {
		transition := ts.NewTransition(d.prevStep, d.prevAction, d.nextStep)
		d.replay.Add(transition)
	}

	d.prevStep = d.nextStep
	d.nextStep = nextStep
	d.prevAction = action
}

// Step updates the weights of the agent's networks from a batch of
// transitions sampled from the replay buffer. When the buffer does not
// yet hold a full batch, no update is performed. After each update the
// exploration rate is decayed and the behaviour policy is refreshed
// with the newly learned weights.
func (d *DeepQ) Step() error {
	batch, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("step: could not sample from replay buffer: %v",
			err)
	}

	numFeatures := d.behaviour.Features()
	states := make([]float64, 0, d.batchSize*numFeatures)
	nextStates := make([]float64, 0, d.batchSize*numFeatures)
	actions := make([]float64, d.batchSize*d.numActions)
	rewards := make([]float64, d.batchSize)
	discounts := make([]float64, d.batchSize)

	for i, transition := range batch {
		states = append(states, vecData(transition.State)...)
		nextStates = append(nextStates, vecData(transition.NextState)...)
		actions[i*d.numActions+transition.Action] = 1.0
		rewards[i] = transition.Reward
		discounts[i] = transition.Discount
	}

	// Predict the action values in the next states
	if err := d.targetNet.SetInput(nextStates); err != nil {
		return fmt.Errorf("step: could not set target net input: %v", err)
	}
	if err := d.targetNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run target net: %v", err)
	}
	err = G.Let(d.nextStateActionValues, d.targetNet.Output())
	if err != nil {
		return fmt.Errorf("step: could not set next state-action "+
			"values: %v", err)
	}
	d.targetNetVM.Reset()

	if err := d.trainNet.SetInput(states); err != nil {
		return fmt.Errorf("step: could not set train net input: %v", err)
	}

	actionsTensor := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(actions),
	)
	if err := G.Let(d.selectedActions, actionsTensor); err != nil {
		return fmt.Errorf("step: could not set selected actions: %v", err)
	}

	rewardTensor := tensor.New(tensor.WithBacking(rewards),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.rewards, rewardTensor); err != nil {
		return fmt.Errorf("step: could not set rewards: %v", err)
	}

	discountTensor := tensor.New(tensor.WithBacking(discounts),
		tensor.WithShape(d.batchSize))
	if err := G.Let(d.discounts, discountTensor); err != nil {
		return fmt.Errorf("step: could not set discounts: %v", err)
	}

	// Run the learning step
	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run train net: %v", err)
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	d.trainNetVM.Reset()
	d.gradientSteps++

	// Decay the exploration rate once per learning step
	if !d.eval {
		d.epsilon = floatutils.Max(d.minEpsilon,
			d.epsilon*d.epsilonDecay)
		d.behaviour.SetEpsilon(d.epsilon)
	}

	// Refresh the behaviour policy with the newly learned weights
	if err := d.behaviour.Set(d.trainNet.Network); err != nil {
		return fmt.Errorf("step: could not update behaviour policy: %v",
			err)
	}

	return nil
}

// EndEpisode synchronizes the target network with the learned weights
func (d *DeepQ) EndEpisode() error {
	if err := d.targetNet.Set(d.trainNet.Network); err != nil {
		return fmt.Errorf("endepisode: could not sync target network: %v",
			err)
	}
	return nil
}

// SelectAction runs the behaviour policy's computational graph on the
// timestep's observation and returns the selected action id
func (d *DeepQ) SelectAction(t ts.TimeStep) int {
	if err := d.behaviour.SetInput(vecData(t.Observation)); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}

	if err := d.behaviourVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: %v", err))
	}
	action, _ := d.behaviour.SelectAction()
	d.behaviourVM.Reset()

	return action
}

// TdError calculates the TD error generated by the learner on some
// transition
func (d *DeepQ) TdError(t ts.Transition) float64 {
	if err := d.behaviour.SetInput(vecData(t.State)); err != nil {
		panic(fmt.Sprintf("tderror: %v", err))
	}
	d.behaviourVM.RunAll()
	actionValue := d.behaviour.Output().Data().([]float64)[t.Action]
	d.behaviourVM.Reset()

	if err := d.behaviour.SetInput(vecData(t.NextState)); err != nil {
		panic(fmt.Sprintf("tderror: %v", err))
	}
	d.behaviourVM.RunAll()
	nextValue, _ := floatutils.MaxSlice(
		d.behaviour.Output().Data().([]float64))
	d.behaviourVM.Reset()

	return t.Reward + t.Discount*nextValue - actionValue
}

// Epsilon returns the current exploration rate of the behaviour policy
func (d *DeepQ) Epsilon() float64 {
	return d.behaviour.Epsilon()
}

// Eval sets the agent into evaluation mode, where action selection is
// the greedy argmax over predicted values
func (d *DeepQ) Eval() {
	if d.eval {
		return
	}
	d.eval = true
	d.evalEpsilon = d.behaviour.Epsilon()
	d.behaviour.SetEpsilon(0.0)
}

// Train sets the agent into training mode, restoring the exploration
// rate in effect when Eval was called
func (d *DeepQ) Train() {
	if !d.eval {
		return
	}
	d.eval = false
	d.behaviour.SetEpsilon(d.evalEpsilon)
}

// IsEval returns whether the agent is in evaluation mode
func (d *DeepQ) IsEval() bool {
	return d.eval
}

// Save persists the behaviour policy under a named checkpoint file.
// The saved policy can be reloaded with policy.Load.
func (d *DeepQ) Save(filename string) error {
	return d.behaviour.Save(filename)
}

// vecData returns the backing data of a vector
func vecData(v mat.Vector) []float64 {
	if dense, ok := v.(*mat.VecDense); ok {
		return dense.RawVector().Data
	}

	data := make([]float64, v.Len())
	for i := range data {
		data[i] = v.AtVec(i)
	}
	return data
}
