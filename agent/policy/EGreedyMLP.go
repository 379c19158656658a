// Package policy implements action-selection policies backed by
// Gorgonia function approximation
package policy

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"

	G "gorgonia.org/gorgonia"

	"github.com/adrlab/adplace/network"
	"github.com/adrlab/adplace/utils/floatutils"
)

// EGreedyMLP implements an epsilon greedy policy over the action
// values predicted by a multi-head MLP. Given an environment with N
// actions, the network produces N outputs, each predicting the value
// of a distinct action.
//
// EGreedyMLP only populates a gorgonia.ExprGraph; an external VM runs
// the graph. To select an action for an observation obs:
//
//	Set up VM with policy's graph:  vm = NewTapeMachine(policy.Graph())
//	Set input to policy's network:  policy.SetInput(obs)
//	Predict the action values:      vm.RunAll()
//	Select an action:               action, _ = policy.SelectAction()
type EGreedyMLP struct {
	network.Network
	epsilon float64

	rng  *rand.Rand
	seed int64
}

// NewEGreedyMLP creates and returns a new EGreedyMLP policy choosing
// between actions using the values predicted by a network with the
// given architecture. With probability epsilon the policy explores
// with a uniformly random action; otherwise it returns an action of
// maximal predicted value.
func NewEGreedyMLP(epsilon float64, features, batch, actions int,
	g *G.ExprGraph, hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*network.Activation, seed int64) (*EGreedyMLP, error) {
	if epsilon < 0 || epsilon > 1 {
		return nil, fmt.Errorf("newegreedymlp: epsilon must be in [0, 1] "+
			"\n\thave(%v)", epsilon)
	}

	net, err := network.NewQMLP(features, batch, actions, g, hiddenSizes,
		biases, init, activations)
	if err != nil {
		return nil, fmt.Errorf("newegreedymlp: could not create policy "+
			"network: %v", err)
	}

	return &EGreedyMLP{
		Network: net,
		epsilon: epsilon,
		rng:     rand.New(rand.NewSource(seed)),
		seed:    seed,
	}, nil
}

// ClonePolicy clones an EGreedyMLP onto a fresh graph
func (e *EGreedyMLP) ClonePolicy() (*EGreedyMLP, error) {
	return e.ClonePolicyWithBatch(e.BatchSize())
}

// ClonePolicyWithBatch clones an EGreedyMLP onto a fresh graph with a
// new input batch size
func (e *EGreedyMLP) ClonePolicyWithBatch(batch int) (*EGreedyMLP, error) {
	net, err := e.Network.CloneWithBatch(batch)
	if err != nil {
		return nil, fmt.Errorf("clonepolicywithbatch: could not clone "+
			"policy: %v", err)
	}

	return &EGreedyMLP{
		Network: net,
		epsilon: e.epsilon,
		rng:     rand.New(rand.NewSource(e.seed)),
		seed:    e.seed,
	}, nil
}

// SetEpsilon sets the value of epsilon for the policy
func (e *EGreedyMLP) SetEpsilon(epsilon float64) {
	e.epsilon = epsilon
}

// Epsilon gets the value of epsilon for the policy
func (e *EGreedyMLP) Epsilon() float64 {
	return e.epsilon
}

// SelectAction selects an action according to the action values
// generated from the last run of the computational graph. The action
// id and its predicted value are returned.
//
// With epsilon forced to 0 the selection is the deterministic argmax
// of the predicted values; with epsilon forced to 1 it is uniform over
// the action set.
func (e *EGreedyMLP) SelectAction() (int, float64) {
	if e.Output() == nil {
		panic("selectaction: vm must be run before selecting an action")
	}

	actionValues := e.Output().Data().([]float64)

	// With probability epsilon explore with a uniformly random action
	if e.rng.Float64() < e.epsilon {
		action := e.rng.Intn(e.Outputs())
		return action, actionValues[action]
	}

	// If multiple actions share the max value, break the tie randomly
	_, maxIndices := floatutils.MaxSlice(actionValues)
	action := maxIndices[e.rng.Intn(len(maxIndices))]

	return action, actionValues[action]
}

// GobEncode implements the gob.GobEncoder interface
func (e *EGreedyMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	serializable, ok := e.Network.(gob.GobEncoder)
	if !ok {
		return nil, fmt.Errorf("gobencode: policy network not serializable")
	}
	netBytes, err := serializable.GobEncode()
	if err != nil {
		return nil, fmt.Errorf("gobencode: could not encode network: %v",
			err)
	}
	if err := enc.Encode(netBytes); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode network: %v",
			err)
	}

	if err := enc.Encode(e.epsilon); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode epsilon: %v",
			err)
	}
	if err := enc.Encode(e.seed); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode seed: %v", err)
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (e *EGreedyMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var netBytes []byte
	if err := dec.Decode(&netBytes); err != nil {
		return fmt.Errorf("gobdecode: could not decode network: %v", err)
	}
	net, err := network.DecodeQMLP(netBytes)
	if err != nil {
		return fmt.Errorf("gobdecode: could not decode network: %v", err)
	}

	if err := dec.Decode(&e.epsilon); err != nil {
		return fmt.Errorf("gobdecode: could not decode epsilon: %v", err)
	}
	if err := dec.Decode(&e.seed); err != nil {
		return fmt.Errorf("gobdecode: could not decode seed: %v", err)
	}

	e.Network = net
	e.rng = rand.New(rand.NewSource(e.seed))
	return nil
}

// Save persists the policy under a named checkpoint file
func (e *EGreedyMLP) Save(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create checkpoint file: %v", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(e); err != nil {
		return fmt.Errorf("save: could not encode policy: %v", err)
	}
	return nil
}

// Load reads a policy previously written by Save. The decoded policy
// has the same architecture, weights, and epsilon as the saved one.
func Load(filename string) (*EGreedyMLP, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("load: could not open checkpoint file: %v",
			err)
	}
	defer file.Close()

	policy := &EGreedyMLP{}
	if err := gob.NewDecoder(file).Decode(policy); err != nil {
		return nil, fmt.Errorf("load: could not decode policy: %v", err)
	}
	return policy, nil
}
