package deepq

import (
	"fmt"

	"github.com/adrlab/adplace/expreplay"
	"github.com/adrlab/adplace/initwfn"
	"github.com/adrlab/adplace/network"
	"github.com/adrlab/adplace/solver"
)

// Default hyperparameters of the DeepQ agent
const (
	DefaultEpsilon      float64 = 1.0
	DefaultEpsilonDecay float64 = 0.995
	DefaultMinEpsilon   float64 = 0.01

	DefaultBatchSize      int = 32
	DefaultReplayCapacity int = 2000

	DefaultStepSize float64 = 0.001
)

// Config implements a configuration for a DeepQ agent
type Config struct {
	PolicyLayers []int                 // Layer sizes in neural net
	Biases       []bool                // Whether each layer has a bias
	Activations  []*network.Activation // Activation of each layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	// Exploration schedule. Epsilon is the initial exploration rate;
	// after every learning step it is multiplied by EpsilonDecay,
	// floored at MinEpsilon.
	Epsilon      float64
	EpsilonDecay float64
	MinEpsilon   float64

	// Experience replay parameters
	ExpReplay expreplay.Config
}

// NewDefaultConfig returns the default configuration of a DeepQ agent:
// two ReLU hidden layers of 64 and 32 units, Adam, Glorot uniform
// initialization, and an exploration rate decaying from 1 to 0.01.
func NewDefaultConfig() (Config, error) {
	sol, err := solver.NewDefaultAdam(DefaultStepSize, DefaultBatchSize)
	if err != nil {
		return Config{}, fmt.Errorf("newdefaultconfig: %v", err)
	}

	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return Config{}, fmt.Errorf("newdefaultconfig: %v", err)
	}

	return Config{
		PolicyLayers: []int{64, 32},
		Biases:       []bool{true, true},
		Activations:  []*network.Activation{network.ReLU(), network.ReLU()},
		Solver:       sol,
		InitWFn:      init,
		Epsilon:      DefaultEpsilon,
		EpsilonDecay: DefaultEpsilonDecay,
		MinEpsilon:   DefaultMinEpsilon,
		ExpReplay: expreplay.Config{
			BatchSize:   DefaultBatchSize,
			MinCapacity: DefaultBatchSize,
			MaxCapacity: DefaultReplayCapacity,
		},
	}, nil
}

// BatchSize returns the batch size of the agent constructed using
// this Config
func (c Config) BatchSize() int {
	return c.ExpReplay.BatchSize
}

// Validate checks a Config to ensure it is a valid configuration of a
// DeepQ agent
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("validate: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}

	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("validate: invalid number of activations"+
			"\n\twant(%v)\n\thave(%v)", len(c.PolicyLayers),
			len(c.Activations))
	}

	if c.Solver == nil {
		return fmt.Errorf("validate: no solver given")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("validate: no weight initializer given")
	}

	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("validate: epsilon must be in [0, 1] "+
			"\n\thave(%v)", c.Epsilon)
	}
	if c.EpsilonDecay <= 0 || c.EpsilonDecay > 1 {
		return fmt.Errorf("validate: epsilon decay must be in (0, 1] "+
			"\n\thave(%v)", c.EpsilonDecay)
	}
	if c.MinEpsilon < 0 || c.MinEpsilon > c.Epsilon {
		return fmt.Errorf("validate: minimum epsilon must be in [0, %v] "+
			"\n\thave(%v)", c.Epsilon, c.MinEpsilon)
	}

	return nil
}
