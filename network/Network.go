// Package network implements the neural network function approximators
// used to estimate action values
package network

import (
	G "gorgonia.org/gorgonia"
)

// Network is a neural network function approximator. A Network only
// populates a gorgonia.ExprGraph; an external VM runs the graph. The
// VM must be run after SetInput and before reading Output.
type Network interface {
	// Graph returns the computational graph the Network populates
	Graph() *G.ExprGraph

	// Clone clones the Network onto a fresh graph with the same batch
	// size
	Clone() (Network, error)

	// CloneWithBatch clones the Network onto a fresh graph with a new
	// input batch size
	CloneWithBatch(int) (Network, error)

	// BatchSize returns the number of input rows per forward pass
	BatchSize() int

	// Features returns the length of a single input vector
	Features() int

	// Outputs returns the number of values predicted per input row
	Outputs() int

	// SetInput sets the input node's value before running the graph
	SetInput([]float64) error

	// Set copies all learnable weights from another Network of
	// identical architecture
	Set(Network) error

	// Polyak moves the learnable weights toward another Network's
	// weights by the averaging constant tau
	Polyak(Network, float64) error

	// Learnables returns the learnable nodes of the Network
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients
	Model() []G.ValueGrad

	// Output returns the value of the prediction node after the last
	// run of the graph
	Output() G.Value

	// Prediction returns the node holding the Network's output
	Prediction() *G.Node
}
