package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// qMLP is a multi-layered perceptron with one output head per action.
// Given a batch of state vectors, the network predicts the value of
// every action in every state of the batch.
type qMLP struct {
	g      *G.ExprGraph
	layers []*fcLayer
	input  *G.Node

	numOutputs int
	numInputs  int
	batchSize  int

	// Architecture, kept for cloning and gobbing. The final linear
	// head is included.
	hiddenSizes []int
	biases      []bool
	activations []*Activation

	learnables G.Nodes
	model      []G.ValueGrad

	prediction *G.Node
	predVal    G.Value
}

// NewQMLP creates and returns a new multi-head action-value MLP on
// graph g. The network has len(hiddenSizes) hidden layers; a final
// linear layer with a bias unit and one output per action is always
// added. For index i, hiddenSizes[i] is the number of units in hidden
// layer i, biases[i] is whether that layer has a bias unit, and
// activations[i] is its activation function. The init parameter
// determines the weight initialization scheme.
func NewQMLP(features, batch, actions int, g *G.ExprGraph,
	hiddenSizes []int, biases []bool, init G.InitWFn,
	activations []*Activation) (Network, error) {
	if len(hiddenSizes) != len(activations) {
		return nil, fmt.Errorf("newqmlp: invalid number of activations"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(activations))
	}
	if len(hiddenSizes) != len(biases) {
		return nil, fmt.Errorf("newqmlp: invalid number of biases"+
			"\n\twant(%d)\n\thave(%d)", len(hiddenSizes), len(biases))
	}
	if features <= 0 || batch <= 0 || actions <= 0 {
		return nil, fmt.Errorf("newqmlp: features, batch, and actions "+
			"must be positive \n\thave(%d, %d, %d)", features, batch,
			actions)
	}

	// Final linear layer so that the network always predicts one value
	// per action
	sizes := append(append([]int{}, hiddenSizes...), actions)
	withBias := append(append([]bool{}, biases...), true)
	acts := append(append([]*Activation{}, activations...), Identity())

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	layers := newFCLayers(g, sizes, withBias, acts, init, features)

	net := &qMLP{
		g:           g,
		layers:      layers,
		input:       input,
		numOutputs:  actions,
		numInputs:   features,
		batchSize:   batch,
		hiddenSizes: sizes,
		biases:      withBias,
		activations: acts,
	}
	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("newqmlp: could not compute forward "+
			"pass: %v", err)
	}

	return net, nil
}

// Graph returns the computational graph of the qMLP
func (q *qMLP) Graph() *G.ExprGraph {
	return q.g
}

// BatchSize returns the number of input rows per forward pass
func (q *qMLP) BatchSize() int {
	return q.batchSize
}

// Features returns the length of a single state vector input
func (q *qMLP) Features() int {
	return q.numInputs
}

// Outputs returns the number of action values predicted per state
func (q *qMLP) Outputs() int {
	return q.numOutputs
}

// Clone clones the qMLP onto a fresh graph
func (q *qMLP) Clone() (Network, error) {
	return q.CloneWithBatch(q.batchSize)
}

// CloneWithBatch clones the qMLP onto a fresh graph with a new input
// batch size. Weight values are shared by value at clone time, not
// aliased, so the clone learns independently.
func (q *qMLP) CloneWithBatch(batchSize int) (Network, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("clonewithbatch: batch size must be "+
			"positive \n\thave(%v)", batchSize)
	}

	graph := G.NewGraph()
	input := G.NewMatrix(graph, tensor.Float64,
		G.WithShape(batchSize, q.numInputs), G.WithName("input"),
		G.WithInit(G.Zeroes()))

	layers := make([]*fcLayer, len(q.layers))
	for i := range q.layers {
		layers[i] = q.layers[i].cloneTo(graph)
	}

	net := &qMLP{
		g:           graph,
		layers:      layers,
		input:       input,
		numOutputs:  q.numOutputs,
		numInputs:   q.numInputs,
		batchSize:   batchSize,
		hiddenSizes: q.hiddenSizes,
		biases:      q.biases,
		activations: q.activations,
	}
	if err := net.fwd(input); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not compute "+
			"forward pass: %v", err)
	}

	return net, nil
}

// SetInput sets the value of the input node before running the forward
// pass
func (q *qMLP) SetInput(input []float64) error {
	if len(input) != q.numInputs*q.batchSize {
		return fmt.Errorf("setinput: invalid number of inputs"+
			"\n\twant(%v)\n\thave(%v)", q.numInputs*q.batchSize, len(input))
	}
	inputTensor := tensor.New(
		tensor.WithBacking(input),
		tensor.WithShape(q.batchSize, q.numInputs),
	)
	return G.Let(q.input, inputTensor)
}

// Set copies the weights of another qMLP of identical architecture
// onto the receiver
func (q *qMLP) Set(source Network) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	if len(nodes) != len(sourceNodes) {
		return fmt.Errorf("set: source network has different "+
			"architecture \n\twant(%v learnables) \n\thave(%v)", len(nodes),
			len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Polyak sets the receiver's weights to a Polyak average between its
// existing weights and another network's weights
func (q *qMLP) Polyak(source Network, tau float64) error {
	sourceNodes := source.Learnables()
	nodes := q.Learnables()
	for i := range nodes {
		weights := nodes[i].Value().(*tensor.Dense)
		sourceWeights := sourceNodes[i].Value().(*tensor.Dense)

		weights, err := weights.MulScalar(1-tau, true)
		if err != nil {
			return err
		}

		sourceWeights, err = sourceWeights.MulScalar(tau, true)
		if err != nil {
			return err
		}

		newWeights, err := weights.Add(sourceWeights)
		if err != nil {
			return err
		}

		if err := G.Let(nodes[i], newWeights); err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes of the qMLP
func (q *qMLP) Learnables() G.Nodes {
	if q.learnables == nil {
		learnables := make([]*G.Node, 0, 2*len(q.layers))
		for i := range q.layers {
			learnables = append(learnables, q.layers[i].weights)
			if bias := q.layers[i].bias; bias != nil {
				learnables = append(learnables, bias)
			}
		}
		q.learnables = G.Nodes(learnables)
	}
	return q.learnables
}

// Model returns the learnable nodes with their gradients
func (q *qMLP) Model() []G.ValueGrad {
	if q.model == nil {
		model := make([]G.ValueGrad, 0, len(q.Learnables()))
		for _, node := range q.Learnables() {
			model = append(model, node)
		}
		q.model = model
	}
	return q.model
}

// Output returns the network's output from the last run of the graph
func (q *qMLP) Output() G.Value {
	return q.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the qMLP
func (q *qMLP) Prediction() *G.Node {
	return q.prediction
}

// fwd adds the forward pass of the qMLP on the input node to the graph
func (q *qMLP) fwd(input *G.Node) error {
	pred := input
	var err error
	for i, l := range q.layers {
		if pred, err = l.fwd(pred); err != nil {
			return fmt.Errorf("fwd: could not compute forward pass of "+
				"layer %v: %v", i, err)
		}
	}

	q.prediction = pred
	G.Read(q.prediction, &q.predVal)

	return nil
}

// DecodeQMLP reconstructs a network from the bytes produced by a
// qMLP's GobEncode
func DecodeQMLP(data []byte) (Network, error) {
	q := &qMLP{}
	if err := q.GobDecode(data); err != nil {
		return nil, err
	}
	return q, nil
}

// GobEncode implements the gob.GobEncoder interface. The architecture
// and every learnable weight tensor are encoded, so a decoded network
// computes exactly the same function.
func (q *qMLP) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	// The appended final layer is stripped on decode, where the
	// constructor re-adds it
	arch := []interface{}{
		q.numInputs, q.batchSize, q.numOutputs,
		q.hiddenSizes, q.biases, q.activations,
	}
	names := []string{"inputs", "batch size", "outputs", "hidden sizes",
		"biases", "activations"}
	for i, field := range arch {
		if err := enc.Encode(field); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode %v: %v",
				names[i], err)
		}
	}

	for i, learnable := range q.Learnables() {
		value := learnable.Value().(*tensor.Dense)
		if err := enc.Encode(value.Shape()); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode shape of "+
				"learnable %v: %v", i, err)
		}
		if err := enc.Encode(value.Data().([]float64)); err != nil {
			return nil, fmt.Errorf("gobencode: could not encode weights of "+
				"learnable %v: %v", i, err)
		}
	}

	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface
func (q *qMLP) GobDecode(in []byte) error {
	buf := bytes.NewReader(in)
	dec := gob.NewDecoder(buf)

	var numInputs, batchSize, numOutputs int
	var hiddenSizes []int
	var biases []bool
	var activations []*Activation

	fields := []interface{}{
		&numInputs, &batchSize, &numOutputs,
		&hiddenSizes, &biases, &activations,
	}
	names := []string{"inputs", "batch size", "outputs", "hidden sizes",
		"biases", "activations"}
	for i, field := range fields {
		if err := dec.Decode(field); err != nil {
			return fmt.Errorf("gobdecode: could not decode %v: %v",
				names[i], err)
		}
	}

	// Strip the final linear head; NewQMLP re-appends it
	hiddenSizes = hiddenSizes[:len(hiddenSizes)-1]
	biases = biases[:len(biases)-1]
	activations = activations[:len(activations)-1]

	g := G.NewGraph()
	newNet, err := NewQMLP(numInputs, batchSize, numOutputs, g,
		hiddenSizes, biases, G.Zeroes(), activations)
	if err != nil {
		return fmt.Errorf("gobdecode: could not construct network: %v", err)
	}
	newMLP := newNet.(*qMLP)

	for i, learnable := range newMLP.Learnables() {
		var shape tensor.Shape
		if err := dec.Decode(&shape); err != nil {
			return fmt.Errorf("gobdecode: could not decode shape of "+
				"learnable %v: %v", i, err)
		}
		var data []float64
		if err := dec.Decode(&data); err != nil {
			return fmt.Errorf("gobdecode: could not decode weights of "+
				"learnable %v: %v", i, err)
		}

		value := tensor.New(tensor.WithShape(shape...),
			tensor.WithBacking(data))
		if err := G.Let(learnable, value); err != nil {
			return fmt.Errorf("gobdecode: could not set weights of "+
				"learnable %v: %v", i, err)
		}
	}

	*q = *newMLP
	return nil
}
