package policy

import (
	"math"
	"path/filepath"
	"testing"

	G "gorgonia.org/gorgonia"

	"github.com/adrlab/adplace/network"
)

const (
	testFeatures = 5
	testActions  = 3
)

func newTestPolicy(t *testing.T, epsilon float64, seed int64) *EGreedyMLP {
	t.Helper()
	p, err := NewEGreedyMLP(epsilon, testFeatures, 1, testActions,
		G.NewGraph(), []int{4}, []bool{true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU()}, seed)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// selectOnce runs the policy's graph on an input and selects an action
func selectOnce(t *testing.T, p *EGreedyMLP, vm G.VM,
	input []float64) int {
	t.Helper()
	if err := p.SetInput(input); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	action, _ := p.SelectAction()
	vm.Reset()

	return action
}

func TestNewEGreedyMLPValidatesEpsilon(t *testing.T) {
	_, err := NewEGreedyMLP(-0.1, testFeatures, 1, testActions,
		G.NewGraph(), []int{4}, []bool{true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU()}, 42)
	if err == nil {
		t.Error("expected error for negative epsilon")
	}

	_, err = NewEGreedyMLP(1.1, testFeatures, 1, testActions,
		G.NewGraph(), []int{4}, []bool{true}, G.GlorotU(1.0),
		[]*network.Activation{network.ReLU()}, 42)
	if err == nil {
		t.Error("expected error for epsilon above 1")
	}
}

func TestSelectActionGreedyIsDeterministic(t *testing.T) {
	p := newTestPolicy(t, 0.0, 42)
	vm := G.NewTapeMachine(p.Graph())
	defer vm.Close()

	input := []float64{0.9, 0.1, 0.5, 0.3, 0.7}
	first := selectOnce(t, p, vm, input)
	for i := 0; i < 20; i++ {
		if action := selectOnce(t, p, vm, input); action != first {
			t.Fatalf("greedy selection returned %v then %v for the same "+
				"input", first, action)
		}
	}
}

func TestSelectActionGreedyIsArgMax(t *testing.T) {
	p := newTestPolicy(t, 0.0, 42)
	vm := G.NewTapeMachine(p.Graph())
	defer vm.Close()

	input := []float64{0.9, 0.1, 0.5, 0.3, 0.7}
	if err := p.SetInput(input); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	action, value := p.SelectAction()
	vm.Reset()

	values := p.Output().Data().([]float64)
	for i, v := range values {
		if v > values[action] {
			t.Errorf("action %v has value %v above selected action %v (%v)",
				i, v, action, value)
		}
	}
}

func TestSelectActionExploringIsUniform(t *testing.T) {
	p := newTestPolicy(t, 1.0, 42)
	vm := G.NewTapeMachine(p.Graph())
	defer vm.Close()

	const trials = 3000
	input := []float64{0.9, 0.1, 0.5, 0.3, 0.7}
	counts := make([]int, testActions)
	for i := 0; i < trials; i++ {
		counts[selectOnce(t, p, vm, input)]++
	}

	// With epsilon forced to 1, action frequencies converge to 1/3
	for action, count := range counts {
		frequency := float64(count) / float64(trials)
		if math.Abs(frequency-1.0/3.0) > 0.05 {
			t.Errorf("action %v selected with frequency %v, expected "+
				"about 1/3", action, frequency)
		}
	}
}

func TestSelectActionBeforeRunPanics(t *testing.T) {
	p := newTestPolicy(t, 0.0, 42)

	defer func() {
		if recover() == nil {
			t.Error("expected panic selecting an action before the graph " +
				"has run")
		}
	}()
	p.SelectAction()
}

func TestSetEpsilon(t *testing.T) {
	p := newTestPolicy(t, 0.5, 42)
	if p.Epsilon() != 0.5 {
		t.Errorf("epsilon %v, expected 0.5", p.Epsilon())
	}

	p.SetEpsilon(0.01)
	if p.Epsilon() != 0.01 {
		t.Errorf("epsilon %v after SetEpsilon, expected 0.01", p.Epsilon())
	}
}

func TestPolicySaveLoad(t *testing.T) {
	p := newTestPolicy(t, 0.25, 42)
	vm := G.NewTapeMachine(p.Graph())
	defer vm.Close()

	filename := filepath.Join(t.TempDir(), "policy.bin")
	if err := p.Save(filename); err != nil {
		t.Fatal(err)
	}

	loaded, err := Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Epsilon() != p.Epsilon() {
		t.Errorf("loaded epsilon %v, expected %v", loaded.Epsilon(),
			p.Epsilon())
	}
	if loaded.BatchSize() != p.BatchSize() {
		t.Errorf("loaded batch size %v, expected %v", loaded.BatchSize(),
			p.BatchSize())
	}

	// The loaded policy computes exactly the same action values
	loadedVM := G.NewTapeMachine(loaded.Graph())
	defer loadedVM.Close()

	input := []float64{0.2, 0.4, 0.6, 0.8, 1.0}
	if err := p.SetInput(input); err != nil {
		t.Fatal(err)
	}
	if err := vm.RunAll(); err != nil {
		t.Fatal(err)
	}
	want := append([]float64{}, p.Output().Data().([]float64)...)
	vm.Reset()

	if err := loaded.SetInput(input); err != nil {
		t.Fatal(err)
	}
	if err := loadedVM.RunAll(); err != nil {
		t.Fatal(err)
	}
	got := loaded.Output().Data().([]float64)

	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("output %v: %v != %v after save and load", i, want[i],
				got[i])
		}
	}
}

func TestClonePolicyWithBatch(t *testing.T) {
	p := newTestPolicy(t, 0.1, 42)

	clone, err := p.ClonePolicyWithBatch(8)
	if err != nil {
		t.Fatal(err)
	}
	if clone.BatchSize() != 8 {
		t.Errorf("clone batch size %v, expected 8", clone.BatchSize())
	}
	if clone.Epsilon() != p.Epsilon() {
		t.Errorf("clone epsilon %v, expected %v", clone.Epsilon(),
			p.Epsilon())
	}
}
