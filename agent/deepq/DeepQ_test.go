package deepq

import (
	"path/filepath"
	"testing"

	"github.com/adrlab/adplace/agent/policy"
	"github.com/adrlab/adplace/dataset"
	"github.com/adrlab/adplace/environment/adserver"
	"github.com/adrlab/adplace/expreplay"
	"github.com/adrlab/adplace/initwfn"
	"github.com/adrlab/adplace/network"
	"github.com/adrlab/adplace/solver"
)

// newTestConfig returns a small agent configuration with a fast
// epsilon decay so that tests exercise the full exploration schedule
func newTestConfig(t *testing.T) Config {
	t.Helper()

	sol, err := solver.NewDefaultAdam(0.01, 2)
	if err != nil {
		t.Fatal(err)
	}
	init, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatal(err)
	}

	return Config{
		PolicyLayers: []int{4},
		Biases:       []bool{true},
		Activations:  []*network.Activation{network.ReLU()},
		Solver:       sol,
		InitWFn:      init,
		Epsilon:      1.0,
		EpsilonDecay: 0.5,
		MinEpsilon:   0.01,
		ExpReplay: expreplay.Config{
			BatchSize:   2,
			MinCapacity: 2,
			MaxCapacity: 10,
		},
	}
}

func newTestAgent(t *testing.T) (*DeepQ, *adserver.Placement) {
	t.Helper()

	table, err := dataset.Generate(64, 42)
	if err != nil {
		t.Fatal(err)
	}
	env, _, err := adserver.New(table, adserver.NewConfig(0.95), 42)
	if err != nil {
		t.Fatal(err)
	}

	agent, err := New(env, newTestConfig(t), 42)
	if err != nil {
		t.Fatal(err)
	}
	return agent, env
}

// interact runs steps environmental steps, observing each transition
func interact(t *testing.T, agent *DeepQ, env *adserver.Placement,
	steps int) {
	t.Helper()

	step := env.Reset()
	agent.ObserveFirst(step)
	for i := 0; i < steps; i++ {
		action := agent.SelectAction(step)
		step, _ = env.Step(action)
		agent.Observe(action, step)
	}
}

func TestConfigValidate(t *testing.T) {
	config := newTestConfig(t)
	if err := config.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	bad := newTestConfig(t)
	bad.Biases = []bool{true, false}
	if err := bad.Validate(); err == nil {
		t.Error("expected error for mismatched biases")
	}

	bad = newTestConfig(t)
	bad.EpsilonDecay = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero epsilon decay")
	}

	bad = newTestConfig(t)
	bad.MinEpsilon = 2
	if err := bad.Validate(); err == nil {
		t.Error("expected error for minimum epsilon above epsilon")
	}
}

func TestSelectActionIsLegal(t *testing.T) {
	agent, env := newTestAgent(t)

	step := env.Reset()
	agent.ObserveFirst(step)
	for i := 0; i < 10; i++ {
		action := agent.SelectAction(step)
		if action < 0 || action >= adserver.NumActions {
			t.Fatalf("selected illegal action %v", action)
		}
		step, _ = env.Step(action)
		agent.Observe(action, step)
	}
}

func TestStepWithoutFullBatchIsNoOp(t *testing.T) {
	agent, env := newTestAgent(t)

	// Two environmental steps record only one transition, below the
	// buffer's minimum capacity
	interact(t, agent, env, 2)

	if err := agent.Step(); err != nil {
		t.Fatal(err)
	}
	if agent.Epsilon() != 1.0 {
		t.Errorf("epsilon %v changed by a no-op step", agent.Epsilon())
	}
}

func TestEpsilonDecaysAfterLearning(t *testing.T) {
	agent, env := newTestAgent(t)
	interact(t, agent, env, 5)

	if err := agent.Step(); err != nil {
		t.Fatal(err)
	}
	if agent.Epsilon() != 0.5 {
		t.Errorf("epsilon %v after one learning step, expected 0.5",
			agent.Epsilon())
	}

	if err := agent.Step(); err != nil {
		t.Fatal(err)
	}
	if agent.Epsilon() != 0.25 {
		t.Errorf("epsilon %v after two learning steps, expected 0.25",
			agent.Epsilon())
	}
}

func TestEpsilonFlooredAtMinimum(t *testing.T) {
	agent, env := newTestAgent(t)
	interact(t, agent, env, 5)

	for i := 0; i < 10; i++ {
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if agent.Epsilon() != 0.01 {
		t.Errorf("epsilon %v after repeated decay, expected the floor "+
			"0.01", agent.Epsilon())
	}
}

func TestEndEpisodeSyncsTargetNetwork(t *testing.T) {
	agent, env := newTestAgent(t)
	interact(t, agent, env, 5)

	// Learning moves the train network away from the target network
	for i := 0; i < 3; i++ {
		if err := agent.Step(); err != nil {
			t.Fatal(err)
		}
	}

	diverged := false
	trainLearnables := agent.trainNet.Learnables()
	targetLearnables := agent.targetNet.Learnables()
	for i := range trainLearnables {
		trainWeights := trainLearnables[i].Value().Data().([]float64)
		targetWeights := targetLearnables[i].Value().Data().([]float64)
		for j := range trainWeights {
			if trainWeights[j] != targetWeights[j] {
				diverged = true
			}
		}
	}
	if !diverged {
		t.Fatal("learning did not change the train network")
	}

	if err := agent.EndEpisode(); err != nil {
		t.Fatal(err)
	}

	// After synchronization both networks hold identical weights, so
	// their outputs agree on every input
	for i := range trainLearnables {
		trainWeights := trainLearnables[i].Value().Data().([]float64)
		targetWeights := targetLearnables[i].Value().Data().([]float64)
		for j := range trainWeights {
			if trainWeights[j] != targetWeights[j] {
				t.Fatalf("learnable %v differs between train and target "+
					"networks after EndEpisode", i)
			}
		}
	}
}

func TestEvalZeroesEpsilon(t *testing.T) {
	agent, _ := newTestAgent(t)

	agent.Eval()
	if !agent.IsEval() {
		t.Error("agent not in evaluation mode after Eval")
	}
	if agent.Epsilon() != 0 {
		t.Errorf("epsilon %v in evaluation mode, expected 0",
			agent.Epsilon())
	}

	agent.Train()
	if agent.IsEval() {
		t.Error("agent still in evaluation mode after Train")
	}
	if agent.Epsilon() != 1.0 {
		t.Errorf("epsilon %v restored after Train, expected 1.0",
			agent.Epsilon())
	}
}

func TestSaveCreatesLoadableCheckpoint(t *testing.T) {
	agent, env := newTestAgent(t)
	interact(t, agent, env, 5)
	if err := agent.Step(); err != nil {
		t.Fatal(err)
	}

	filename := filepath.Join(t.TempDir(), "policy.bin")
	if err := agent.Save(filename); err != nil {
		t.Fatal(err)
	}

	loaded, err := policy.Load(filename)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Epsilon() != agent.Epsilon() {
		t.Errorf("loaded epsilon %v, expected %v", loaded.Epsilon(),
			agent.Epsilon())
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	table, err := dataset.Generate(16, 42)
	if err != nil {
		t.Fatal(err)
	}
	env, _, err := adserver.New(table, adserver.NewConfig(0.95), 42)
	if err != nil {
		t.Fatal(err)
	}

	bad := newTestConfig(t)
	bad.Solver = nil
	if _, err := New(env, bad, 42); err == nil {
		t.Error("expected error for config without a solver")
	}
}
