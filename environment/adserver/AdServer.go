// Package adserver implements a simulated ad-serving environment. An
// episode is a sequential walk over a fixed synthetic impression
// dataset: each step the agent picks one of three ad positions for the
// current impression and receives a CTR-derived reward.
package adserver

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/adrlab/adplace/dataset"
	"github.com/adrlab/adplace/spec"
	ts "github.com/adrlab/adplace/timestep"
)

// Ad positions the agent chooses between
const (
	TopBanner int = iota
	Sidebar
	Popup

	NumActions
)

// DefaultImpact is the per-action reward multiplier table. Positions
// are ordered by effect size: top banner > sidebar > popup.
var DefaultImpact = []float64{0.10, 0.05, 0.02}

// DefaultNoiseStdDev is the standard deviation of the zero-mean
// Gaussian reward noise
const DefaultNoiseStdDev float64 = 0.01

// Config is a configuration of a Placement environment
type Config struct {
	Discount      float64
	Impact        []float64
	NoiseStdDev   float64
	StateFeatures int
}

// NewConfig returns a Config with the default reward model and the
// given discount
func NewConfig(discount float64) Config {
	return Config{
		Discount:      discount,
		Impact:        DefaultImpact,
		NoiseStdDev:   DefaultNoiseStdDev,
		StateFeatures: dataset.NumFeatures,
	}
}

// Validate checks whether the Config describes a legal environment
func (c Config) Validate() error {
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1] "+
			"\n\thave(%v)", c.Discount)
	}
	if len(c.Impact) != NumActions {
		return fmt.Errorf("validate: impact table must have one entry per "+
			"ad position \n\twant(%v) \n\thave(%v)", NumActions,
			len(c.Impact))
	}
	if c.NoiseStdDev < 0 {
		return fmt.Errorf("validate: noise standard deviation must be "+
			"non-negative \n\thave(%v)", c.NoiseStdDev)
	}
	return nil
}

// Placement is the simulated ad-placement environment. It walks the
// impression dataset sequentially, emitting each impression's
// normalized feature vector as the observation. Feature normalization
// is min-max, fit once over the full dataset at construction.
//
// The walk itself is deterministic; only the reward noise is
// stochastic. Once the dataset is exhausted the environment emits a
// zero observation with zero reward and a Last step type, and keeps
// doing so for any further Step calls until Reset.
type Placement struct {
	table  *dataset.Table
	scaled *mat.Dense
	scaler *dataset.MinMaxScaler
	reward *RewardModel

	discount float64
	cursor   int
	lastStep ts.TimeStep
}

// New constructs a new Placement environment over the given impression
// table. The returned timestep is the first of the initial episode.
func New(table *dataset.Table, config Config,
	seed uint64) (*Placement, ts.TimeStep, error) {
	if table == nil || table.Rows() == 0 {
		return nil, ts.TimeStep{}, fmt.Errorf("adserver: empty dataset")
	}
	if err := config.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("adserver: %v", err)
	}

	scaler := dataset.FitMinMax(table)

	// Catch dimensionality mismatches here rather than as a shape
	// fault deep inside a learner update
	if config.StateFeatures != scaler.Features() {
		return nil, ts.TimeStep{}, fmt.Errorf("adserver: state size does "+
			"not match normalized feature columns \n\twant(%v) \n\thave(%v)",
			config.StateFeatures, scaler.Features())
	}

	scaled, err := scaler.Transform(table)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("adserver: could not "+
			"normalize dataset: %v", err)
	}

	reward, err := NewRewardModel(config.Impact, config.NoiseStdDev, seed)
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("adserver: %v", err)
	}

	p := &Placement{
		table:    table,
		scaled:   scaled,
		scaler:   scaler,
		reward:   reward,
		discount: config.Discount,
	}
	firstStep := p.Reset()

	return p, firstStep, nil
}

// Reset restarts the walk at the first impression and returns the
// first timestep of the new episode
func (p *Placement) Reset() ts.TimeStep {
	p.cursor = 0
	firstStep := ts.New(ts.First, 0, p.discount, p.observation(0), 0)
	p.lastStep = firstStep
	return firstStep
}

// Step serves the current impression at the chosen ad position and
// advances the walk. The returned bool reports whether the episode has
// ended.
//
// If the dataset is already exhausted, Step returns a zero
// observation, zero reward, and a Last step immediately, regardless of
// the action.
func (p *Placement) Step(action int) (ts.TimeStep, bool) {
	if action < 0 || action >= NumActions {
		panic(fmt.Sprintf("step: illegal action %v ∉ [0, %v)", action,
			NumActions))
	}

	number := p.lastStep.Number + 1

	// Defensive end-of-data guard
	if p.cursor >= p.table.Rows() {
		step := ts.New(ts.Last, 0, 0, p.zeroObservation(), number)
		p.lastStep = step
		return step, true
	}

	ctr := p.table.At(p.cursor, dataset.HistoricalCTR)
	reward := p.reward.Reward(ctr, action)
	p.cursor++

	var step ts.TimeStep
	if p.cursor >= p.table.Rows() {
		step = ts.New(ts.Last, reward, 0, p.zeroObservation(), number)
	} else {
		step = ts.New(ts.Mid, reward, p.discount, p.observation(p.cursor),
			number)
	}
	p.lastStep = step

	return step, step.Last()
}

// Len returns the number of impressions walked over in one episode
func (p *Placement) Len() int {
	return p.table.Rows()
}

// Scaler returns the min-max scaler fit over the environment's dataset
// at construction
func (p *Placement) Scaler() *dataset.MinMaxScaler {
	return p.scaler
}

// RewardModel returns the environment's reward model
func (p *Placement) RewardModel() *RewardModel {
	return p.reward
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Placement) ObservationSpec() spec.Environment {
	features := p.scaler.Features()
	shape := mat.NewVecDense(features, nil)

	lower := mat.NewVecDense(features, nil)
	upper := mat.NewVecDense(features, nil)
	for i := 0; i < features; i++ {
		upper.SetVec(i, 1.0)
	}

	return spec.NewEnvironment(shape, spec.Observation, lower, upper,
		spec.Continuous)
}

// ActionSpec returns the action specification of the environment
func (p *Placement) ActionSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	lower := mat.NewVecDense(1, []float64{float64(TopBanner)})
	upper := mat.NewVecDense(1, []float64{float64(NumActions - 1)})

	return spec.NewEnvironment(shape, spec.Action, lower, upper,
		spec.Discrete)
}

// RewardSpec returns the reward specification of the environment
func (p *Placement) RewardSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)

	// Rewards rescale historical CTR, which lies in [0.01, 0.1]
	min := dataset.MinHistoricalCTR
	max := dataset.MaxHistoricalCTR * (1 + p.reward.impact[TopBanner])
	lower := mat.NewVecDense(1, []float64{min})
	upper := mat.NewVecDense(1, []float64{max})

	return spec.NewEnvironment(shape, spec.Reward, lower, upper,
		spec.Continuous)
}

// DiscountSpec returns the discounting specification of the
// environment
func (p *Placement) DiscountSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{p.discount})

	return spec.NewEnvironment(shape, spec.Discount, bound, bound,
		spec.Continuous)
}

// observation returns the normalized feature vector of impression i
func (p *Placement) observation(i int) mat.Vector {
	obs := mat.NewVecDense(p.scaler.Features(), nil)
	for j := 0; j < p.scaler.Features(); j++ {
		obs.SetVec(j, p.scaled.At(i, j))
	}
	return obs
}

// zeroObservation returns the all-zero observation emitted once the
// dataset is exhausted
func (p *Placement) zeroObservation() mat.Vector {
	return mat.NewVecDense(p.scaler.Features(), nil)
}
