package adserver

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RewardModel computes the stochastic reward for serving an ad at a
// chosen position. The reward is a perturbed, action-biased rescaling
// of an impression's historical CTR:
//
//	reward = ctr * (1 + impact[action] + noise)
//
// where impact is a fixed per-action multiplier table and noise is
// drawn from a zero-mean Gaussian. The model is shared by the
// simulated environment and the real-time adjuster so that both use
// the exact same reward computation.
type RewardModel struct {
	impact []float64
	noise  distuv.Normal
}

// NewRewardModel returns a RewardModel with the given per-action
// impact table and Gaussian noise scale. A stdDev of 0 makes the
// model deterministic.
func NewRewardModel(impact []float64, stdDev float64,
	seed uint64) (*RewardModel, error) {
	if len(impact) == 0 {
		return nil, fmt.Errorf("newrewardmodel: empty impact table")
	}
	if stdDev < 0 {
		return nil, fmt.Errorf("newrewardmodel: noise standard deviation "+
			"must be non-negative \n\thave(%v)", stdDev)
	}

	noise := distuv.Normal{
		Mu:    0,
		Sigma: stdDev,
		Src:   rand.NewSource(seed),
	}

	return &RewardModel{impact: impact, noise: noise}, nil
}

// NumActions returns the number of actions the model computes rewards
// for
func (r *RewardModel) NumActions() int {
	return len(r.impact)
}

// Reward computes the reward for serving an impression with historical
// CTR ctr at the given position. Reward panics if the action id is
// outside the impact table.
func (r *RewardModel) Reward(ctr float64, action int) float64 {
	if action < 0 || action >= len(r.impact) {
		panic(fmt.Sprintf("reward: illegal action %v ∉ [0, %v)",
			action, len(r.impact)))
	}

	noise := 0.0
	if r.noise.Sigma > 0 {
		noise = r.noise.Rand()
	}

	return ctr * (1 + r.impact[action] + noise)
}
