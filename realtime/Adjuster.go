// Package realtime implements real-time ad placement adjustment over a
// held-out stream of impression records
package realtime

import (
	"fmt"

	"github.com/aunum/log"

	"github.com/adrlab/adplace/agent"
	"github.com/adrlab/adplace/dataset"
	"github.com/adrlab/adplace/environment/adserver"
	ts "github.com/adrlab/adplace/timestep"
)

// Adjuster replays a trained placement policy over a held-out stream
// of impression records, accumulating a rolling CTR estimate. The
// stream is consumed in non-overlapping windows; the first record of
// each window is served and its realized CTR folded into the estimate.
//
// Rewards come from the same adserver.RewardModel the training
// environment uses, so the serving-time CTR is directly comparable to
// training-time rewards.
type Adjuster struct {
	policy agent.Policy
	reward *adserver.RewardModel
	window int

	// Scaler used to normalize stream records before querying the
	// policy. When nil, a fresh min-max fit over the stream is used.
	// The fresh fit reproduces the original serving behaviour, but it
	// normalizes with statistics the policy was never trained on; pass
	// the training-time scaler for consistent normalization.
	scaler *dataset.MinMaxScaler
}

// New creates and returns a new Adjuster serving with the given policy
// and reward model, estimating CTR over windows of the given size. The
// scaler parameter may be nil, in which case each stream is
// re-normalized with a fresh min-max fit.
func New(p agent.Policy, reward *adserver.RewardModel, window int,
	scaler *dataset.MinMaxScaler) (*Adjuster, error) {
	if p == nil {
		return nil, fmt.Errorf("new: no policy given")
	}
	if reward == nil {
		return nil, fmt.Errorf("new: no reward model given")
	}
	if window <= 0 {
		return nil, fmt.Errorf("new: window size must be positive "+
			"\n\thave(%v)", window)
	}

	return &Adjuster{
		policy: p,
		reward: reward,
		window: window,
		scaler: scaler,
	}, nil
}

// Run serves the held-out stream and returns the rolling CTR estimate,
// one entry per window. Entry i is the mean realized CTR over the
// first i+1 served records.
func (a *Adjuster) Run(stream *dataset.Table) ([]float64, error) {
	if stream.Rows() < a.window {
		return nil, fmt.Errorf("run: stream shorter than one window "+
			"\n\twant(>= %v rows) \n\thave(%v)", a.window, stream.Rows())
	}

	scaler := a.scaler
	if scaler == nil {
		scaler = dataset.FitMinMax(stream)
	}

	windows := stream.Rows() / a.window
	rolling := make([]float64, 0, windows)

	var totalCTR float64
	for w := 0; w < windows; w++ {
		row := stream.Row(w * a.window)

		obs, err := scaler.TransformRow(row)
		if err != nil {
			return nil, fmt.Errorf("run: could not normalize record "+
				"%v: %v", w*a.window, err)
		}

		step := ts.New(ts.Mid, 0, 1, obs, w)
		action := a.policy.SelectAction(step)

		ctr := a.reward.Reward(row.AtVec(dataset.HistoricalCTR), action)
		totalCTR += ctr
		rolling = append(rolling, totalCTR/float64(w+1))

		log.Debugf("window %v: action %v, ctr %.4f, rolling %.4f", w,
			action, ctr, rolling[w])
	}

	return rolling, nil
}
