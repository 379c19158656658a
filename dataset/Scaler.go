package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// MinMaxScaler rescales each feature column independently to [0, 1]
// using the minimum and maximum observed when the scaler was fit.
//
// The scaler is fit once over a full Table, not per batch. Fitting
// over the full table before training means the normalization of early
// rows already reflects statistics of later rows (look-ahead bias);
// this matches the behaviour of the simulation being modelled.
type MinMaxScaler struct {
	min []float64
	max []float64
}

// FitMinMax fits a MinMaxScaler over every row of a Table
func FitMinMax(t *Table) *MinMaxScaler {
	min := make([]float64, t.Features())
	max := make([]float64, t.Features())

	for j := 0; j < t.Features(); j++ {
		min[j], max[j] = t.At(0, j), t.At(0, j)
		for i := 1; i < t.Rows(); i++ {
			v := t.At(i, j)
			if v < min[j] {
				min[j] = v
			}
			if v > max[j] {
				max[j] = v
			}
		}
	}

	return &MinMaxScaler{min: min, max: max}
}

// Features returns the number of feature columns the scaler was fit on
func (s *MinMaxScaler) Features() int {
	return len(s.min)
}

// TransformRow normalizes a single row to [0, 1] per feature. Features
// that were constant when the scaler was fit are mapped to 0.
func (s *MinMaxScaler) TransformRow(row mat.Vector) (mat.Vector, error) {
	if row.Len() != s.Features() {
		return nil, fmt.Errorf("transformrow: invalid number of features "+
			"\n\twant(%v) \n\thave(%v)", s.Features(), row.Len())
	}

	scaled := mat.NewVecDense(s.Features(), nil)
	for j := 0; j < s.Features(); j++ {
		span := s.max[j] - s.min[j]
		if span == 0 {
			scaled.SetVec(j, 0)
			continue
		}
		scaled.SetVec(j, (row.AtVec(j)-s.min[j])/span)
	}
	return scaled, nil
}

// Transform normalizes every row of a Table, returning the normalized
// rows as a new matrix
func (s *MinMaxScaler) Transform(t *Table) (*mat.Dense, error) {
	if t.Features() != s.Features() {
		return nil, fmt.Errorf("transform: invalid number of features "+
			"\n\twant(%v) \n\thave(%v)", s.Features(), t.Features())
	}

	scaled := mat.NewDense(t.Rows(), t.Features(), nil)
	for i := 0; i < t.Rows(); i++ {
		row, err := s.TransformRow(t.Row(i))
		if err != nil {
			return nil, fmt.Errorf("transform: %v", err)
		}
		for j := 0; j < t.Features(); j++ {
			scaled.Set(i, j, row.AtVec(j))
		}
	}
	return scaled, nil
}
