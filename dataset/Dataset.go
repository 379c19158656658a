// Package dataset implements the synthetic ad-impression dataset that
// the simulated ad-serving environment walks over
package dataset

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Feature columns of an impression record
const (
	UserAge int = iota
	AdType
	TimeOfDay
	HistoricalCTR
	AdPosition

	NumFeatures
)

// Bounds on the generated feature columns
const (
	MinUserAge float64 = 18
	MaxUserAge float64 = 65

	NumAdTypes int = 3

	MinTimeOfDay float64 = 0
	MaxTimeOfDay float64 = 24

	MinHistoricalCTR float64 = 0.01
	MaxHistoricalCTR float64 = 0.1
)

// Table is a fixed table of ad-impression records, one row per
// impression. Rows are generated in random order, so a sequential walk
// over a Table does not revisit any systematic ordering of the data.
type Table struct {
	data *mat.Dense
}

// Generate creates a new Table of rows synthetic impression records.
// The same seed always generates the same table.
func Generate(rows int, seed uint64) (*Table, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("generate: rows must be positive \n\thave(%v)",
			rows)
	}

	rng := rand.New(rand.NewSource(seed))
	data := mat.NewDense(rows, NumFeatures, nil)

	for i := 0; i < rows; i++ {
		age := MinUserAge + float64(rng.Intn(int(MaxUserAge-MinUserAge)+1))
		adType := float64(rng.Intn(NumAdTypes))
		timeOfDay := MinTimeOfDay + rng.Float64()*(MaxTimeOfDay-MinTimeOfDay)
		ctr := MinHistoricalCTR +
			rng.Float64()*(MaxHistoricalCTR-MinHistoricalCTR)
		position := rng.Float64()

		data.SetRow(i, []float64{age, adType, timeOfDay, ctr, position})
	}

	return &Table{data: data}, nil
}

// FromRows creates a Table directly from raw impression rows. Each row
// must have exactly NumFeatures columns.
func FromRows(rows [][]float64) (*Table, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("fromrows: no rows given")
	}

	data := mat.NewDense(len(rows), NumFeatures, nil)
	for i, row := range rows {
		if len(row) != NumFeatures {
			return nil, fmt.Errorf("fromrows: invalid number of features "+
				"in row %v \n\twant(%v) \n\thave(%v)", i, NumFeatures,
				len(row))
		}
		data.SetRow(i, row)
	}

	return &Table{data: data}, nil
}

// Rows returns the number of impression records in the Table
func (t *Table) Rows() int {
	rows, _ := t.data.Dims()
	return rows
}

// Features returns the number of feature columns in the Table
func (t *Table) Features() int {
	_, cols := t.data.Dims()
	return cols
}

// Row returns a copy of record i as a vector
func (t *Table) Row(i int) mat.Vector {
	row := mat.NewVecDense(t.Features(), nil)
	for j := 0; j < t.Features(); j++ {
		row.SetVec(j, t.data.At(i, j))
	}
	return row
}

// At returns the value of feature column j of record i
func (t *Table) At(i, j int) float64 {
	return t.data.At(i, j)
}

// Split splits the Table into a head of n rows and a tail holding the
// remainder. The head is typically used for training and the tail as a
// held-out stream.
func (t *Table) Split(n int) (*Table, *Table, error) {
	if n <= 0 || n >= t.Rows() {
		return nil, nil, fmt.Errorf("split: split point must be in "+
			"(0, %v) \n\thave(%v)", t.Rows(), n)
	}

	head := mat.DenseCopyOf(t.data.Slice(0, n, 0, t.Features()))
	tail := mat.DenseCopyOf(t.data.Slice(n, t.Rows(), 0, t.Features()))
	return &Table{data: head}, &Table{data: tail}, nil
}
