package dataset

import (
	"math"
	"testing"
)

func TestGenerateBounds(t *testing.T) {
	table, err := Generate(500, 42)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < table.Rows(); i++ {
		age := table.At(i, UserAge)
		if age < MinUserAge || age > MaxUserAge {
			t.Errorf("row %v: user age %v out of bounds", i, age)
		}
		if age != math.Trunc(age) {
			t.Errorf("row %v: user age %v is not integral", i, age)
		}

		adType := table.At(i, AdType)
		if adType != 0 && adType != 1 && adType != 2 {
			t.Errorf("row %v: invalid ad type %v", i, adType)
		}

		timeOfDay := table.At(i, TimeOfDay)
		if timeOfDay < MinTimeOfDay || timeOfDay > MaxTimeOfDay {
			t.Errorf("row %v: time of day %v out of bounds", i, timeOfDay)
		}

		ctr := table.At(i, HistoricalCTR)
		if ctr < MinHistoricalCTR || ctr > MaxHistoricalCTR {
			t.Errorf("row %v: historical CTR %v out of bounds", i, ctr)
		}

		position := table.At(i, AdPosition)
		if position < 0 || position > 1 {
			t.Errorf("row %v: ad position %v out of bounds", i, position)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	first, err := Generate(100, 42)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Generate(100, 42)
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < first.Rows(); i++ {
		for j := 0; j < first.Features(); j++ {
			if first.At(i, j) != second.At(i, j) {
				t.Fatalf("same seed generated different tables at (%v, %v)",
					i, j)
			}
		}
	}
}

func TestGenerateInvalidRows(t *testing.T) {
	if _, err := Generate(0, 42); err == nil {
		t.Error("expected error for zero rows")
	}
	if _, err := Generate(-3, 42); err == nil {
		t.Error("expected error for negative rows")
	}
}

func TestSplit(t *testing.T) {
	table, err := Generate(100, 42)
	if err != nil {
		t.Fatal(err)
	}

	head, tail, err := table.Split(80)
	if err != nil {
		t.Fatal(err)
	}
	if head.Rows() != 80 {
		t.Errorf("head has %v rows, expected 80", head.Rows())
	}
	if tail.Rows() != 20 {
		t.Errorf("tail has %v rows, expected 20", tail.Rows())
	}

	// The tail starts where the head ends
	if tail.At(0, UserAge) != table.At(80, UserAge) {
		t.Error("tail does not start at the split point")
	}

	if _, _, err := table.Split(0); err == nil {
		t.Error("expected error for split point 0")
	}
	if _, _, err := table.Split(100); err == nil {
		t.Error("expected error for split point at table length")
	}
}

func TestFromRowsValidatesFeatures(t *testing.T) {
	if _, err := FromRows(nil); err == nil {
		t.Error("expected error for empty rows")
	}

	_, err := FromRows([][]float64{{1, 2, 3}})
	if err == nil {
		t.Error("expected error for short row")
	}
}

func TestMinMaxScalerTransformRow(t *testing.T) {
	table, err := FromRows([][]float64{
		{20, 0, 0, 0.02, 0.0},
		{30, 1, 12, 0.05, 0.5},
		{40, 2, 24, 0.08, 1.0},
	})
	if err != nil {
		t.Fatal(err)
	}

	scaler := FitMinMax(table)
	scaled, err := scaler.TransformRow(table.Row(1))
	if err != nil {
		t.Fatal(err)
	}

	expected := []float64{0.5, 0.5, 0.5, 0.5, 0.5}
	for j, want := range expected {
		if math.Abs(scaled.AtVec(j)-want) > 1e-12 {
			t.Errorf("feature %v: got %v, expected %v", j, scaled.AtVec(j),
				want)
		}
	}
}

func TestMinMaxScalerDegenerateColumn(t *testing.T) {
	table, err := FromRows([][]float64{
		{25, 1, 6, 0.03, 0.2},
		{25, 2, 18, 0.07, 0.9},
	})
	if err != nil {
		t.Fatal(err)
	}

	scaler := FitMinMax(table)
	scaled, err := scaler.TransformRow(table.Row(0))
	if err != nil {
		t.Fatal(err)
	}

	// The constant age column maps to 0 rather than dividing by zero
	if scaled.AtVec(UserAge) != 0 {
		t.Errorf("constant feature scaled to %v, expected 0",
			scaled.AtVec(UserAge))
	}
}

func TestMinMaxScalerRange(t *testing.T) {
	table, err := Generate(200, 42)
	if err != nil {
		t.Fatal(err)
	}

	scaler := FitMinMax(table)
	scaled, err := scaler.Transform(table)
	if err != nil {
		t.Fatal(err)
	}

	rows, cols := scaled.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := scaled.At(i, j)
			if v < 0 || v > 1 {
				t.Fatalf("scaled value %v at (%v, %v) outside [0, 1]", v, i,
					j)
			}
		}
	}
}
