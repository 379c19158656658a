package tracker

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	ts "github.com/adrlab/adplace/timestep"
)

func obs() mat.Vector {
	return mat.NewVecDense(2, []float64{0.1, 0.2})
}

// episode feeds a tracker one full episode with the given rewards
func episode(t Tracker, rewards []float64) {
	t.Track(ts.New(ts.First, 0, 1, obs(), 0))
	for i, r := range rewards {
		stepType := ts.Mid
		if i == len(rewards)-1 {
			stepType = ts.Last
		}
		t.Track(ts.New(stepType, r, 1, obs(), i+1))
	}
}

func TestReturnAccumulatesEpisodes(t *testing.T) {
	tracker := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))

	episode(tracker, []float64{1, 2, 3})
	episode(tracker, []float64{0.5, 0.25})

	data := tracker.(*Return).Data()
	if len(data) != 2 {
		t.Fatalf("tracked %v episodes, expected 2", len(data))
	}
	if math.Abs(data[0]-6) > 1e-12 {
		t.Errorf("first episodic return %v, expected 6", data[0])
	}
	if math.Abs(data[1]-0.75) > 1e-12 {
		t.Errorf("second episodic return %v, expected 0.75", data[1])
	}
}

func TestReturnIgnoresUnfinishedEpisode(t *testing.T) {
	tracker := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))

	tracker.Track(ts.New(ts.First, 0, 1, obs(), 0))
	tracker.Track(ts.New(ts.Mid, 5, 1, obs(), 1))

	if got := len(tracker.(*Return).Data()); got != 0 {
		t.Errorf("unfinished episode recorded %v returns", got)
	}
}

func TestReturnPanicsOnNonSequentialSteps(t *testing.T) {
	tracker := NewReturn(filepath.Join(t.TempDir(), "returns.bin"))
	tracker.Track(ts.New(ts.First, 0, 1, obs(), 0))

	defer func() {
		if recover() == nil {
			t.Error("expected panic for non-sequential timesteps")
		}
	}()
	tracker.Track(ts.New(ts.Mid, 1, 1, obs(), 5))
}

func TestReturnSaveLoadRoundTrip(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "returns.bin")
	tracker := NewReturn(filename)

	episode(tracker, []float64{1, 1, 1})
	episode(tracker, []float64{2, 2})
	tracker.Save()

	data, err := LoadData(filename)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 2 || data[0] != 3 || data[1] != 4 {
		t.Errorf("loaded %v, expected [3 4]", data)
	}
}

func TestEpisodeLength(t *testing.T) {
	tracker := NewEpisodeLength(filepath.Join(t.TempDir(), "lengths.bin"))

	episode(tracker, []float64{1, 1, 1})
	episode(tracker, []float64{1})

	data := tracker.(*EpisodeLength).Data()
	if len(data) != 2 {
		t.Fatalf("tracked %v episodes, expected 2", len(data))
	}
	if data[0] != 3 || data[1] != 1 {
		t.Errorf("episode lengths %v, expected [3 1]", data)
	}
}

func TestLoadDataMissingFile(t *testing.T) {
	if _, err := LoadData(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Error("expected error loading a missing file")
	}
}
