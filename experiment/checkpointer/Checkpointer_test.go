package checkpointer

import "testing"

// spySaveable records the filenames it was saved under
type spySaveable struct {
	saves []string
}

func (s *spySaveable) Save(filename string) error {
	s.saves = append(s.saves, filename)
	return nil
}

func TestNEpisodeSavesOnSchedule(t *testing.T) {
	spy := &spySaveable{}
	check := NewNEpisode(2, spy, FilenameEnumerator(0, "policy", "bin"))

	for i := 0; i < 5; i++ {
		if err := check.Checkpoint(); err != nil {
			t.Fatal(err)
		}
	}

	// Five episode boundaries with an interval of two yield two saves
	if len(spy.saves) != 2 {
		t.Fatalf("saved %v times, expected 2", len(spy.saves))
	}
}

func TestFilenameEnumerator(t *testing.T) {
	next := FilenameEnumerator(0, "policy", "bin")

	if got := next(); got != "policy1.bin" {
		t.Errorf("first filename %v, expected policy1.bin", got)
	}
	if got := next(); got != "policy2.bin" {
		t.Errorf("second filename %v, expected policy2.bin", got)
	}
}

func TestFilenameEnumeratorStart(t *testing.T) {
	next := FilenameEnumerator(7, "data/policy", "bin")
	if got := next(); got != "data/policy8.bin" {
		t.Errorf("filename %v, expected data/policy8.bin", got)
	}
}
