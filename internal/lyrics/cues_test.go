package lyrics

import (
	"math"
	"math/rand"
	"testing"
)

func mustList(t *testing.T, cues ...Cue) *CueList {
	t.Helper()
	l, err := NewCueList(cues)
	if err != nil {
		t.Fatalf("NewCueList: %v", err)
	}
	return l
}

func TestIndexSelectsLatestStartedCue(t *testing.T) {
	l := mustList(t, Cue{0, "intro"}, Cue{10, "verse"}, Cue{25, "chorus"})
	const total = 50.0

	cases := []struct {
		fraction float64
		want     int
	}{
		{0.0, 0},
		{0.4, 1},
		{0.6, 2},
		{0.2, 1},
		{1.0, 2},
	}
	for _, c := range cases {
		if got := l.Index(c.fraction * total); got != c.want {
			t.Fatalf("position %.2f: expected cue %d, got %d", c.fraction, c.want, got)
		}
	}
}

func TestIndexBeforeFirstCueAndTies(t *testing.T) {
	l := mustList(t, Cue{5, "a"}, Cue{5, "b"}, Cue{9, "c"})
	if got := l.Index(1); got != 0 {
		t.Fatalf("expected 0 before first cue, got %d", got)
	}
	if got := l.Index(5); got != 1 {
		t.Fatalf("expected tie to resolve to later cue 1, got %d", got)
	}
	if l.Text(l.Index(5)) != "b" {
		t.Fatalf("expected text b, got %q", l.Text(l.Index(5)))
	}
}

func TestSentinelTerminatesEveryList(t *testing.T) {
	l := mustList(t, Cue{3, "only"})
	if l.Len() != 2 {
		t.Fatalf("expected cue plus sentinel, got %d", l.Len())
	}
	last := l.At(l.Len() - 1)
	if !math.IsInf(last.At, 1) || last.Text != NoLyrics {
		t.Fatalf("unexpected sentinel %+v", last)
	}
	if got := l.Index(1e12); got != 0 {
		t.Fatalf("expected search to stop before the sentinel, got %d", got)
	}

	empty := Empty()
	if empty.Index(42) != 0 || empty.Text(0) != NoLyrics {
		t.Fatal("expected empty list to show the sentinel")
	}
}

func TestIndexMatchesLinearOracle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cues := make([]Cue, 200)
	for i := range cues {
		cues[i] = Cue{At: float64(rng.Intn(600)) + rng.Float64(), Text: "x"}
	}
	l := mustList(t, cues...)
	for n := 0; n < 2000; n++ {
		ts := rng.Float64() * 620
		if got, want := l.Index(ts), l.IndexLinear(ts); got != want {
			t.Fatalf("t=%v: binary search %d, linear %d", ts, got, want)
		}
	}
}

func TestAdvanceOnlyMovesForward(t *testing.T) {
	l := mustList(t, Cue{0, "a"}, Cue{10, "b"}, Cue{25, "c"})
	if got := l.Advance(0, 26); got != 2 {
		t.Fatalf("expected to skip ahead to 2, got %d", got)
	}
	if got := l.Advance(2, 0); got != 2 {
		t.Fatalf("expected no backward movement, got %d", got)
	}
	if got := l.Advance(0, 9.99); got != 0 {
		t.Fatalf("expected to stay on 0, got %d", got)
	}
}

func TestNewCueListSortsAndValidates(t *testing.T) {
	l := mustList(t, Cue{20, "late"}, Cue{1, "early"}, Cue{20, "late2"})
	if l.At(0).Text != "early" || l.At(1).Text != "late" || l.At(2).Text != "late2" {
		t.Fatalf("unexpected order: %+v %+v %+v", l.At(0), l.At(1), l.At(2))
	}
	if _, err := NewCueList([]Cue{{At: math.NaN()}}); err == nil {
		t.Fatal("expected NaN timestamp to be rejected")
	}
}
