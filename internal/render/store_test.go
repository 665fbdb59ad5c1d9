package render

import (
	"errors"
	"testing"
)

func TestEagerAndLazyProduceIdenticalGrids(t *testing.T) {
	ramp, err := BuildRamp(RampWeighted, RampOptions{})
	if err != nil {
		t.Fatal(err)
	}
	c := Config{Resolution: Resolution{Width: 7, Height: 3}, Ramp: ramp, Font: DefaultFont}
	frames := randomFrames(12, 32, 18, 11)

	eager, err := NewStore(StrategyEager, frames, c, nil)
	if err != nil {
		t.Fatalf("eager: %v", err)
	}
	lazy, err := NewStore(StrategyLazy, frames, c, nil)
	if err != nil {
		t.Fatalf("lazy: %v", err)
	}
	if eager.Strategy() != StrategyEager || lazy.Strategy() != StrategyLazy {
		t.Fatal("unexpected strategy labels")
	}

	for i := range frames {
		a, err := eager.Frame(i)
		if err != nil {
			t.Fatal(err)
		}
		b, err := lazy.Frame(i)
		if err != nil {
			t.Fatal(err)
		}
		if a != b {
			t.Fatalf("frame %d: eager %q != lazy %q", i, a, b)
		}
	}
}

func TestBufferReportsProgress(t *testing.T) {
	c1, _ := testConfigs(t)
	var last, calls int
	_, err := NewBuffer(randomFrames(9, 8, 4, 12), c1, func(done, total int) {
		if done < last {
			t.Errorf("progress went backwards: %d after %d", done, last)
		}
		if total != 9 {
			t.Errorf("expected total 9, got %d", total)
		}
		last = done
		calls++
	})
	if err != nil {
		t.Fatal(err)
	}
	if last != 9 {
		t.Fatalf("expected progress to reach 9, got %d", last)
	}
	if calls != 10 {
		t.Fatalf("expected an initial report plus one per frame, got %d", calls)
	}
}

func TestBufferSetConfigSwapsWholeSet(t *testing.T) {
	c1, c2 := testConfigs(t)
	frames := randomFrames(3, 8, 4, 13)
	b, err := NewBuffer(frames, c1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.SetConfig(c2); err != nil {
		t.Fatal(err)
	}
	if b.Config() != c2 {
		t.Fatal("expected c2 to be current")
	}
	for i, f := range frames {
		want, _ := RenderConfig(f, c2)
		got, err := b.Frame(i)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("frame %d: expected %q, got %q", i, want, got)
		}
	}
}

func TestBufferKeepsOldGridsWhenRerenderFails(t *testing.T) {
	c1, c2 := testConfigs(t)
	frames := randomFrames(2, 8, 4, 14)
	b, err := NewBuffer(frames, c1, nil)
	if err != nil {
		t.Fatal(err)
	}
	before, _ := b.Frame(1)

	frames[1].Pix = frames[1].Pix[:3]
	if err := b.SetConfig(c2); !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected malformed frame error, got %v", err)
	}
	after, err := b.Frame(1)
	if err != nil {
		t.Fatal(err)
	}
	if after != before || b.Config() != c1 {
		t.Fatal("expected previous grids and config to stay current")
	}
}

func TestStrategySelection(t *testing.T) {
	if s, err := ParseStrategy("lazy"); err != nil || s != StrategyLazy {
		t.Fatalf("expected lazy, got %v (%v)", s, err)
	}
	if _, err := ParseStrategy("psychic"); !errors.Is(err, ErrUnsupportedConfiguration) {
		t.Fatalf("expected unsupported strategy, got %v", err)
	}
	c1, _ := testConfigs(t)
	if _, err := NewStore(Strategy(7), nil, c1, nil); !errors.Is(err, ErrUnsupportedConfiguration) {
		t.Fatalf("expected unsupported strategy, got %v", err)
	}
}
