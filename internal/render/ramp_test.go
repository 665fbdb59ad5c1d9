package render

import (
	"errors"
	"testing"
)

func mustRamp(t *testing.T, glyphs string) *Ramp {
	t.Helper()
	r, err := NewRamp(glyphs, glyphs)
	if err != nil {
		t.Fatalf("NewRamp(%q): %v", glyphs, err)
	}
	return r
}

func TestRampIndexRoundsAndClamps(t *testing.T) {
	r := mustRamp(t, "abcde")
	cases := []struct {
		v    float64
		want int
	}{
		{0, 0},
		{1, 4},
		{0.5, 2},
		{0.374, 1},
		{0.376, 2},
		{-0.5, 0},
		{1.7, 4},
	}
	for _, c := range cases {
		if got := r.Index(c.v); got != c.want {
			t.Fatalf("Index(%v): expected %d, got %d", c.v, c.want, got)
		}
	}
}

func TestSingleGlyphRampMapsEverything(t *testing.T) {
	r := mustRamp(t, "#")
	for _, v := range []float64{0, 0.3, 1, 5} {
		if got := r.Glyph(v); got != '#' {
			t.Fatalf("Glyph(%v): expected '#', got %q", v, got)
		}
	}
}

func TestNewRampRejectsUnusableGlyphs(t *testing.T) {
	for _, glyphs := range []string{"", "aba", "a\n", "a世"} {
		_, err := NewRamp("bad", glyphs)
		if !errors.Is(err, ErrUnsupportedConfiguration) {
			t.Fatalf("NewRamp(%q): expected unsupported configuration, got %v", glyphs, err)
		}
	}
}

func TestBuildRampPresets(t *testing.T) {
	classic, err := BuildRamp(RampClassic, RampOptions{})
	if err != nil {
		t.Fatalf("classic: %v", err)
	}
	if classic.At(0) != ' ' || classic.At(classic.Len()-1) != '@' {
		t.Fatalf("unexpected classic ramp %q", classic.String())
	}

	blocks, err := BuildRamp(RampBlocks, RampOptions{})
	if err != nil {
		t.Fatalf("blocks: %v", err)
	}
	if blocks.At(blocks.Len()-1) != '█' {
		t.Fatalf("expected blocks ramp to end in a full block, got %q", blocks.String())
	}
}

func TestBuildRampWeightedSamplesDensityTable(t *testing.T) {
	r, err := BuildRamp(RampWeighted, RampOptions{})
	if err != nil {
		t.Fatalf("weighted: %v", err)
	}
	if r.Len() < 2 || r.Len() > DefaultRampLength {
		t.Fatalf("expected between 2 and %d glyphs, got %d", DefaultRampLength, r.Len())
	}
	if r.At(0) != ' ' || r.At(r.Len()-1) != '@' {
		t.Fatalf("expected ramp from ' ' to '@', got %q", r.String())
	}

	one, err := BuildRamp(RampWeighted, RampOptions{Length: 1})
	if err != nil {
		t.Fatalf("weighted length 1: %v", err)
	}
	if one.String() != " " {
		t.Fatalf("expected single blank glyph, got %q", one.String())
	}
}

func TestBuildRampRejectsUnknownSettings(t *testing.T) {
	if _, err := BuildRamp(RampMode(9), RampOptions{}); !errors.Is(err, ErrUnsupportedConfiguration) {
		t.Fatalf("expected unsupported mode error, got %v", err)
	}

	_, err := BuildRamp(RampWeighted, RampOptions{Font: "Comic Sans"})
	var cfgErr *UnsupportedConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected UnsupportedConfigurationError, got %v", err)
	}
	if cfgErr.Field != "font" {
		t.Fatalf("expected font field, got %q", cfgErr.Field)
	}
}

func TestRampModeParseAndCycle(t *testing.T) {
	m, err := ParseRampMode("weighted")
	if err != nil || m != RampWeighted {
		t.Fatalf("expected weighted, got %v (%v)", m, err)
	}
	if _, err := ParseRampMode("sparkly"); !errors.Is(err, ErrUnsupportedConfiguration) {
		t.Fatalf("expected unsupported mode, got %v", err)
	}
	if RampClassic.Next().Next().Next() != RampClassic {
		t.Fatal("expected ramp modes to cycle back to classic")
	}
}
