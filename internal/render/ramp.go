package render

import (
	"fmt"
	"math"
	"strconv"

	"github.com/mattn/go-runewidth"
)

// Ramp is an ordered glyph set from visually sparsest (index 0) to densest.
// A Ramp is never mutated; changing the glyph set means building a new one,
// and the pointer identity is what render configurations compare.
type Ramp struct {
	name   string
	glyphs []rune
}

// cellWidth measures glyphs with East Asian ambiguity disabled so the result
// does not depend on the user's locale.
var cellWidth = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

// NewRamp builds a ramp from glyphs. Every glyph must be distinct and occupy
// exactly one terminal cell, otherwise grids would not line up.
func NewRamp(name, glyphs string) (*Ramp, error) {
	rs := []rune(glyphs)
	if len(rs) == 0 {
		return nil, unsupported("glyph ramp", "empty")
	}
	seen := make(map[rune]bool, len(rs))
	for _, r := range rs {
		if seen[r] {
			return nil, unsupported("glyph ramp", fmt.Sprintf("duplicate glyph %q", r))
		}
		seen[r] = true
		if w := cellWidth.RuneWidth(r); w != 1 {
			return nil, unsupported("glyph ramp", fmt.Sprintf("glyph %q is %d cells wide", r, w))
		}
	}
	return &Ramp{name: name, glyphs: rs}, nil
}

// Name returns the label the ramp was built with.
func (r *Ramp) Name() string { return r.name }

// Len returns the number of glyphs.
func (r *Ramp) Len() int { return len(r.glyphs) }

// At returns glyph i.
func (r *Ramp) At(i int) rune { return r.glyphs[i] }

// String returns the glyphs in order.
func (r *Ramp) String() string { return string(r.glyphs) }

// Index maps a luminance in [0,1] to round(v*(N-1)), clamped to the ramp.
func (r *Ramp) Index(v float64) int {
	n := len(r.glyphs)
	if n <= 1 {
		return 0
	}
	i := int(math.Round(v * float64(n-1)))
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// Glyph returns the glyph for luminance v.
func (r *Ramp) Glyph(v float64) rune {
	return r.glyphs[r.Index(v)]
}

// RampMode selects how BuildRamp produces a glyph set.
type RampMode int

const (
	RampClassic  RampMode = iota // hand-picked ASCII/Latin-1 ramp
	RampBlocks                   // classic ramp ending in block elements
	RampWeighted                 // sampled from a measured font density table
)

const (
	classicGlyphs = " `'-·,‘”^*:;!\\|[+=><?1IiljUQTY234980M#$§%&@"
	blocksGlyphs  = " `'-·,‘”^*:;!\\|[+=><?1IiljUQTY234980▲■▌░▒▓█"

	DefaultRampLength = 70
	DefaultFont       = "Consolas"
)

var rampModeNames = map[RampMode]string{
	RampClassic:  "classic",
	RampBlocks:   "blocks",
	RampWeighted: "weighted",
}

func (m RampMode) String() string {
	if name, ok := rampModeNames[m]; ok {
		return name
	}
	return "RampMode(" + strconv.Itoa(int(m)) + ")"
}

// Next cycles classic → blocks → weighted → classic.
func (m RampMode) Next() RampMode {
	switch m {
	case RampClassic:
		return RampBlocks
	case RampBlocks:
		return RampWeighted
	default:
		return RampClassic
	}
}

// ParseRampMode resolves a mode by name.
func ParseRampMode(s string) (RampMode, error) {
	for m, name := range rampModeNames {
		if name == s {
			return m, nil
		}
	}
	return 0, unsupported("glyph ramp mode", s)
}

// RampOptions tunes BuildRamp. Only RampWeighted reads them.
type RampOptions struct {
	Length int    // glyphs to sample; 0 means DefaultRampLength
	Font   string // density table to sample; "" means DefaultFont
}

// BuildRamp constructs the ramp for mode.
func BuildRamp(mode RampMode, opts RampOptions) (*Ramp, error) {
	switch mode {
	case RampClassic:
		return NewRamp(mode.String(), classicGlyphs)
	case RampBlocks:
		return NewRamp(mode.String(), blocksGlyphs)
	case RampWeighted:
		font := opts.Font
		if font == "" {
			font = DefaultFont
		}
		table, ok := densityTables[font]
		if !ok {
			return nil, unsupported("font", font)
		}
		n := opts.Length
		if n == 0 {
			n = DefaultRampLength
		}
		if n < 0 {
			return nil, unsupported("glyph ramp length", strconv.Itoa(n))
		}
		return NewRamp(fmt.Sprintf("%s/%s/%d", mode, font, n), sampleDensity(table, n))
	default:
		return nil, unsupported("glyph ramp mode", mode.String())
	}
}
