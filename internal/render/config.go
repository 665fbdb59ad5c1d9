package render

import (
	"fmt"
	"strconv"
)

// Resolution is a glyph grid size in terminal cells.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

// Scale multiplies both sides by f, keeping each at least 1.
func (r Resolution) Scale(f float64) Resolution {
	w := int(float64(r.Width) * f)
	h := int(float64(r.Height) * f)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return Resolution{Width: w, Height: h}
}

// Config is everything that determines how a frame renders. Two configs are
// equal iff every field compares equal; the ramp compares by identity.
type Config struct {
	Resolution Resolution
	Ramp       *Ramp
	Font       string
}

// Validate rejects configs that could never render.
func (c Config) Validate() error {
	if c.Resolution.Width <= 0 || c.Resolution.Height <= 0 {
		return unsupported("resolution", c.Resolution.String())
	}
	if c.Ramp == nil {
		return unsupported("glyph ramp", "missing")
	}
	return nil
}

func (c Config) String() string {
	ramp := "<nil>"
	if c.Ramp != nil {
		ramp = c.Ramp.Name()
	}
	return fmt.Sprintf("%s %s %s", c.Resolution, ramp, c.Font)
}

// WithResolution returns c at a different grid size.
func (c Config) WithResolution(r Resolution) Config {
	c.Resolution = r
	return c
}

// WithRamp returns c using a different glyph ramp.
func (c Config) WithRamp(r *Ramp) Config {
	c.Ramp = r
	return c
}
