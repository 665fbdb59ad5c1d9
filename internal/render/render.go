package render

import (
	"image"
	"math"
	"strings"
	"unicode/utf8"

	"golang.org/x/image/draw"
)

// Frame is one single-channel luminance image. Pix holds Width*Height values
// in [0,1], row-major, top to bottom.
type Frame struct {
	Width  int
	Height int
	Pix    []float32
}

// Validate reports whether the frame can be rendered.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return malformedf("dimensions %dx%d", f.Width, f.Height)
	}
	if len(f.Pix) != f.Width*f.Height {
		return malformedf("%d samples for %dx%d", len(f.Pix), f.Width, f.Height)
	}
	for i, v := range f.Pix {
		if math.IsNaN(float64(v)) {
			return malformedf("NaN sample at %d", i)
		}
	}
	return nil
}

// gray16 widens the frame into an image the x/image scalers understand.
// Out-of-range samples are clamped.
func (f Frame) gray16() *image.Gray16 {
	img := image.NewGray16(image.Rect(0, 0, f.Width, f.Height))
	for i, v := range f.Pix {
		switch {
		case v < 0:
			v = 0
		case v > 1:
			v = 1
		}
		y := uint16(math.Round(float64(v) * 0xffff))
		img.Pix[i*2] = uint8(y >> 8)
		img.Pix[i*2+1] = uint8(y)
	}
	return img
}

// Source is a decoded video: its frames and their rate.
type Source struct {
	Frames    []Frame
	FrameRate float64
}

// Seconds returns the playback length implied by the frame count and rate.
func (s Source) Seconds() float64 {
	if s.FrameRate <= 0 {
		return 0
	}
	return float64(len(s.Frames)) / s.FrameRate
}

// Render converts f into a width x height glyph grid. Rows are joined with
// '\n' and there is no trailing newline.
//
// Resampling uses a bilinear kernel whose support widens when shrinking, so
// every output cell averages the source area it covers. Render has no side
// effects and may be called concurrently.
func Render(f Frame, width, height int, ramp *Ramp) (string, error) {
	if err := f.Validate(); err != nil {
		return "", err
	}
	if width <= 0 || height <= 0 {
		return "", unsupported("resolution", Resolution{Width: width, Height: height}.String())
	}
	if ramp == nil || ramp.Len() == 0 {
		return "", unsupported("glyph ramp", "missing")
	}

	src := f.gray16()
	dst := src
	if width != f.Width || height != f.Height {
		dst = image.NewGray16(image.Rect(0, 0, width, height))
		draw.BiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	}

	var sb strings.Builder
	sb.Grow(height * (width*utf8.UTFMax + 1))
	for y := 0; y < height; y++ {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := 0; x < width; x++ {
			v := float64(dst.Gray16At(x, y).Y) / 0xffff
			sb.WriteRune(ramp.Glyph(v))
		}
	}
	return sb.String(), nil
}

// RenderConfig renders f under c.
func RenderConfig(f Frame, c Config) (string, error) {
	return Render(f, c.Resolution.Width, c.Resolution.Height, c.Ramp)
}
