package ui

import (
	"math"

	"github.com/charmbracelet/harmonica"
)

// jumpThreshold is the playhead move, as a fraction, that the scrub bar
// follows at once instead of easing toward.
const jumpThreshold = 0.05

// scrubSpring eases the drawn playhead toward the engine's.
type scrubSpring struct {
	spring harmonica.Spring
	pos    float64
	vel    float64
}

func newScrubSpring(fps int) scrubSpring {
	return scrubSpring{spring: harmonica.NewSpring(harmonica.FPS(max(fps, 1)), 6.0, 1.0)}
}

func (s *scrubSpring) step(target float64) float64 {
	if math.Abs(target-s.pos) > jumpThreshold {
		s.snap(target)
		return s.pos
	}
	s.pos, s.vel = s.spring.Update(s.pos, s.vel, target)
	s.pos = max(0, min(s.pos, 1))
	return s.pos
}

func (s *scrubSpring) snap(target float64) {
	s.pos, s.vel = target, 0
}
