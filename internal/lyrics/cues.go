// Package lyrics holds timed lyric cues and finds the cue for a playback time.
package lyrics

import (
	"fmt"
	"math"
	"sort"
)

// NoLyrics is the text of the sentinel cue that ends every list.
const NoLyrics = "No Lyrics"

// tolerance lets a position that lands a hair before a cue, through float
// rounding, still select it.
const tolerance = 1e-6

// Cue is one line of lyrics shown from At seconds onward.
type Cue struct {
	At   float64
	Text string
}

// CueList is an immutable, time-ordered list of cues whose last entry is a
// sentinel at +Inf. Reloading lyrics builds a new list.
type CueList struct {
	cues []Cue
}

// NewCueList sorts a copy of cues by time (keeping the input order for equal
// times) and appends the sentinel.
func NewCueList(cues []Cue) (*CueList, error) {
	out := make([]Cue, 0, len(cues)+1)
	for i, c := range cues {
		if math.IsNaN(c.At) || math.IsInf(c.At, 0) || c.At < 0 {
			return nil, fmt.Errorf("cue %d: invalid timestamp %v", i, c.At)
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].At < out[j].At })
	out = append(out, Cue{At: math.Inf(1), Text: NoLyrics})
	return &CueList{cues: out}, nil
}

// Empty returns a list holding only the sentinel.
func Empty() *CueList {
	return &CueList{cues: []Cue{{At: math.Inf(1), Text: NoLyrics}}}
}

// Len counts cues including the sentinel.
func (l *CueList) Len() int { return len(l.cues) }

// At returns cue i.
func (l *CueList) At(i int) Cue { return l.cues[i] }

// Text returns the text of cue i, or the sentinel text when i is out of range.
func (l *CueList) Text(i int) string {
	if i < 0 || i >= len(l.cues) {
		return NoLyrics
	}
	return l.cues[i].Text
}

// Index returns the cue showing at t seconds: the last cue whose timestamp is
// at or before t. Equal timestamps resolve to the later cue. A time before the
// first cue yields 0.
func (l *CueList) Index(t float64) int {
	i := sort.Search(len(l.cues), func(i int) bool {
		return l.cues[i].At > t+tolerance
	})
	if i == 0 {
		return 0
	}
	return i - 1
}

// Advance moves i forward past every cue that has started by t. It never
// moves backward; seeks use Index instead.
func (l *CueList) Advance(i int, t float64) int {
	if i < 0 {
		i = 0
	}
	for i+1 < len(l.cues) && l.cues[i+1].At <= t+tolerance {
		i++
	}
	return i
}

// IndexLinear is Index by full scan, kept as a test oracle.
func (l *CueList) IndexLinear(t float64) int {
	best := 0
	for i, c := range l.cues {
		if c.At <= t+tolerance {
			best = i
		}
	}
	return best
}
