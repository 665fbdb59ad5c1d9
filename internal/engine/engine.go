// Package engine plays a pre-decoded frame sequence in lockstep with an
// audio track and a list of timed lyric cues.
package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olivier-w/glyphreel/internal/lyrics"
	"github.com/olivier-w/glyphreel/internal/render"
)

// DefaultCompletionThreshold is the playhead fraction at which playback is
// considered finished.
const DefaultCompletionThreshold = 0.999

// Audio is the audio transport the engine drives. Position reports the time
// played since the most recent Play; pausing stops that clock. Duration is
// the loaded track's length, or zero when unknown.
type Audio interface {
	Load(path string) error
	Play(start time.Duration) error
	Pause()
	Unpause()
	Position() time.Duration
	Duration() time.Duration
	Unload() error
}

// Options configures an Engine.
type Options struct {
	Strategy  render.Strategy
	Config    render.Config
	AudioPath string

	// CompletionThreshold defaults to DefaultCompletionThreshold and must lie
	// in (0, 1].
	CompletionThreshold float64
	// TickInterval defaults to one frame period.
	TickInterval time.Duration

	Logger *slog.Logger

	// OnTransition is called for every state change, with the engine lock
	// held. It must not call back into the engine.
	OnTransition func(from, to State, t Trigger)

	// Progress receives eager pre-render progress.
	Progress render.ProgressFunc
}

// Snapshot is a consistent view of the playhead.
type Snapshot struct {
	State    State
	Position float64
	CueIndex int
}

// Engine owns the transport state, the playhead and the active frame store.
type Engine struct {
	frames    []render.Frame
	fps       float64
	duration  float64 // seconds
	audioLen  float64 // seconds, 0 when unknown
	cues      *lyrics.CueList
	audio     Audio
	threshold float64
	interval  time.Duration
	progress  render.ProgressFunc
	observe   func(from, to State, t Trigger)
	log       *slog.Logger

	mu       sync.RWMutex
	state    State
	position float64
	base     float64 // fraction at the last audio Play
	cueIdx   int
	store    render.Store

	cfgMu sync.Mutex // serializes store rebuilds and config changes

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool
}

// New builds the frame store, loads the audio track and leaves the engine
// paused at the start. A nil cue list means no lyrics.
func New(src render.Source, cues *lyrics.CueList, audio Audio, opts Options) (*Engine, error) {
	if len(src.Frames) == 0 {
		return nil, errors.New("no frames to play")
	}
	if !(src.FrameRate > 0) || math.IsInf(src.FrameRate, 0) {
		return nil, &render.UnsupportedConfigurationError{Field: "frame rate", Value: formatFloat(src.FrameRate)}
	}
	if audio == nil {
		return nil, errors.New("no audio transport")
	}
	if cues == nil {
		cues = lyrics.Empty()
	}

	threshold := opts.CompletionThreshold
	if threshold == 0 {
		threshold = DefaultCompletionThreshold
	}
	if !(threshold > 0 && threshold <= 1) {
		return nil, &render.UnsupportedConfigurationError{Field: "completion threshold", Value: formatFloat(threshold)}
	}

	interval := opts.TickInterval
	if interval == 0 {
		interval = time.Duration(float64(time.Second) / src.FrameRate)
	}
	if interval <= 0 {
		return nil, &render.UnsupportedConfigurationError{Field: "tick interval", Value: interval.String()}
	}

	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	store, err := render.NewStore(opts.Strategy, src.Frames, opts.Config, opts.Progress)
	if err != nil {
		return nil, fmt.Errorf("building %s frame store: %w", opts.Strategy, err)
	}

	if err := audio.Load(opts.AudioPath); err != nil {
		return nil, fmt.Errorf("loading audio %s: %w", opts.AudioPath, err)
	}
	if err := audio.Play(0); err != nil {
		_ = audio.Unload()
		return nil, fmt.Errorf("starting audio: %w", err)
	}
	audio.Pause()

	e := &Engine{
		frames:    src.Frames,
		fps:       src.FrameRate,
		duration:  src.Seconds(),
		audioLen:  audio.Duration().Seconds(),
		cues:      cues,
		audio:     audio,
		threshold: threshold,
		interval:  interval,
		progress:  opts.Progress,
		observe:   opts.OnTransition,
		log:       log,
		state:     Paused,
		store:     store,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	log.Info("engine ready",
		"frames", len(src.Frames),
		"fps", src.FrameRate,
		"duration", e.Duration(),
		"audio_duration", seconds(e.audioLen),
		"strategy", store.Strategy().String(),
		"config", store.Config().String(),
	)
	return e, nil
}

// fire applies trigger t to the state machine. Callers hold e.mu and apply
// the audio side effects themselves.
func (e *Engine) fire(t Trigger) error {
	from := e.state
	to, err := Transition(from, t)
	if err != nil {
		return err
	}
	e.state = to
	e.log.Debug("transport", "from", from.String(), "to", to.String(), "trigger", t.String())
	if e.observe != nil {
		e.observe(from, to, t)
	}
	return nil
}

// Toggle switches between playing and paused.
func (e *Engine) Toggle() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Destroyed {
		return ErrDestroyed
	}
	return e.toggleLocked()
}

func (e *Engine) toggleLocked() error {
	if err := e.fire(TriggerToggle); err != nil {
		return err
	}
	if e.state == Playing {
		e.audio.Unpause()
	} else {
		e.audio.Pause()
	}
	return nil
}

// BeginDrag grabs the playhead. Audio pauses until EndDrag.
func (e *Engine) BeginDrag() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Destroyed {
		return ErrDestroyed
	}
	return e.beginDragLocked()
}

func (e *Engine) beginDragLocked() error {
	if err := e.fire(TriggerBeginDrag); err != nil {
		return err
	}
	if e.state == DraggingFromPlay {
		e.audio.Pause()
	}
	return nil
}

// EndDrag releases the playhead, resuming audio if it was playing before.
func (e *Engine) EndDrag() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Destroyed {
		return ErrDestroyed
	}
	return e.endDragLocked()
}

func (e *Engine) endDragLocked() error {
	if err := e.fire(TriggerEndDrag); err != nil {
		return err
	}
	if e.state == Playing {
		e.audio.Unpause()
	}
	return nil
}

// SetPosition moves the playhead to fraction f of the media. Outside a drag
// it passes through a drag of its own, so the state afterwards matches the
// state before.
func (e *Engine) SetPosition(f float64) error {
	if math.IsNaN(f) || f < 0 || f > 1 {
		return &OutOfRangeError{Value: f}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Destroyed {
		return ErrDestroyed
	}
	return e.setPositionLocked(f)
}

func (e *Engine) setPositionLocked(f float64) error {
	implicit := !e.state.Dragging()
	if implicit {
		if err := e.beginDragLocked(); err != nil {
			return err
		}
	}
	if err := e.seekLocked(f); err != nil {
		if implicit {
			_ = e.endDragLocked()
		}
		return err
	}
	if implicit {
		return e.endDragLocked()
	}
	return nil
}

// seekLocked restarts audio at f and leaves it paused. The playhead only
// moves once audio accepted the seek.
func (e *Engine) seekLocked(f float64) error {
	at := f * e.duration
	if err := e.audio.Play(seconds(at)); err != nil {
		return fmt.Errorf("seeking audio to %.3fs: %w", at, err)
	}
	e.audio.Pause()
	e.position = f
	e.base = f
	e.cueIdx = e.cues.Index(at)
	return nil
}

// Destroy stops playback for good and releases the audio track. It is safe
// to call more than once and from any state.
func (e *Engine) Destroy() error {
	e.mu.Lock()
	if e.state == Destroyed {
		e.mu.Unlock()
		return nil
	}
	_ = e.fire(TriggerDestroy)
	err := e.audio.Unload()
	e.mu.Unlock()

	e.stopOnce.Do(func() { close(e.stop) })
	e.log.Info("engine destroyed")
	if err != nil {
		return fmt.Errorf("unloading audio: %w", err)
	}
	return nil
}

// Position returns the playhead as a fraction in [0, 1].
func (e *Engine) Position() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// State returns the transport state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Snapshot returns state, position and cue index read together.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{State: e.state, Position: e.position, CueIndex: e.cueIdx}
}

// CurrentFrameAndCue returns the grid for the frame under the playhead and
// the text of the active cue. Both come from the same playhead reading.
func (e *Engine) CurrentFrameAndCue() (grid, cue string, err error) {
	e.mu.RLock()
	if e.state == Destroyed {
		e.mu.RUnlock()
		return "", "", ErrDestroyed
	}
	pos, idx, store := e.position, e.cueIdx, e.store
	e.mu.RUnlock()

	grid, err = store.Frame(e.frameIndex(pos))
	if err != nil {
		return "", "", err
	}
	return grid, e.cues.Text(idx), nil
}

func (e *Engine) frameIndex(pos float64) int {
	n := len(e.frames)
	i := int(math.Round(pos * float64(n-1)))
	return max(0, min(i, n-1))
}

// SetConfiguration changes how frames render. The playhead is untouched.
// Under the eager strategy this re-renders every frame before returning,
// unless c equals the current config.
func (e *Engine) SetConfiguration(c render.Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	store, err := e.activeStore()
	if err != nil {
		return err
	}
	if store.Config() == c {
		return nil
	}
	if err := store.SetConfig(c); err != nil {
		return fmt.Errorf("applying render config %s: %w", c, err)
	}
	e.log.Info("render config changed", "config", c.String(), "strategy", store.Strategy().String())
	return nil
}

// Config returns the render config of the active store.
func (e *Engine) Config() render.Config {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Config()
}

// SetStrategy rebuilds the frame store under strategy s with the current
// config and swaps it in. Playback carries on with the old store meanwhile.
func (e *Engine) SetStrategy(s render.Strategy) error {
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()

	store, err := e.activeStore()
	if err != nil {
		return err
	}
	if store.Strategy() == s {
		return nil
	}
	next, err := render.NewStore(s, e.frames, store.Config(), e.progress)
	if err != nil {
		return fmt.Errorf("building %s frame store: %w", s, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == Destroyed {
		return ErrDestroyed
	}
	e.store = next
	e.log.Info("render strategy changed", "from", store.Strategy().String(), "to", s.String())
	return nil
}

// Strategy reports the active render strategy.
func (e *Engine) Strategy() render.Strategy {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Strategy()
}

func (e *Engine) activeStore() (render.Store, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.state == Destroyed {
		return nil, ErrDestroyed
	}
	return e.store, nil
}

// Duration is the media length implied by frame count and frame rate.
func (e *Engine) Duration() time.Duration { return seconds(e.duration) }

// FrameCount returns the number of source frames.
func (e *Engine) FrameCount() int { return len(e.frames) }

// FrameRate returns the source frame rate.
func (e *Engine) FrameRate() float64 { return e.fps }

// TickInterval returns the playback loop period.
func (e *Engine) TickInterval() time.Duration { return e.interval }

// Cues returns the lyric cue list.
func (e *Engine) Cues() *lyrics.CueList { return e.cues }

// tick advances the playhead from the audio clock. It reports false once the
// engine is destroyed.
func (e *Engine) tick() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Destroyed:
		return false
	case Playing:
	default:
		return true
	}

	heard := e.base*e.duration + e.audio.Position().Seconds()
	if pos := heard / e.duration; pos > e.position {
		e.position = min(pos, 1)
	}
	e.cueIdx = e.cues.Advance(e.cueIdx, e.position*e.duration)

	// A track shorter than the video stops its clock early; its end finishes
	// playback too. Half a tick of slack absorbs sample alignment.
	ended := e.audioLen > 0 && heard >= e.audioLen-e.interval.Seconds()/2
	if e.position >= e.threshold || ended {
		e.log.Debug("playback finished", "position", e.position, "audio_ended", ended)
		if err := e.rewindLocked(); err != nil {
			e.log.Warn("rewinding after playback", "err", err)
		}
	}
	return true
}

// rewindLocked pauses and returns the playhead to the start. The playhead is
// reset even when audio refuses the seek.
func (e *Engine) rewindLocked() error {
	if e.state.Dragging() {
		_ = e.endDragLocked()
	}
	if e.state == Playing {
		_ = e.toggleLocked()
	}
	err := e.setPositionLocked(0)
	if err != nil {
		e.position, e.base, e.cueIdx = 0, 0, 0
	}
	return err
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
