package render

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// Strategy selects how rendered frames are kept.
type Strategy uint8

const (
	// StrategyEager renders every frame up front; access is a slice index.
	StrategyEager Strategy = iota
	// StrategyLazy renders on first access and memoizes per config.
	StrategyLazy
)

func (s Strategy) String() string {
	switch s {
	case StrategyEager:
		return "eager"
	case StrategyLazy:
		return "lazy"
	default:
		return fmt.Sprintf("Strategy(%d)", uint8(s))
	}
}

// ParseStrategy resolves a strategy by name.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "eager":
		return StrategyEager, nil
	case "lazy":
		return StrategyLazy, nil
	default:
		return 0, unsupported("render strategy", s)
	}
}

// Store hands out rendered frames under a changeable config.
type Store interface {
	Frame(i int) (string, error)
	SetConfig(c Config) error
	Config() Config
	Len() int
	Strategy() Strategy
}

// ProgressFunc receives pre-render progress. Calls are serialized and done
// never decreases.
type ProgressFunc func(done, total int)

// NewStore builds the store for strategy over frames.
func NewStore(s Strategy, frames []Frame, c Config, progress ProgressFunc) (Store, error) {
	switch s {
	case StrategyEager:
		b, err := NewBuffer(frames, c, progress)
		if err != nil {
			return nil, err
		}
		return b, nil
	case StrategyLazy:
		cache, err := NewCache(frames, c)
		if err != nil {
			return nil, err
		}
		return cache, nil
	default:
		return nil, unsupported("render strategy", s.String())
	}
}

// bufferState pairs a full set of grids with the config they were rendered
// under. It is swapped as a unit.
type bufferState struct {
	config Config
	grids  []string
}

// Buffer is the eager strategy.
type Buffer struct {
	frames   []Frame
	state    atomic.Pointer[bufferState]
	progress ProgressFunc

	mu sync.Mutex // serializes re-renders
}

// NewBuffer renders every frame under c before returning.
func NewBuffer(frames []Frame, c Config, progress ProgressFunc) (*Buffer, error) {
	b := &Buffer{frames: frames, progress: progress}
	if err := b.SetConfig(c); err != nil {
		return nil, err
	}
	return b, nil
}

// Frame returns the pre-rendered grid for frame i.
func (b *Buffer) Frame(i int) (string, error) {
	st := b.state.Load()
	if i < 0 || i >= len(st.grids) {
		return "", fmt.Errorf("%w: %d of %d", ErrFrameIndex, i, len(st.grids))
	}
	return st.grids[i], nil
}

// SetConfig re-renders every frame under c and then swaps the result in.
// Readers keep seeing the previous grids until the swap. On error the
// previous grids stay current.
func (b *Buffer) SetConfig(c Config) error {
	if err := c.Validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	grids, err := renderAll(b.frames, c, b.progress)
	if err != nil {
		return err
	}
	b.state.Store(&bufferState{config: c, grids: grids})
	return nil
}

// Config returns the config the current grids were rendered under.
func (b *Buffer) Config() Config { return b.state.Load().config }

// Len returns the number of frames.
func (b *Buffer) Len() int { return len(b.frames) }

// Strategy reports StrategyEager.
func (b *Buffer) Strategy() Strategy { return StrategyEager }

// renderAll renders frames on one worker per CPU. The first error stops the
// remaining work.
func renderAll(frames []Frame, c Config, progress ProgressFunc) ([]string, error) {
	grids := make([]string, len(frames))
	total := len(frames)

	workers := runtime.GOMAXPROCS(0)
	if workers > total {
		workers = total
	}

	var (
		next     atomic.Int64
		failed   atomic.Bool
		firstErr error
		errOnce  sync.Once
		progMu   sync.Mutex
		done     int
		wg       sync.WaitGroup
	)

	if progress != nil {
		progress(0, total)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !failed.Load() {
				i := int(next.Add(1) - 1)
				if i >= total {
					return
				}
				grid, err := RenderConfig(frames[i], c)
				if err != nil {
					errOnce.Do(func() {
						firstErr = fmt.Errorf("rendering frame %d: %w", i, err)
					})
					failed.Store(true)
					return
				}
				grids[i] = grid
				if progress != nil {
					progMu.Lock()
					done++
					progress(done, total)
					progMu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return grids, nil
}
