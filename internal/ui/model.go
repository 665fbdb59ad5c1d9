// Package ui is the terminal front end: it polls the engine for the current
// glyph grid and cue and maps keys and mouse drags onto engine controls.
package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/glyphreel/internal/engine"
	"github.com/olivier-w/glyphreel/internal/render"
	"github.com/olivier-w/glyphreel/internal/util"
)

const (
	// ChromeLines is the number of rows the view uses besides the grid.
	ChromeLines = 9
	headerLines = 2
	seekStep    = 5 * time.Second
	minScale    = 0.25
)

// Options configures the playback model.
type Options struct {
	Title       string
	RampMode    render.RampMode
	RampOptions render.RampOptions
	// FitWindow makes the grid follow the terminal size.
	FitWindow    bool
	SourceWidth  int
	SourceHeight int
	Logger       *slog.Logger
}

// Model is the Bubbletea model for playback.
type Model struct {
	engine  *engine.Engine
	opts    Options
	keys    keyMap
	help    help.Model
	spring  scrubSpring
	applier *applier
	log     *slog.Logger

	cfg      render.Config // last requested config
	rampMode render.RampMode
	base     render.Resolution // resolution at scale 1
	scale    float64

	width    int
	height   int
	grid     string
	gridH    int
	cue      string
	snap     engine.Snapshot
	busy     string
	errMsg   string
	dragging bool
	quitting bool
}

// New creates the playback model. The engine's loop should already be running.
func New(e *engine.Engine, opts Options) Model {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cfg := e.Config()
	m := Model{
		engine:   e,
		opts:     opts,
		keys:     defaultKeyMap(),
		help:     help.New(),
		spring:   newScrubSpring(int(math.Round(e.FrameRate()))),
		applier:  &applier{},
		log:      log,
		cfg:      cfg,
		rampMode: opts.RampMode,
		base:     cfg.Resolution,
		scale:    1,
	}
	m.poll()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		frameTickCmd(m.engine.TickInterval()),
		tea.SetWindowTitle(windowTitle(m.opts.Title, true)),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameTickMsg:
		if !m.poll() {
			return m.quit()
		}
		return m, frameTickCmd(m.engine.TickInterval())

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		if !m.opts.FitWindow {
			return m, nil
		}
		fit := render.FitResolution(msg.Width, msg.Height-ChromeLines, m.opts.SourceWidth, m.opts.SourceHeight)
		if fit.Width == 0 {
			return m, nil
		}
		m.base = fit
		return m, m.applyResolution()

	case configAppliedMsg:
		if msg.skipped {
			return m, nil
		}
		m.busy = ""
		if errors.Is(msg.err, engine.ErrDestroyed) {
			return m.quit()
		}
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("%s: %v", msg.label, msg.err)
			m.log.Warn("render change failed", "change", msg.label, "err", msg.err)
			m.resync()
		} else {
			m.errMsg = ""
		}
		m.poll()
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()
	case key.Matches(msg, m.keys.Toggle):
		m.report("pause", m.engine.Toggle())
		m.poll()
		return m, tea.SetWindowTitle(windowTitle(m.opts.Title, m.snap.State != engine.Playing))
	case key.Matches(msg, m.keys.Back):
		m.seekBy(-seekStep)
	case key.Matches(msg, m.keys.Forward):
		m.seekBy(seekStep)
	case key.Matches(msg, m.keys.Restart):
		m.report("restart", m.engine.SetPosition(0))
	case key.Matches(msg, m.keys.Smaller):
		m.scale = max(minScale, m.scale*0.8)
		return m, m.applyResolution()
	case key.Matches(msg, m.keys.Larger):
		maxScale := 4.0
		if m.opts.FitWindow {
			maxScale = 1
		}
		m.scale = min(maxScale, m.scale*1.25)
		return m, m.applyResolution()
	case key.Matches(msg, m.keys.Ramp):
		next := m.rampMode.Next()
		ramp, err := render.BuildRamp(next, m.opts.RampOptions)
		if err != nil {
			m.report("glyphs", err)
			return m, nil
		}
		m.rampMode = next
		m.cfg = m.cfg.WithRamp(ramp)
		return m, m.apply("glyphs " + ramp.Name())
	case key.Matches(msg, m.keys.Strategy):
		next := render.StrategyEager
		if m.engine.Strategy() == render.StrategyEager {
			next = render.StrategyLazy
		}
		m.busy = "switching to " + next.String() + "..."
		e := m.engine
		return m, func() tea.Msg {
			return configAppliedMsg{label: "strategy " + next.String(), err: e.SetStrategy(next)}
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	default:
		return m, nil
	}
	m.poll()
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	l := m.layout()
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || msg.Y != l.row || msg.X < l.col0 || msg.X >= l.col0+l.width {
			return m, nil
		}
		if err := m.engine.BeginDrag(); err != nil {
			m.report("drag", err)
			return m, nil
		}
		m.dragging = true
		m.report("seek", m.engine.SetPosition(fractionAt(msg.X, l.col0, l.width)))
	case tea.MouseActionMotion:
		if !m.dragging {
			return m, nil
		}
		m.report("seek", m.engine.SetPosition(fractionAt(msg.X, l.col0, l.width)))
	case tea.MouseActionRelease:
		if !m.dragging {
			return m, nil
		}
		m.dragging = false
		m.report("drag", m.engine.EndDrag())
	default:
		return m, nil
	}
	if !m.poll() {
		return m.quit()
	}
	return m, nil
}

// poll refreshes the picture and playhead from the engine. It reports false
// once the engine has been destroyed.
func (m *Model) poll() bool {
	grid, cue, err := m.engine.CurrentFrameAndCue()
	if errors.Is(err, engine.ErrDestroyed) {
		return false
	}
	if err != nil {
		m.errMsg = err.Error()
		return true
	}
	m.grid = grid
	m.gridH = strings.Count(grid, "\n") + 1
	m.cue = cue
	m.snap = m.engine.Snapshot()
	if m.snap.State.Dragging() {
		m.spring.snap(m.snap.Position)
	} else {
		m.spring.step(m.snap.Position)
	}
	return true
}

func (m *Model) seekBy(d time.Duration) {
	total := m.engine.Duration()
	if total <= 0 {
		return
	}
	f := m.engine.Position() + d.Seconds()/total.Seconds()
	m.report("seek", m.engine.SetPosition(max(0, min(f, 1))))
}

func (m *Model) report(action string, err error) {
	if err == nil {
		return
	}
	m.errMsg = action + ": " + err.Error()
	m.log.Debug("control rejected", "action", action, "err", err)
}

func (m *Model) applyResolution() tea.Cmd {
	m.cfg = m.cfg.WithResolution(m.base.Scale(m.scale))
	return m.apply("resolution " + m.cfg.Resolution.String())
}

// resync drops a rejected render change so the next one builds on what the
// engine actually renders.
func (m *Model) resync() {
	m.cfg = m.engine.Config()
	if m.cfg.Ramp == nil {
		return
	}
	name, _, _ := strings.Cut(m.cfg.Ramp.Name(), "/")
	if mode, err := render.ParseRampMode(name); err == nil {
		m.rampMode = mode
	}
}

func (m *Model) apply(label string) tea.Cmd {
	m.busy = "rendering " + label + "..."
	return m.applier.cmd(m.engine, m.cfg, label)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.quitting = true
	m.dragging = false
	if err := m.engine.Destroy(); err != nil {
		m.log.Warn("shutting down engine", "err", err)
	}
	return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
}

// progressLayout places the scrub bar on screen.
type progressLayout struct {
	row     int
	col0    int
	width   int
	icon    string
	elapsed string
	total   string
}

func (m Model) layout() progressLayout {
	total := m.engine.Duration()
	l := progressLayout{
		icon:    stateIcon(m.snap.State),
		elapsed: util.FormatDuration(util.Fraction(m.snap.Position, total)),
		total:   util.FormatDuration(total),
	}
	l.row = headerLines + max(m.gridH, 1) + 3
	l.col0 = 2 + lipgloss.Width(l.icon) + 1 + len(l.elapsed) + 1

	w := m.width
	if w < 30 {
		w = 60
	}
	l.width = max(w-l.col0-1-len(l.total)-2, 10)
	return l
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString("  ")
	b.WriteString(headerStyle.Render("glyphreel"))
	if m.opts.Title != "" {
		b.WriteString("  ")
		b.WriteString(titleStyle.Render(m.opts.Title))
	}
	b.WriteString("\n\n")

	b.WriteString(m.grid)
	b.WriteString("\n\n  ")
	b.WriteString(cueStyle.Render(m.cue))
	b.WriteString("\n\n")

	l := m.layout()
	b.WriteString("  ")
	b.WriteString(statusStyle.Render(l.icon))
	b.WriteString(" ")
	b.WriteString(timeStyle.Render(l.elapsed))
	b.WriteString(" ")
	b.WriteString(renderProgressBar(m.spring.pos, l.width))
	b.WriteString(" ")
	b.WriteString(timeStyle.Render(l.total))
	b.WriteString("\n")

	b.WriteString("  ")
	b.WriteString(statusStyle.Render(m.statusText()))
	switch {
	case m.busy != "":
		b.WriteString("  ")
		b.WriteString(timeStyle.Render(m.busy))
	case m.errMsg != "":
		b.WriteString("  ")
		b.WriteString(errorStyle.Render(m.errMsg))
	}
	b.WriteString("\n\n  ")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) statusText() string {
	ramp := "?"
	if m.cfg.Ramp != nil {
		ramp = m.cfg.Ramp.Name()
	}
	return fmt.Sprintf("%s · %s · %s · %s", m.snap.State, ramp, m.engine.Strategy(), m.cfg.Resolution)
}

func windowTitle(title string, paused bool) string {
	if title == "" {
		title = "glyphreel"
	}
	if paused {
		return "⏸ " + title
	}
	return "▶ " + title
}

// applier runs render changes off the update loop one at a time. A change
// superseded by a newer one before it starts is skipped.
type applier struct {
	mu     sync.Mutex
	latest atomic.Uint64
}

func (a *applier) cmd(e *engine.Engine, c render.Config, label string) tea.Cmd {
	gen := a.latest.Add(1)
	return func() tea.Msg {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.latest.Load() != gen {
			return configAppliedMsg{label: label, skipped: true}
		}
		return configAppliedMsg{label: label, err: e.SetConfiguration(c)}
	}
}
