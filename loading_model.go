package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/olivier-w/glyphreel/internal/ui"
)

type loadingStatusMsg openStatus

type loadingDoneMsg struct {
	model ui.Model
	err   error
}

// statusFeed carries progress from the open goroutine to the loading screen.
// Sends never block and become no-ops once the feed is closed, since the
// engine keeps calling its progress hook after the loading screen is gone.
type statusFeed struct {
	mu     sync.Mutex
	ch     chan openStatus
	closed bool
}

func newStatusFeed() *statusFeed {
	return &statusFeed{ch: make(chan openStatus, 16)}
}

func (f *statusFeed) send(s openStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	select {
	case f.ch <- s:
	default:
	}
}

func (f *statusFeed) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.ch)
	}
}

// loadingModel shows progress while the video decodes and the engine is
// built, then hands the program over to the playback model.
type loadingModel struct {
	opts   openOptions
	log    *slog.Logger
	deps   collaborators
	ctx    context.Context
	cancel context.CancelFunc

	started  bool
	width    int
	height   int
	spinner  spinner.Model
	progress progress.Model
	status   openStatus
	feed     *statusFeed
	err      error
}

func newLoadingModel(opts openOptions, log *slog.Logger) loadingModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	p := progress.New(
		progress.WithScaledGradient("#FF8C00", "#FF5F1F"),
		progress.WithoutPercentage(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	return loadingModel{
		opts:     opts,
		log:      log,
		deps:     defaultCollaborators,
		ctx:      ctx,
		cancel:   cancel,
		spinner:  s,
		progress: p,
	}
}

func (m loadingModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.SetWindowTitle("glyphreel"))
}

func (m loadingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(20, min(msg.Width-8, 60))
		if m.started {
			return m, nil
		}
		// The first size tells the open pipeline how big a grid fits.
		m.started = true
		m.feed = newStatusFeed()
		return m, tea.Batch(m.waitForStatus(), m.openCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadingStatusMsg:
		m.status = openStatus(msg)
		return m, m.waitForStatus()

	case loadingDoneMsg:
		if msg.err != nil {
			m.err = msg.err
			m.cancel()
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
		cmds := []tea.Cmd{msg.model.Init()}
		if m.width > 0 || m.height > 0 {
			w, h := m.width, m.height
			cmds = append(cmds, func() tea.Msg {
				return tea.WindowSizeMsg{Width: w, Height: h}
			})
		}
		return msg.model, tea.Batch(cmds...)

	case tea.KeyMsg:
		if isLoadingQuit(msg) {
			m.cancel()
			return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
		}
	}
	return m, nil
}

func (m loadingModel) openCmd() tea.Cmd {
	ctx, opts, log, deps, feed := m.ctx, m.opts, m.log, m.deps, m.feed
	w, h := m.width, m.height
	return func() tea.Msg {
		defer feed.close()
		model, err := openMedia(ctx, opts, w, h, log, deps, feed.send)
		if err != nil {
			log.Error("open failed", "path", opts.path, "err", err)
		}
		return loadingDoneMsg{model: model, err: err}
	}
}

func (m loadingModel) waitForStatus() tea.Cmd {
	if m.feed == nil {
		return nil
	}
	ch := m.feed.ch
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return nil
		}
		return loadingStatusMsg(s)
	}
}

func (m loadingModel) View() string {
	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(loadingHeaderStyle.Render("glyphreel"))
	b.WriteString("\n\n")

	if m.status.total > 0 {
		ratio := float64(m.status.done) / float64(m.status.total)
		b.WriteString("  ")
		b.WriteString(loadingStatusStyle.Render(m.status.phase.String()))
		b.WriteString("\n  ")
		b.WriteString(m.progress.ViewAs(ratio))
		b.WriteString(fmt.Sprintf("  %.0f%%\n", ratio*100))
		b.WriteString("  ")
		b.WriteString(loadingHelpStyle.Render(fmt.Sprintf("%d / %d frames", m.status.done, m.status.total)))
		b.WriteString("\n")
	} else {
		b.WriteString("  ")
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(loadingStatusStyle.Render(m.status.phase.String()))
		b.WriteString("\n")
	}

	b.WriteString("\n  ")
	b.WriteString(loadingHelpStyle.Render("q quit"))
	b.WriteString("\n")
	return b.String()
}

func isLoadingQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

var (
	loadingHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#888888"})
	loadingStatusStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"})
	loadingHelpStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"})
)
