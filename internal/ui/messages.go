package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type frameTickMsg time.Time

// configAppliedMsg reports the outcome of a render change run off the
// update loop.
type configAppliedMsg struct {
	label   string
	err     error
	skipped bool
}

func frameTickCmd(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}
