package ui

import (
	"strings"

	"github.com/olivier-w/glyphreel/internal/engine"
)

func renderProgressBar(ratio float64, width int) string {
	if width < 1 {
		return ""
	}
	ratio = max(0, min(ratio, 1))
	filled := int(ratio * float64(width))
	if filled >= width {
		return strings.Repeat("━", width)
	}
	return strings.Repeat("━", filled) + "●" + strings.Repeat("─", width-filled-1)
}

func stateIcon(s engine.State) string {
	switch s {
	case engine.Playing:
		return "▶"
	case engine.DraggingFromPlay, engine.DraggingFromPause:
		return "⇆"
	default:
		return "❚❚"
	}
}

// fractionAt maps column x on a bar starting at col0 with width cells to a
// playhead fraction.
func fractionAt(x, col0, width int) float64 {
	if width <= 1 {
		return 0
	}
	f := float64(x-col0) / float64(width-1)
	return max(0, min(f, 1))
}
