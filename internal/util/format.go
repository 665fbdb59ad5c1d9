package util

import (
	"fmt"
	"time"
)

// FormatDuration formats a duration as m:ss.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	m := total / 60
	s := total % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

// FormatProgress formats elapsed and total as "m:ss / m:ss".
func FormatProgress(elapsed, total time.Duration) string {
	return FormatDuration(elapsed) + " / " + FormatDuration(total)
}

// Fraction converts a fraction of total to a duration.
func Fraction(f float64, total time.Duration) time.Duration {
	return time.Duration(f * float64(total))
}
