package util

import (
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := map[time.Duration]string{
		0:                                     "0:00",
		-time.Second:                          "0:00",
		59*time.Second + 900*time.Millisecond: "0:59",
		61 * time.Second:                      "1:01",
		time.Hour + 5*time.Second:             "60:05",
	}
	for d, want := range cases {
		if got := FormatDuration(d); got != want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", d, got, want)
		}
	}
}

func TestFormatProgressAndFraction(t *testing.T) {
	if got := FormatProgress(30*time.Second, 2*time.Minute); got != "0:30 / 2:00" {
		t.Fatalf("unexpected progress %q", got)
	}
	if got := Fraction(0.25, 2*time.Minute); got != 30*time.Second {
		t.Fatalf("expected 30s, got %v", got)
	}
}
