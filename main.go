package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/olivier-w/glyphreel/internal/engine"
	"github.com/olivier-w/glyphreel/internal/media"
	"github.com/olivier-w/glyphreel/internal/render"
	"github.com/olivier-w/glyphreel/internal/video"
)

// openOptions is everything the command line decides about a session.
type openOptions struct {
	path       string
	lyricsPath string
	audioPath  string

	strategy  render.Strategy
	rampMode  render.RampMode
	rampOpts  render.RampOptions
	width     int
	height    int
	maxWidth  int
	threshold float64

	logPath  string
	logLevel slog.Level
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := openLogger(opts.logPath, opts.logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	program := tea.NewProgram(newLoadingModel(opts, log), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := program.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if lm, ok := final.(loadingModel); ok && lm.err != nil {
		closeLog()
		fmt.Fprintf(os.Stderr, "Error: %v\n", lm.err)
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (openOptions, error) {
	fs := flag.NewFlagSet("glyphreel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "usage: glyphreel [flags] VIDEO\n\nPlays VIDEO as text in the terminal, with its audio and timed lyrics.\n\n")
		fs.PrintDefaults()
	}

	var (
		opts     openOptions
		strategy string
		ramp     string
		level    string
	)
	fs.StringVar(&opts.lyricsPath, "lyrics", "", "LRC lyrics `file` (default: VIDEO's sibling .lrc)")
	fs.StringVar(&opts.audioPath, "audio", "", "audio track `file` (default: VIDEO's own audio)")
	fs.StringVar(&strategy, "strategy", render.StrategyLazy.String(), "frame rendering: eager or lazy")
	fs.StringVar(&ramp, "ramp", render.RampClassic.String(), "glyph ramp: classic, blocks or weighted")
	fs.IntVar(&opts.rampOpts.Length, "ramp-len", render.DefaultRampLength, "glyphs in a weighted ramp")
	fs.StringVar(&opts.rampOpts.Font, "font", render.DefaultFont, "font density table for the weighted ramp")
	fs.IntVar(&opts.width, "width", 0, "grid width in cells (0 fits the terminal)")
	fs.IntVar(&opts.height, "height", 0, "grid height in cells (0 follows the aspect ratio)")
	fs.IntVar(&opts.maxWidth, "max-width", video.DefaultMaxWidth, "decode width cap in pixels")
	fs.Float64Var(&opts.threshold, "threshold", engine.DefaultCompletionThreshold, "playhead fraction that counts as the end")
	fs.StringVar(&opts.logPath, "log", "", "append logs to `file`")
	fs.StringVar(&level, "log-level", "info", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return openOptions{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return openOptions{}, fmt.Errorf("expected one video file, got %d arguments", fs.NArg())
	}
	opts.path = fs.Arg(0)

	var err error
	if opts.strategy, err = render.ParseStrategy(strategy); err != nil {
		return openOptions{}, err
	}
	if opts.rampMode, err = render.ParseRampMode(ramp); err != nil {
		return openOptions{}, err
	}
	if err := opts.logLevel.UnmarshalText([]byte(level)); err != nil {
		return openOptions{}, fmt.Errorf("invalid -log-level %q", level)
	}
	if opts.width < 0 || opts.height < 0 || opts.maxWidth < 2 {
		return openOptions{}, errors.New("-width, -height and -max-width must be positive")
	}
	if opts.height > 0 && opts.width == 0 {
		return openOptions{}, errors.New("-height needs -width")
	}
	if !(opts.threshold > 0 && opts.threshold <= 1) {
		return openOptions{}, fmt.Errorf("-threshold must be in (0, 1], got %v", opts.threshold)
	}

	if err := checkFile(opts.path, media.IsVideoExt); err != nil {
		if errors.Is(err, errUnsupported) {
			return openOptions{}, fmt.Errorf("%w (supported: %s)", err, media.SupportedExtsList())
		}
		return openOptions{}, err
	}
	if opts.audioPath != "" {
		if err := checkFile(opts.audioPath, func(ext string) bool {
			return media.IsAudioExt(ext) || media.IsVideoExt(ext)
		}); err != nil {
			return openOptions{}, fmt.Errorf("-audio: %w", err)
		}
	}
	if opts.lyricsPath != "" {
		if err := checkFile(opts.lyricsPath, media.IsLyricsExt); err != nil {
			return openOptions{}, fmt.Errorf("-lyrics: %w", err)
		}
	}
	return opts, nil
}

var errUnsupported = errors.New("unsupported format")

func checkFile(path string, supported func(string) bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if !supported(ext) {
		return fmt.Errorf("%w %q", errUnsupported, ext)
	}
	return nil
}

// openLogger returns a discarding logger unless path is set. The TUI owns
// the terminal, so logs only ever go to a file.
func openLogger(path string, level slog.Level) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	log := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	closed := false
	return log, func() {
		if !closed {
			closed = true
			_ = f.Close()
		}
	}, nil
}
