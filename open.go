package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/olivier-w/glyphreel/internal/engine"
	"github.com/olivier-w/glyphreel/internal/lyrics"
	"github.com/olivier-w/glyphreel/internal/media"
	"github.com/olivier-w/glyphreel/internal/player"
	"github.com/olivier-w/glyphreel/internal/render"
	"github.com/olivier-w/glyphreel/internal/ui"
	"github.com/olivier-w/glyphreel/internal/video"
)

// Terminal size assumed when none is known yet.
const (
	fallbackCols = 80
	fallbackRows = 24
)

type openPhase uint8

const (
	phaseDecoding openPhase = iota
	phaseLyrics
	phaseRendering
	phaseAudio
)

func (p openPhase) String() string {
	switch p {
	case phaseDecoding:
		return "Decoding video..."
	case phaseLyrics:
		return "Reading lyrics..."
	case phaseRendering:
		return "Rendering frames..."
	case phaseAudio:
		return "Loading audio..."
	}
	return "Opening..."
}

// openStatus reports progress through the open pipeline. total is zero when
// the phase has no frame count.
type openStatus struct {
	phase openPhase
	done  int
	total int
}

// collaborators are the pieces openMedia wires together, replaceable in tests.
type collaborators struct {
	loadVideo func(ctx context.Context, path string, opts video.LoadOptions) (render.Source, error)
	newAudio  func(log *slog.Logger) engine.Audio
}

var defaultCollaborators = collaborators{
	loadVideo: video.Load,
	newAudio:  func(log *slog.Logger) engine.Audio { return player.New(log) },
}

// openMedia decodes the video, reads the lyrics, builds and starts the engine
// and returns the playback model. termW and termH size the grid when no
// explicit width was given.
func openMedia(ctx context.Context, opts openOptions, termW, termH int, log *slog.Logger, c collaborators, report func(openStatus)) (ui.Model, error) {
	if report == nil {
		report = func(openStatus) {}
	}

	report(openStatus{phase: phaseDecoding})
	src, err := c.loadVideo(ctx, opts.path, video.LoadOptions{
		MaxWidth: opts.maxWidth,
		Logger:   log,
		Progress: func(done, total int) {
			report(openStatus{phase: phaseDecoding, done: done, total: total})
		},
	})
	if err != nil {
		return ui.Model{}, err
	}

	report(openStatus{phase: phaseLyrics})
	cues, err := openLyrics(opts, log)
	if err != nil {
		return ui.Model{}, err
	}

	ramp, err := render.BuildRamp(opts.rampMode, opts.rampOpts)
	if err != nil {
		return ui.Model{}, err
	}
	srcW, srcH := src.Frames[0].Width, src.Frames[0].Height
	cfg := render.Config{
		Resolution: initialResolution(opts, termW, termH, srcW, srcH),
		Ramp:       ramp,
		Font:       opts.rampOpts.Font,
	}
	if err := ctx.Err(); err != nil {
		return ui.Model{}, err
	}

	audioPath := opts.audioPath
	if audioPath == "" {
		audioPath = opts.path
	}

	if opts.strategy == render.StrategyEager {
		report(openStatus{phase: phaseRendering, total: len(src.Frames)})
	} else {
		report(openStatus{phase: phaseAudio})
	}
	e, err := engine.New(src, cues, c.newAudio(log), engine.Options{
		Strategy:            opts.strategy,
		Config:              cfg,
		AudioPath:           audioPath,
		CompletionThreshold: opts.threshold,
		Logger:              log,
		Progress: func(done, total int) {
			phase := phaseRendering
			if done == total {
				phase = phaseAudio
			}
			report(openStatus{phase: phase, done: done, total: total})
		},
	})
	if err != nil {
		return ui.Model{}, err
	}
	if err := ctx.Err(); err != nil {
		_ = e.Destroy()
		return ui.Model{}, err
	}
	e.Start()

	meta := player.ReadMetadata(audioPath)
	log.Info("playback ready", "video", opts.path, "audio", audioPath, "cues", cues.Len()-1, "config", cfg.String())

	return ui.New(e, ui.Options{
		Title:        meta.Label(),
		RampMode:     opts.rampMode,
		RampOptions:  opts.rampOpts,
		FitWindow:    opts.width == 0,
		SourceWidth:  srcW,
		SourceHeight: srcH,
		Logger:       log,
	}), nil
}

// openLyrics loads -lyrics, or the video's sibling .lrc if there is one. An
// unreadable sibling only costs the lyrics; an explicit file must load.
func openLyrics(opts openOptions, log *slog.Logger) (*lyrics.CueList, error) {
	if opts.lyricsPath != "" {
		cues, err := lyrics.LoadLRC(opts.lyricsPath)
		if err != nil {
			return nil, fmt.Errorf("loading lyrics: %w", err)
		}
		return cues, nil
	}

	path, ok := media.SiblingLyrics(opts.path)
	if !ok {
		return lyrics.Empty(), nil
	}
	cues, err := lyrics.LoadLRC(path)
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, lyrics.ErrEmptyLyrics) {
			level = slog.LevelInfo
		}
		log.Log(context.Background(), level, "ignoring sibling lyrics", "path", path, "err", err)
		return lyrics.Empty(), nil
	}
	log.Debug("using sibling lyrics", "path", path)
	return cues, nil
}

// initialResolution picks the first grid size: the explicit -width/-height,
// or a fit of the source into the terminal below the view's chrome.
func initialResolution(opts openOptions, termW, termH, srcW, srcH int) render.Resolution {
	if opts.width > 0 {
		h := opts.height
		if h == 0 {
			// Terminal cells are about twice as tall as wide.
			h = max(int(float64(opts.width)*float64(srcH)/float64(srcW)/2), 1)
		}
		return render.Resolution{Width: opts.width, Height: h}
	}
	if termW <= 0 || termH <= 0 {
		termW, termH = fallbackCols, fallbackRows
	}
	r := render.FitResolution(termW, termH-ui.ChromeLines, srcW, srcH)
	if r.Width == 0 {
		return render.Resolution{Width: 1, Height: 1}
	}
	return r
}
