// Package video decodes a video file into grayscale frames through ffmpeg.
package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"

	"github.com/olivier-w/glyphreel/internal/render"
)

// DefaultMaxWidth caps decoded frame width in pixels. Frames are kept in
// memory for the whole clip, and a terminal grid never needs more.
const DefaultMaxWidth = 320

// ErrNoVideo is returned for files without a video stream.
var ErrNoVideo = errors.New("no video stream")

// LoadOptions tunes Load.
type LoadOptions struct {
	// MaxWidth defaults to DefaultMaxWidth. Height follows the aspect ratio.
	MaxWidth int
	// FPS overrides the probed frame rate when positive.
	FPS float64
	// Progress is called after every decoded frame. total is an estimate
	// from the probed duration and is never below done.
	Progress func(done, total int)
	Logger   *slog.Logger
}

// openRawStream starts ffmpeg and returns its stdout plus a wait func.
var openRawStream = func(ctx context.Context, ffmpeg string, args []string) (io.ReadCloser, func() error, error) {
	cmd := exec.CommandContext(ctx, ffmpeg, args...)
	cmd.Stdin = nil
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("starting ffmpeg video decode: %w", err)
	}
	return stdout, cmd.Wait, nil
}

// Load decodes every frame of path into memory. Cancelling ctx kills ffmpeg
// and returns the context's error.
func Load(ctx context.Context, path string, opts LoadOptions) (render.Source, error) {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	probe, err := ProbeMedia(ctx, path)
	if err != nil {
		return render.Source{}, err
	}
	if !probe.HasVideo {
		return render.Source{}, fmt.Errorf("%w in %s", ErrNoVideo, path)
	}

	ffmpeg, err := lookPath("ffmpeg")
	if err != nil {
		return render.Source{}, fmt.Errorf("ffmpeg not found")
	}

	maxW := opts.MaxWidth
	if maxW <= 0 {
		maxW = DefaultMaxWidth
	}
	w, h := decodeSize(probe.Width, probe.Height, maxW)
	fps := probe.FPS
	if opts.FPS > 0 {
		fps = opts.FPS
	}
	expected := int(probe.Duration.Seconds() * fps)

	log.Info("decoding video", "path", path, "size", strconv.Itoa(w)+"x"+strconv.Itoa(h), "fps", fps, "frames", expected)

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	stdout, wait, err := openRawStream(ctx, ffmpeg, []string{
		"-v", "error",
		"-i", path,
		"-an",
		"-f", "rawvideo",
		"-pix_fmt", "gray",
		"-vf", fmt.Sprintf("scale=%d:%d,fps=%s", w, h, strconv.FormatFloat(fps, 'f', -1, 64)),
		"pipe:1",
	})
	if err != nil {
		return render.Source{}, err
	}

	frames, readErr := readFrames(stdout, w, h, expected, opts.Progress)
	if readErr != nil {
		cancel()
	}
	waitErr := wait()

	if err := parent.Err(); err != nil {
		return render.Source{}, err
	}
	if readErr != nil {
		return render.Source{}, fmt.Errorf("decoding %s: %w", path, readErr)
	}
	if len(frames) == 0 {
		if waitErr != nil {
			return render.Source{}, fmt.Errorf("decoding %s: %w", path, waitErr)
		}
		return render.Source{}, fmt.Errorf("decoding %s: no frames", path)
	}
	if waitErr != nil {
		if len(frames) < expected*9/10 {
			return render.Source{}, fmt.Errorf("decoding %s: ffmpeg stopped after %d of about %d frames: %w", path, len(frames), expected, waitErr)
		}
		log.Warn("ffmpeg exited with an error near the end of the clip", "path", path, "frames", len(frames), "expected", expected, "err", waitErr)
	}

	log.Info("video decoded", "frames", len(frames))
	return render.Source{Frames: frames, FrameRate: fps}, nil
}

// readFrames reads whole w*h gray8 frames from r until EOF. A trailing
// partial frame is dropped.
func readFrames(r io.Reader, w, h, expected int, progress func(done, total int)) ([]render.Frame, error) {
	size := w * h
	if size <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", w, h)
	}

	frames := make([]render.Frame, 0, max(expected, 0))
	buf := make([]byte, size)
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}

		pix := make([]float32, size)
		for i, v := range buf {
			pix[i] = float32(v) / 255
		}
		frames = append(frames, render.Frame{Width: w, Height: h, Pix: pix})

		if progress != nil {
			progress(len(frames), max(expected, len(frames)))
		}
	}
}

// decodeSize scales srcW x srcH down to at most maxW wide, keeping the
// aspect ratio. Both sides come out even, as most encoders require.
func decodeSize(srcW, srcH, maxW int) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return maxW, maxW * 9 / 16 &^ 1
	}
	w := min(srcW, maxW)
	h := int(float64(srcH) * float64(w) / float64(srcW))
	w, h = max(w&^1, 2), max(h&^1, 2)
	return w, h
}
