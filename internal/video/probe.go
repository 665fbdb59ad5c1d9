package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Probe holds stream metadata from ffprobe.
type Probe struct {
	Width    int
	Height   int
	FPS      float64
	Duration time.Duration
	HasVideo bool
	HasAudio bool
}

type ffprobeResult struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		RFrameRate   string `json:"r_frame_rate"` // e.g. "30/1" or "24000/1001"
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

const fallbackFPS = 24

var (
	lookPath = exec.LookPath
	runProbe = func(ctx context.Context, name string, args ...string) ([]byte, error) {
		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdin = nil
		return cmd.Output()
	}
)

// ProbeMedia asks ffprobe for the first video stream's geometry and frame
// rate, the container duration and whether any audio stream exists.
func ProbeMedia(ctx context.Context, path string) (Probe, error) {
	ffprobe, err := lookPath("ffprobe")
	if err != nil {
		return Probe{}, fmt.Errorf("ffprobe not found")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	output, err := runProbe(ctx, ffprobe,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)
	if err != nil {
		return Probe{}, fmt.Errorf("probing %s: %w", path, err)
	}
	return parseProbe(output)
}

func parseProbe(output []byte) (Probe, error) {
	var result ffprobeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return Probe{}, fmt.Errorf("parsing ffprobe output: %w", err)
	}

	durSec, _ := strconv.ParseFloat(result.Format.Duration, 64)
	p := Probe{Duration: time.Duration(durSec * float64(time.Second))}

	for _, s := range result.Streams {
		switch s.CodecType {
		case "audio":
			p.HasAudio = true
		case "video":
			if p.HasVideo {
				continue
			}
			fps := parseFraction(s.AvgFrameRate)
			if fps <= 0 {
				fps = parseFraction(s.RFrameRate)
			}
			if fps <= 0 {
				fps = fallbackFPS
			}
			p.Width, p.Height, p.FPS, p.HasVideo = s.Width, s.Height, fps, true
		}
	}
	return p, nil
}

// parseFraction parses "num/den" (or a plain number) into a float64.
func parseFraction(s string) float64 {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
