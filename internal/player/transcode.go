package player

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

var (
	ffmpegLookPath = exec.LookPath
	ffmpegRun      = func(name string, args ...string) ([]byte, error) {
		cmd := exec.Command(name, args...)
		cmd.Stdin = nil
		return cmd.CombinedOutput()
	}
	mkdirTemp = os.MkdirTemp
	removeAll = os.RemoveAll
	sleep     = time.Sleep
)

func needsTranscode(path string) bool {
	return !nativeExts[strings.ToLower(filepath.Ext(path))]
}

// ExtractAudio decodes the first audio stream of path (any container ffmpeg
// reads, video included) into a 44.1kHz stereo WAV in a fresh temp dir. The
// returned cleanup removes it.
func ExtractAudio(path string) (string, func(), error) {
	ffmpeg, err := ffmpegLookPath("ffmpeg")
	if err != nil {
		return "", nil, fmt.Errorf("ffmpeg not found (required to play %s audio)", filepath.Ext(path))
	}

	tmpDir, err := mkdirTemp("", "glyphreel-*")
	if err != nil {
		return "", nil, fmt.Errorf("creating temp dir: %w", err)
	}
	cleanup := func() {
		cleanupTempDirWithRetry(tmpDir)
	}

	outPath := filepath.Join(tmpDir, "audio.wav")
	output, err := ffmpegRun(ffmpeg,
		"-y", "-v", "error",
		"-i", path,
		"-vn",
		"-ar", strconv.Itoa(sampleRate),
		"-ac", strconv.Itoa(channelCount),
		"-c:a", "pcm_s16le",
		outPath,
	)
	if err != nil {
		cleanup()
		msg := strings.TrimSpace(string(output))
		if msg == "" {
			return "", nil, fmt.Errorf("ffmpeg failed to extract audio: %w", err)
		}
		return "", nil, fmt.Errorf("ffmpeg failed to extract audio: %w\n%s", err, msg)
	}
	return outPath, cleanup, nil
}

// cleanupTempDirWithRetry retries briefly since the decoder may still hold
// the file open on some platforms.
func cleanupTempDirWithRetry(dir string) {
	for attempt := 0; attempt < 5; attempt++ {
		if err := removeAll(dir); err == nil || attempt == 4 {
			return
		}
		sleep(75 * time.Millisecond)
	}
}
