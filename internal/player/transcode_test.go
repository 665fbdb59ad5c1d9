package player

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNeedsTranscode(t *testing.T) {
	for _, path := range []string{"clip.mp4", "clip.MKV", "track.m4a", "track.aac", "noext"} {
		if !needsTranscode(path) {
			t.Fatalf("expected %s to require ffmpeg", path)
		}
	}
	for _, path := range []string{"a.mp3", "b.WAV", "c.flac", "d.ogg"} {
		if needsTranscode(path) {
			t.Fatalf("did not expect %s to require ffmpeg", path)
		}
	}
}

func TestExtractAudioMissingFFmpeg(t *testing.T) {
	restore := stubTranscodeDeps()
	defer restore()

	ffmpegLookPath = func(string) (string, error) {
		return "", errors.New("missing")
	}

	_, _, err := ExtractAudio("clip.mp4")
	if err == nil || !strings.Contains(err.Error(), "ffmpeg not found") {
		t.Fatalf("expected ffmpeg not found error, got %v", err)
	}
}

func TestExtractAudioSuccessAndCleanup(t *testing.T) {
	restore := stubTranscodeDeps()
	defer restore()

	root := t.TempDir()
	ffmpegLookPath = func(string) (string, error) {
		return "ffmpeg", nil
	}
	mkdirTemp = func(dir, pattern string) (string, error) {
		tmpDir := filepath.Join(root, "job")
		if err := os.MkdirAll(tmpDir, 0o755); err != nil {
			return "", err
		}
		return tmpDir, nil
	}
	var gotArgs []string
	ffmpegRun = func(name string, args ...string) ([]byte, error) {
		gotArgs = args
		if err := os.WriteFile(args[len(args)-1], []byte("RIFF"), 0o644); err != nil {
			return nil, err
		}
		return []byte("ok"), nil
	}

	outPath, cleanup, err := ExtractAudio(filepath.Join(root, "clip.mp4"))
	if err != nil {
		t.Fatalf("ExtractAudio() error = %v", err)
	}
	if filepath.Base(outPath) != "audio.wav" {
		t.Fatalf("expected audio.wav output, got %q", outPath)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "-vn") {
		t.Fatalf("expected video stream to be dropped, args %v", gotArgs)
	}

	tmpDir := filepath.Dir(outPath)
	cleanup()
	if _, err := os.Stat(tmpDir); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected cleanup to remove temp dir, stat err = %v", err)
	}
}

func TestExtractAudioFailureCleansTempDir(t *testing.T) {
	restore := stubTranscodeDeps()
	defer restore()

	root := t.TempDir()
	tmpDir := filepath.Join(root, "job")
	ffmpegLookPath = func(string) (string, error) { return "ffmpeg", nil }
	mkdirTemp = func(string, string) (string, error) {
		return tmpDir, os.MkdirAll(tmpDir, 0o755)
	}
	ffmpegRun = func(string, ...string) ([]byte, error) {
		return []byte("Invalid data found when processing input"), errors.New("exit status 1")
	}

	_, _, err := ExtractAudio("broken.mkv")
	if err == nil || !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("expected ffmpeg output in error, got %v", err)
	}
	if _, statErr := os.Stat(tmpDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("expected temp dir removed after failure, stat err = %v", statErr)
	}
}

func TestCleanupTempDirWithRetryRetries(t *testing.T) {
	restore := stubTranscodeDeps()
	defer restore()

	attempts := 0
	removeAll = func(string) error {
		attempts++
		if attempts < 3 {
			return errors.New("busy")
		}
		return nil
	}
	sleeps := 0
	sleep = func(time.Duration) { sleeps++ }

	cleanupTempDirWithRetry("dir")
	if attempts != 3 || sleeps != 2 {
		t.Fatalf("expected 3 attempts and 2 sleeps, got %d and %d", attempts, sleeps)
	}
}

func stubTranscodeDeps() func() {
	origLookPath := ffmpegLookPath
	origRun := ffmpegRun
	origMkdirTemp := mkdirTemp
	origRemoveAll := removeAll
	origSleep := sleep
	return func() {
		ffmpegLookPath = origLookPath
		ffmpegRun = origRun
		mkdirTemp = origMkdirTemp
		removeAll = origRemoveAll
		sleep = origSleep
	}
}
