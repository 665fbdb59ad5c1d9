package media

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtensionClasses(t *testing.T) {
	for _, ext := range []string{".mp4", ".MKV", ".webm"} {
		if !IsVideoExt(ext) || IsAudioExt(ext) {
			t.Fatalf("expected %s to be video only", ext)
		}
	}
	for _, ext := range []string{".mp3", ".FLAC", ".m4a"} {
		if !IsAudioExt(ext) || IsVideoExt(ext) {
			t.Fatalf("expected %s to be audio only", ext)
		}
	}
	if !IsLyricsExt(".LRC") || IsLyricsExt(".txt") {
		t.Fatal("unexpected lyrics classification")
	}
}

func TestSiblingLyrics(t *testing.T) {
	dir := t.TempDir()
	video := filepath.Join(dir, "clip.mp4")
	for _, name := range []string{"clip.mp4", "clip.LRC", "clip2.lrc", "other.lrc"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}

	got, ok := SiblingLyrics(video)
	if !ok || got != filepath.Join(dir, "clip.LRC") {
		t.Fatalf("expected clip.LRC, got %q (%v)", got, ok)
	}
	if _, ok := SiblingLyrics(filepath.Join(dir, "missing.mp4")); ok {
		t.Fatal("expected no lyrics for a clip without a sibling")
	}
}

func TestSupportedExtsListIsSorted(t *testing.T) {
	list := SupportedExtsList()
	if !strings.HasPrefix(list, ".avi, ") || !strings.Contains(list, ".mp4") {
		t.Fatalf("unexpected list %q", list)
	}
}
