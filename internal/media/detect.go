package media

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var videoExts = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".mov":  true,
	".avi":  true,
	".m4v":  true,
	".gif":  true,
}

var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".flac": true,
	".ogg":  true,
	".aac":  true,
	".m4a":  true,
	".opus": true,
}

// IsVideoExt reports whether ext is a video container we can decode.
func IsVideoExt(ext string) bool {
	return videoExts[strings.ToLower(ext)]
}

// IsAudioExt reports whether ext is an audio-only format we can play.
func IsAudioExt(ext string) bool {
	return audioExts[strings.ToLower(ext)]
}

// IsLyricsExt reports whether ext is a timed lyrics file.
func IsLyricsExt(ext string) bool {
	return strings.EqualFold(ext, ".lrc")
}

// SiblingLyrics returns the .lrc file next to path with the same base name,
// if there is one. The match on the extension ignores case.
func SiblingLyrics(path string) (string, bool) {
	dir := filepath.Dir(path)
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !IsLyricsExt(filepath.Ext(name)) {
			continue
		}
		if strings.TrimSuffix(name, filepath.Ext(name)) == stem {
			return filepath.Join(dir, name), true
		}
	}
	return "", false
}

// SupportedExtsList returns a human-readable list of playable video formats.
func SupportedExtsList() string {
	exts := make([]string, 0, len(videoExts))
	for ext := range videoExts {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return strings.Join(exts, ", ")
}
