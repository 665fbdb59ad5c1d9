package lyrics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var ErrEmptyLyrics = errors.New("no timed lyrics found")

// stampRe matches one leading [mm:ss.xx] tag. Fractions may have any number
// of digits.
var stampRe = regexp.MustCompile(`^\[(\d+):(\d{1,2})(?:[.:](\d+))?\]`)

// ParseLRC reads an LRC lyrics file. Lines may carry several timestamps
// ("[00:12.00][01:30.50]chorus"); ID tags such as [ar:...] and blank lines are
// skipped. UTF-8 and BOM-marked UTF-16 input are both accepted.
func ParseLRC(r io.Reader) (*CueList, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	sc := bufio.NewScanner(decoded)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var cues []Cue
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		var stamps []float64
		for {
			m := stampRe.FindStringSubmatch(line)
			if m == nil {
				break
			}
			stamps = append(stamps, stampSeconds(m[1], m[2], m[3]))
			line = line[len(m[0]):]
		}
		text := strings.TrimSpace(line)
		for _, at := range stamps {
			cues = append(cues, Cue{At: at, Text: text})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading lyrics: %w", err)
	}
	if len(cues) == 0 {
		return nil, ErrEmptyLyrics
	}
	return NewCueList(cues)
}

// LoadLRC parses the LRC file at path.
func LoadLRC(path string) (*CueList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	l, err := ParseLRC(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return l, nil
}

func stampSeconds(mm, ss, frac string) float64 {
	m, _ := strconv.Atoi(mm)
	s, _ := strconv.Atoi(ss)
	t := float64(m*60 + s)
	if frac != "" {
		f, _ := strconv.Atoi(frac)
		scale := 1.0
		for range frac {
			scale *= 10
		}
		t += float64(f) / scale
	}
	return t
}
