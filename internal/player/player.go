// Package player is the audio transport: it decodes a track to 16-bit
// stereo PCM and feeds it to the shared oto context.
package player

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

const (
	sampleRate   = 44100
	channelCount = 2
	bitDepth     = 2 // 16-bit = 2 bytes
	frameSize    = channelCount * bitDepth
	bytesPerSec  = sampleRate * frameSize
)

// ErrNotLoaded is returned by transport calls made before Load.
var ErrNotLoaded = errors.New("no audio loaded")

// countingReader wraps the decoder and tracks the PCM byte offset handed to
// the output.
type countingReader struct {
	reader io.ReadSeeker
	pos    int64
	mu     sync.Mutex
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.reader.Read(p)
	cr.mu.Lock()
	cr.pos += int64(n)
	cr.mu.Unlock()
	return n, err
}

func (cr *countingReader) Pos() int64 {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	return cr.pos
}

func (cr *countingReader) SetPos(pos int64) {
	cr.mu.Lock()
	cr.pos = pos
	cr.mu.Unlock()
}

// sink is the slice of *oto.Player the transport uses.
type sink interface {
	Play()
	Pause()
	SetVolume(v float64)
	BufferedSize() int
}

var (
	globalOtoCtx *oto.Context
	otoOnce      sync.Once
	otoInitErr   error
)

func initOto() (*oto.Context, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channelCount,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		globalOtoCtx, ready, otoInitErr = oto.NewContext(op)
		if otoInitErr == nil {
			<-ready
		}
	})
	return globalOtoCtx, otoInitErr
}

func otoSink(r io.Reader) (sink, error) {
	ctx, err := initOto()
	if err != nil {
		return nil, fmt.Errorf("opening audio device: %w", err)
	}
	return ctx.NewPlayer(r), nil
}

// Player plays one track at a time. Position counts audio played since the
// last Play, so a paused player's clock stands still.
type Player struct {
	mu       sync.Mutex
	path     string
	file     *os.File
	decoder  audioDecoder
	counter  *countingReader
	out      sink
	newSink  func(io.Reader) (sink, error)
	startPos int64 // byte offset of the last Play
	duration time.Duration
	volume   float64
	paused   bool
	cleanup  func()
	log      *slog.Logger
}

// New returns an idle player. A nil logger discards output.
func New(log *slog.Logger) *Player {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Player{
		newSink: otoSink,
		volume:  0.8,
		paused:  true,
		log:     log,
	}
}

// Load opens path and prepares it for playback, replacing any loaded track.
// Formats without a native decoder, and tracks not already 44.1kHz stereo,
// are transcoded to a temporary WAV through ffmpeg first.
func (p *Player) Load(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unloadLocked()

	src, cleanup := path, func() {}
	if needsTranscode(path) {
		wav, done, err := ExtractAudio(path)
		if err != nil {
			return err
		}
		src, cleanup = wav, done
	}

	f, dec, err := openDecoder(src)
	if err == nil && (dec.SampleRate() != sampleRate || dec.ChannelCount() != channelCount) && src == path {
		p.log.Debug("resampling through ffmpeg", "path", path, "rate", dec.SampleRate(), "channels", dec.ChannelCount())
		f.Close()
		wav, done, terr := ExtractAudio(path)
		if terr != nil {
			return terr
		}
		src, cleanup = wav, done
		f, dec, err = openDecoder(src)
	}
	if err != nil {
		cleanup()
		return fmt.Errorf("opening %s: %w", path, err)
	}

	p.path = path
	p.file = f
	p.decoder = dec
	p.counter = &countingReader{reader: dec}
	p.duration = bytesToDuration(dec.Length())
	p.cleanup = cleanup
	p.paused = true
	p.log.Info("audio loaded", "path", path, "duration", p.duration)
	return nil
}

// Play starts playback at start, restarting the position clock.
func (p *Player) Play(start time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.decoder == nil {
		return ErrNotLoaded
	}
	// The old output stops pulling from the decoder before it moves. A fresh
	// output drops whatever the old one had buffered.
	if p.out != nil {
		p.out.Pause()
		p.paused = true
	}
	if err := p.seekLocked(start); err != nil {
		return err
	}

	out, err := p.newSink(p.counter)
	if err != nil {
		return err
	}
	out.SetVolume(p.volume)
	out.Play()
	p.out = out
	p.paused = false
	return nil
}

func (p *Player) seekLocked(start time.Duration) error {
	offset := clampSeekByteOffset(start, bytesPerSec, p.decoder.Length(), frameSize)
	if _, err := p.decoder.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to %s: %w", start, err)
	}
	p.counter.SetPos(offset)
	p.startPos = offset
	return nil
}

// Pause halts output. It is a no-op when nothing is playing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out != nil {
		p.out.Pause()
	}
	p.paused = true
}

// Unpause resumes output where Pause left it.
func (p *Player) Unpause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.out == nil {
		return
	}
	p.out.Play()
	p.paused = false
}

// Paused reports whether output is halted.
func (p *Player) Paused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.paused
}

// Position returns how much audio has been heard since the last Play.
func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.counter == nil {
		return 0
	}
	played := p.counter.Pos() - p.startPos
	if p.out != nil {
		played -= int64(p.out.BufferedSize())
	}
	if played < 0 {
		played = 0
	}
	return bytesToDuration(played)
}

// Duration returns the length of the loaded track.
func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// SetVolume sets volume (clamped to 0.0 - 1.0).
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = max(0, min(v, 1))
	if p.out != nil {
		p.out.SetVolume(p.volume)
	}
}

// Volume returns current volume (0.0 to 1.0).
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Unload stops playback and releases the track and any temporary files.
func (p *Player) Unload() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unloadLocked()
}

func (p *Player) unloadLocked() error {
	if p.out != nil {
		p.out.Pause()
		p.out = nil
	}
	var err error
	if p.file != nil {
		err = p.file.Close()
		p.file = nil
	}
	if p.cleanup != nil {
		p.cleanup()
		p.cleanup = nil
	}
	if p.path != "" {
		p.log.Debug("audio unloaded", "path", p.path)
	}
	p.decoder = nil
	p.counter = nil
	p.path = ""
	p.paused = true
	return err
}

func openDecoder(path string) (*os.File, audioDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	dec, err := newDecoder(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, dec, nil
}

// clampSeekByteOffset converts d to a PCM byte offset inside [0, length],
// aligned down to a whole sample frame.
func clampSeekByteOffset(d time.Duration, perSec, length, align int64) int64 {
	off := int64(d.Seconds() * float64(perSec))
	off = max(0, min(off, length))
	return off - off%align
}

func bytesToDuration(n int64) time.Duration {
	return time.Duration(float64(n) / float64(bytesPerSec) * float64(time.Second))
}
