package engine

import (
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/olivier-w/glyphreel/internal/render"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from    State
		trigger Trigger
		want    State
		ok      bool
	}{
		{Paused, TriggerToggle, Playing, true},
		{Playing, TriggerToggle, Paused, true},
		{Paused, TriggerBeginDrag, DraggingFromPause, true},
		{Playing, TriggerBeginDrag, DraggingFromPlay, true},
		{DraggingFromPlay, TriggerEndDrag, Playing, true},
		{DraggingFromPause, TriggerEndDrag, Paused, true},
		{Paused, TriggerEndDrag, Paused, false},
		{Playing, TriggerEndDrag, Playing, false},
		{DraggingFromPlay, TriggerToggle, DraggingFromPlay, false},
		{DraggingFromPause, TriggerBeginDrag, DraggingFromPause, false},
		{Destroyed, TriggerToggle, Destroyed, false},
		{Destroyed, TriggerDestroy, Destroyed, true},
	}
	for _, c := range cases {
		got, err := Transition(c.from, c.trigger)
		if (err == nil) != c.ok || got != c.want {
			t.Fatalf("%s on %s: expected %s (ok=%v), got %s (%v)", c.trigger, c.from, c.want, c.ok, got, err)
		}
	}
	for _, s := range []State{Paused, Playing, DraggingFromPlay, DraggingFromPause} {
		if got, err := Transition(s, TriggerDestroy); err != nil || got != Destroyed {
			t.Fatalf("destroy from %s: got %s (%v)", s, got, err)
		}
	}
}

func TestLoopExitsPromptlyOnDestroy(t *testing.T) {
	e, _, _ := newTestEngine(t, func(o *Options) { o.TickInterval = time.Hour })
	e.Start()
	e.Start()
	_ = e.Toggle()

	if err := e.Destroy(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-e.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after Destroy")
	}
}

func TestLoopPlaysThroughToRewind(t *testing.T) {
	e, audio, _ := newTestEngine(t, func(o *Options) { o.TickInterval = time.Millisecond })
	audio.mu.Lock()
	audio.step = 2 * time.Second
	audio.mu.Unlock()

	e.Start()
	if err := e.Toggle(); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		snap := e.Snapshot()
		if snap.State == Paused {
			if snap.Position != 0 || snap.CueIndex != 0 {
				t.Fatalf("expected rewind to 0, got %+v", snap)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("playback never finished, last snapshot %+v", snap)
		case <-time.After(time.Millisecond):
		}
	}
}

func TestConcurrentControlKeepsSnapshotsConsistent(t *testing.T) {
	e, audio, _ := newTestEngine(t, func(o *Options) { o.TickInterval = time.Millisecond })
	audio.mu.Lock()
	audio.step = 100 * time.Millisecond
	audio.mu.Unlock()
	e.Start()
	_ = e.Toggle()

	cues := e.Cues()
	total := e.Duration().Seconds()
	stop := make(chan struct{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 300; i++ {
			_ = e.SetPosition(rng.Float64())
			if i%50 == 0 {
				_ = e.Toggle()
			}
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ramps := []string{" #", " .:#", " .-=+*#"}
		for i := 0; i < 30; i++ {
			ramp, err := render.NewRamp("r", ramps[i%len(ramps)])
			if err != nil {
				t.Error(err)
				return
			}
			_ = e.SetConfiguration(e.Config().WithRamp(ramp))
		}
	}()

	errs := make(chan string, 1)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			select {
			case <-stop:
				return
			default:
			}
			snap := e.Snapshot()
			if snap.State.Dragging() {
				select {
				case errs <- "observed an implicit drag":
				default:
				}
			}
			if snap.Position < 0 || snap.Position > 1 {
				select {
				case errs <- "position left [0, 1]":
				default:
				}
			}
			if want := cues.Index(snap.Position * total); snap.CueIndex != want {
				select {
				case errs <- "cue index out of step with position":
				default:
				}
			}
			if _, _, err := e.CurrentFrameAndCue(); err != nil {
				select {
				case errs <- err.Error():
				default:
				}
			}
		}
	}()

	wg.Wait()
	close(stop)
	<-readerDone
	select {
	case msg := <-errs:
		t.Fatal(msg)
	default:
	}
}
