package engine

import "time"

// Start launches the playback loop on its own goroutine. Further calls do
// nothing. The loop runs until Destroy.
func (e *Engine) Start() {
	if !e.started.CompareAndSwap(false, true) {
		return
	}
	go e.run()
}

// Done is closed once the playback loop has exited. It never closes if
// Start was not called.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

func (e *Engine) run() {
	defer close(e.done)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		if !e.tick() {
			return
		}
		select {
		case <-ticker.C:
		case <-e.stop:
		}
	}
}
