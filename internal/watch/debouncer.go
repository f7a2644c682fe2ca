package watch

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of events per path: fire runs once a path has
// been quiet for the window.
type debouncer struct {
	window time.Duration
	fire   func(path string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	running sync.WaitGroup
}

func newDebouncer(window time.Duration, fire func(path string)) *debouncer {
	return &debouncer{
		window: window,
		fire:   fire,
		timers: make(map[string]*time.Timer),
	}
}

// Trigger (re)starts the quiet window for path.
func (d *debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if t, ok := d.timers[path]; ok && t.Stop() {
		t.Reset(d.window)
		return
	}
	var t *time.Timer
	t = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		if d.timers[path] == t {
			delete(d.timers, path)
		}
		if d.stopped {
			d.mu.Unlock()
			return
		}
		d.running.Add(1)
		d.mu.Unlock()

		defer d.running.Done()
		d.fire(path)
	})
	d.timers[path] = t
}

// Pending returns the number of paths waiting for their window to pass.
func (d *debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.timers)
}

// Stop cancels every pending timer and waits for running callbacks. Triggers
// after Stop are ignored.
func (d *debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for path, t := range d.timers {
		t.Stop()
		delete(d.timers, path)
	}
	d.mu.Unlock()
	d.running.Wait()
}
