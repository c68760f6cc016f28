package fs

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// debouncer coalesces bursts of calls per key into a single delayed call.
type debouncer struct {
	clock  clockwork.Clock
	delay  time.Duration
	mu     sync.Mutex
	timers map[string]clockwork.Timer
	wg     sync.WaitGroup
	closed bool
}

func newDebouncer(clock clockwork.Clock, delay time.Duration) *debouncer {
	return &debouncer{
		clock:  clock,
		delay:  delay,
		timers: make(map[string]clockwork.Timer),
	}
}

// add (re)starts the timer for key. fn runs once the key has been quiet for
// the debounce delay.
func (d *debouncer) add(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return
	}
	if t, ok := d.timers[key]; ok && t.Stop() {
		d.wg.Done()
	}

	d.wg.Add(1)
	var t clockwork.Timer
	t = d.clock.AfterFunc(d.delay, func() {
		defer d.wg.Done()
		d.mu.Lock()
		if d.timers[key] == t {
			delete(d.timers, key)
		}
		d.mu.Unlock()
		fn()
	})
	d.timers[key] = t
}

// stopAndWait cancels pending calls and waits up to timeout for running ones.
func (d *debouncer) stopAndWait(timeout time.Duration) bool {
	d.mu.Lock()
	d.closed = true
	for key, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, key)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
