package server

import (
	"sync"
	"time"

	"github.com/dompile/cli/internal/util/sets"
)

// debouncer coalesces bursts of file-change notifications into a
// single batch: it waits for a quiet window after the last change, but
// never postpones past the max delay after the first.
type debouncer struct {
	quiet    time.Duration
	maxDelay time.Duration
	emit     func(changed []string)

	mu         sync.Mutex
	pending    sets.Set[string]
	quietTimer *time.Timer
	maxTimer   *time.Timer
}

func newDebouncer(quiet, maxDelay time.Duration, emit func([]string)) *debouncer {
	return &debouncer{
		quiet:    quiet,
		maxDelay: maxDelay,
		emit:     emit,
		pending:  sets.New[string](),
	}
}

// Note records one changed path and (re)arms the timers.
func (d *debouncer) Note(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending.Add(path)
	if d.quietTimer != nil {
		d.quietTimer.Stop()
	}
	d.quietTimer = time.AfterFunc(d.quiet, d.fire)
	if d.maxTimer == nil {
		d.maxTimer = time.AfterFunc(d.maxDelay, d.fire)
	}
}

func (d *debouncer) fire() {
	d.mu.Lock()
	if d.pending.Len() == 0 {
		d.mu.Unlock()
		return
	}
	batch := sets.SortedStrings(d.pending)
	d.pending = sets.New[string]()
	d.stopTimersLocked()
	d.mu.Unlock()

	d.emit(batch)
}

// Stop cancels any armed timers; pending changes are discarded.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = sets.New[string]()
	d.stopTimersLocked()
}

func (d *debouncer) stopTimersLocked() {
	if d.quietTimer != nil {
		d.quietTimer.Stop()
		d.quietTimer = nil
	}
	if d.maxTimer != nil {
		d.maxTimer.Stop()
		d.maxTimer = nil
	}
}
