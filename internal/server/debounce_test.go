package server

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// batchCollector records emitted batches for assertions.
type batchCollector struct {
	mu      sync.Mutex
	batches [][]string
	notify  chan struct{}
}

func newBatchCollector() *batchCollector {
	return &batchCollector{notify: make(chan struct{}, 16)}
}

func (c *batchCollector) emit(batch []string) {
	c.mu.Lock()
	c.batches = append(c.batches, batch)
	c.mu.Unlock()
	c.notify <- struct{}{}
}

func (c *batchCollector) all() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.batches))
	copy(out, c.batches)
	return out
}

func (c *batchCollector) waitOne(t *testing.T, timeout time.Duration) {
	t.Helper()
	select {
	case <-c.notify:
	case <-time.After(timeout):
		t.Fatal("timed out waiting for debounced batch")
	}
}

func TestDebouncerCoalescesBurst(t *testing.T) {
	col := newBatchCollector()
	deb := newDebouncer(25*time.Millisecond, 500*time.Millisecond, col.emit)
	defer deb.Stop()

	deb.Note("b.html")
	deb.Note("a.html")
	deb.Note("b.html")

	col.waitOne(t, time.Second)
	batches := col.all()
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"a.html", "b.html"}, batches[0], "deduplicated and sorted")

	select {
	case <-col.notify:
		t.Fatal("expected a single batch for the burst")
	case <-time.After(75 * time.Millisecond):
	}
}

func TestDebouncerMaxDelayForcesBatch(t *testing.T) {
	col := newBatchCollector()
	deb := newDebouncer(50*time.Millisecond, 150*time.Millisecond, col.emit)
	defer deb.Stop()

	// keep noting inside the quiet window; only the max delay can fire
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			deb.Note("busy.html")
			time.Sleep(20 * time.Millisecond)
		}
	}()

	col.waitOne(t, time.Second)
	assert.Equal(t, []string{"busy.html"}, col.all()[0])
	<-done
}

func TestDebouncerStopDiscardsPending(t *testing.T) {
	col := newBatchCollector()
	deb := newDebouncer(30*time.Millisecond, time.Second, col.emit)

	deb.Note("x.html")
	deb.Stop()

	select {
	case <-col.notify:
		t.Fatal("stopped debouncer must not emit")
	case <-time.After(100 * time.Millisecond):
	}
}
