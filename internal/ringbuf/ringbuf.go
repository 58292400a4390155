// Package ringbuf provides a fixed-capacity window of the most recent price
// samples. Unlike a queue, a full window overwrites its oldest entry: the
// trade loop pushes every evaluated price and the status API reads snapshots
// concurrently.
package ringbuf

import "sync"

// Window keeps the last Cap() float64 samples in insertion order.
type Window struct {
	mu    sync.RWMutex
	buf   []float64
	head  int // next write position
	count int // total samples seen, saturates at len(buf)
}

// New creates a window holding up to capacity samples. Minimum capacity is 1.
func New(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]float64, capacity)}
}

// Push appends a sample, overwriting the oldest when the window is full.
func (w *Window) Push(v float64) {
	w.mu.Lock()
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	if w.count < len(w.buf) {
		w.count++
	}
	w.mu.Unlock()
}

// Values returns the retained samples, oldest first.
func (w *Window) Values() []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]float64, 0, w.count)
	start := w.head - w.count
	if start < 0 {
		start += len(w.buf)
	}
	for i := 0; i < w.count; i++ {
		out = append(out, w.buf[(start+i)%len(w.buf)])
	}
	return out
}

// Last returns the most recent sample, or 0 if none were pushed.
func (w *Window) Last() float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.count == 0 {
		return 0
	}
	idx := w.head - 1
	if idx < 0 {
		idx += len(w.buf)
	}
	return w.buf[idx]
}

// Len returns the number of retained samples.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.buf)
}
