package logging

import (
	"bytes"
	"io"
	"os"
	"sync"
)

// stderrSink is where every component logger writes its stderr lines. The
// planner screen swaps it out while it owns the terminal.
type stderrSink struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *stderrSink) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *stderrSink) swap(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}

var sink = &stderrSink{w: os.Stderr}

// SetGlobalOutput redirects the stderr lines of all component loggers and
// returns a function that puts the previous destination back.
func SetGlobalOutput(w io.Writer) (restore func()) {
	prev := sink.swap(w)
	return func() { sink.swap(prev) }
}

// GetGlobalOutput returns the shared sink component loggers write to.
func GetGlobalOutput() io.Writer {
	return sink
}

// HoldGlobalOutput buffers log lines until release is called, then writes
// them to the destination that was active before the hold.
func HoldGlobalOutput() (release func()) {
	held := &heldLines{}
	prev := sink.swap(held)
	var once sync.Once
	return func() {
		once.Do(func() {
			sink.swap(prev)
			held.flush(prev)
		})
	}
}

// heldLines collects writes from concurrent loggers.
type heldLines struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (h *heldLines) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.Write(p)
}

func (h *heldLines) flush(w io.Writer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, _ = h.buf.WriteTo(w)
}
