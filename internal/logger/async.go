package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

type nopCloser struct{}

func (nopCloser) Close() {}

// AsyncHandler moves record formatting off the request path. Records are
// queued on a bounded channel and written by a fixed set of workers; when the
// queue is full the record is dropped and counted. Handlers derived with
// WithAttrs or WithGroup share the queue and workers.
type AsyncHandler struct {
	inner slog.Handler
	*queue
}

type queue struct {
	ch      chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64

	mu     sync.RWMutex // guards closed and sends on ch
	closed bool
}

// queued pairs a record with the handler that must write it, so derived
// handlers keep their attributes.
type queued struct {
	h   slog.Handler
	rec slog.Record
}

// NewAsyncHandler creates an AsyncHandler with the given queue capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	if workers < 1 {
		workers = 1
	}
	h := &AsyncHandler{inner: inner, queue: &queue{ch: make(chan queued, chanSize)}}
	for range workers {
		h.wg.Add(1)
		go h.drain()
	}
	return h
}

func (q *queue) drain() {
	defer q.wg.Done()
	for e := range q.ch {
		_ = e.h.Handle(context.Background(), e.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues a clone of the record. Records arriving after Close, or
// while the queue is full, are dropped.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return nil
	}
	select {
	case h.ch <- queued{h: h.inner, rec: rec.Clone()}:
	default:
		h.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler sharing the same queue but wrapping a derived inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), queue: h.queue}
}

// WithGroup returns a handler sharing the same queue but wrapping a derived inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), queue: h.queue}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.dropped.Load()
}

// Close stops accepting records and waits for the workers to drain the queue.
// Calling Close more than once is a no-op.
func (h *AsyncHandler) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	close(h.ch)
	h.mu.Unlock()
	h.wg.Wait()
}
