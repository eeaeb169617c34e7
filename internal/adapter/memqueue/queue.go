// Package memqueue implements the message queue port in process with
// watermill's gochannel pub/sub. It is used when no NATS URL is configured.
package memqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"github.com/Strob0t/showcase/internal/logger"
	"github.com/Strob0t/showcase/internal/port/messagequeue"
)

const metadataRequestID = "request_id"

// ErrClosed is returned by Publish and Subscribe after Close or Drain.
var ErrClosed = errors.New("memqueue: closed")

// Queue implements messagequeue.Queue. Messages are not persisted and a
// handler error drops the message after logging it.
type Queue struct {
	pubsub *gochannel.GoChannel
	closed atomic.Bool
	wg     sync.WaitGroup
}

// New creates an in-process queue.
func New() *Queue {
	return &Queue{
		pubsub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 100},
			watermill.NopLogger{},
		),
	}
}

// Publish validates data and delivers it to the current subscribers of subject.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	if q.closed.Load() {
		return ErrClosed
	}
	if err := messagequeue.Validate(subject, data); err != nil {
		return fmt.Errorf("memqueue publish %s: %w", subject, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), data)
	if reqID := logger.RequestID(ctx); reqID != "" {
		msg.Metadata.Set(metadataRequestID, reqID)
	}
	if err := q.pubsub.Publish(subject, msg); err != nil {
		return fmt.Errorf("memqueue publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler for subject until the returned cancel is
// called, ctx is done, or the queue is closed.
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	if q.closed.Load() {
		return nil, ErrClosed
	}
	subCtx, cancel := context.WithCancel(ctx)
	msgs, err := q.pubsub.Subscribe(subCtx, subject)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("memqueue subscribe %s: %w", subject, err)
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for msg := range msgs {
			hctx := context.WithoutCancel(subCtx)
			if reqID := msg.Metadata.Get(metadataRequestID); reqID != "" {
				hctx = logger.WithRequestID(hctx, reqID)
			}
			if err := handler(hctx, subject, msg.Payload); err != nil {
				slog.Error("message handler failed", "subject", subject, "error", err)
			}
			msg.Ack()
		}
	}()
	return cancel, nil
}

// Drain closes the queue and waits for in-flight handlers to return.
func (q *Queue) Drain() error {
	err := q.Close()
	q.wg.Wait()
	return err
}

// Close stops all subscriptions.
func (q *Queue) Close() error {
	if q.closed.Swap(true) {
		return nil
	}
	return q.pubsub.Close()
}

// IsConnected reports whether the queue is open.
func (q *Queue) IsConnected() bool {
	return !q.closed.Load()
}
