package memqueue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/showcase/internal/logger"
	"github.com/Strob0t/showcase/internal/port/messagequeue"
)

type delivery struct {
	subject string
	data    string
	reqID   string
}

func subscribe(t *testing.T, q *Queue, subject string) <-chan delivery {
	t.Helper()
	ch := make(chan delivery, 8)
	cancel, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, subj string, data []byte) error {
		ch <- delivery{subject: subj, data: string(data), reqID: logger.RequestID(ctx)}
		return nil
	})
	require.NoError(t, err)
	t.Cleanup(cancel)
	return ch
}

func receive(t *testing.T, ch <-chan delivery) delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return delivery{}
	}
}

func TestPublishSubscribe(t *testing.T) {
	q := New()
	t.Cleanup(func() { _ = q.Close() })

	a := subscribe(t, q, messagequeue.SubjectProjectsUpdated)
	b := subscribe(t, q, messagequeue.SubjectProjectsUpdated)

	ctx := logger.WithRequestID(context.Background(), "req-1")
	payload := `{"project_id":"p1","action":"created","version":1}`
	require.NoError(t, q.Publish(ctx, messagequeue.SubjectProjectsUpdated, []byte(payload)))

	for _, ch := range []<-chan delivery{a, b} {
		d := receive(t, ch)
		assert.Equal(t, messagequeue.SubjectProjectsUpdated, d.subject)
		assert.JSONEq(t, payload, d.data)
		assert.Equal(t, "req-1", d.reqID)
	}
}

func TestPublishValidates(t *testing.T) {
	q := New()
	t.Cleanup(func() { _ = q.Close() })

	err := q.Publish(context.Background(), messagequeue.SubjectProjectsUpdated, []byte(`{"action":"created"}`))
	assert.Error(t, err)
}

func TestHandlerErrorDoesNotStopSubscription(t *testing.T) {
	q := New()
	t.Cleanup(func() { _ = q.Close() })

	calls := make(chan struct{}, 4)
	cancel, err := q.Subscribe(context.Background(), "requests.updated", func(context.Context, string, []byte) error {
		calls <- struct{}{}
		return errors.New("boom")
	})
	require.NoError(t, err)
	t.Cleanup(cancel)

	for range 2 {
		require.NoError(t, q.Publish(context.Background(), "requests.updated", []byte(`{"request_id":"r"}`)))
	}
	for range 2 {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("handler not called")
		}
	}
}

func TestClosedQueue(t *testing.T) {
	q := New()
	assert.True(t, q.IsConnected())
	require.NoError(t, q.Drain())
	require.NoError(t, q.Close())

	assert.False(t, q.IsConnected())
	assert.ErrorIs(t, q.Publish(context.Background(), "projects.updated", []byte(`{"project_id":"p"}`)), ErrClosed)
	_, err := q.Subscribe(context.Background(), "projects.updated", nil)
	assert.ErrorIs(t, err, ErrClosed)
}
