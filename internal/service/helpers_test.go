package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Strob0t/showcase/internal/port/messagequeue"
)

// recordingQueue captures published messages.
type recordingQueue struct {
	mu       sync.Mutex
	messages []published
	err      error
}

type published struct {
	subject string
	data    []byte
}

func (q *recordingQueue) Publish(_ context.Context, subject string, data []byte) error {
	if err := messagequeue.Validate(subject, data); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.messages = append(q.messages, published{subject: subject, data: data})
	return nil
}

func (q *recordingQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *recordingQueue) Drain() error      { return nil }
func (q *recordingQueue) Close() error      { return nil }
func (q *recordingQueue) IsConnected() bool { return true }

func (q *recordingQueue) projectEvents() []messagequeue.ProjectsUpdatedPayload {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []messagequeue.ProjectsUpdatedPayload
	for _, m := range q.messages {
		if m.subject != messagequeue.SubjectProjectsUpdated {
			continue
		}
		var p messagequeue.ProjectsUpdatedPayload
		_ = json.Unmarshal(m.data, &p)
		out = append(out, p)
	}
	return out
}

func (q *recordingQueue) requestEvents() []messagequeue.RequestsUpdatedPayload {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []messagequeue.RequestsUpdatedPayload
	for _, m := range q.messages {
		if m.subject != messagequeue.SubjectRequestsUpdated {
			continue
		}
		var p messagequeue.RequestsUpdatedPayload
		_ = json.Unmarshal(m.data, &p)
		out = append(out, p)
	}
	return out
}

// clock returns a now func advancing one second per call.
func clock() func() time.Time {
	t := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}
