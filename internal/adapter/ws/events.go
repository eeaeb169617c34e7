package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/showcase/internal/port/messagequeue"
)

// Event type constants for WebSocket messages. They match the queue
// subjects the events are relayed from.
const (
	EventProjectsUpdated = messagequeue.SubjectProjectsUpdated
	EventRequestsUpdated = messagequeue.SubjectRequestsUpdated
)

// Relay subscribes the hub to the change subjects on q and forwards every
// message to connected clients. The returned function cancels all
// subscriptions.
func (h *Hub) Relay(ctx context.Context, q messagequeue.Queue) (func(), error) {
	subjects := []string{EventProjectsUpdated, EventRequestsUpdated}
	cancels := make([]func(), 0, len(subjects))
	stop := func() {
		for _, c := range cancels {
			c()
		}
	}

	for _, subject := range subjects {
		cancel, err := q.Subscribe(ctx, subject, func(ctx context.Context, subject string, data []byte) error {
			h.Broadcast(ctx, Message{Type: subject, Payload: json.RawMessage(data)})
			return nil
		})
		if err != nil {
			stop()
			return nil, fmt.Errorf("relay %s: %w", subject, err)
		}
		cancels = append(cancels, cancel)
	}
	return stop, nil
}
