package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/showcase/internal/port/messagequeue"
)

// publish sends a change notification. Notifications are best effort: a
// failed publish is logged and never fails the write that caused it.
func publish(ctx context.Context, q messagequeue.Queue, subject string, payload any) {
	if q == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal change notification", "subject", subject, "error", err)
		return
	}
	if err := q.Publish(ctx, subject, data); err != nil {
		slog.WarnContext(ctx, "publish change notification", "subject", subject, "error", err)
	}
}
