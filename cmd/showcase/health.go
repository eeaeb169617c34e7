package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type connChecker interface {
	IsConnected() bool
}

type clientCounter interface {
	ConnectionCount() int
}

// healthHandler reports the state of the project store and the queue. The
// response is 200 while the store answers, even when that is the
// secondary, and 503 when neither store is reachable. Clients counts the
// open live-update connections.
func healthHandler(store pinger, queue connChecker, clients clientCounter) http.HandlerFunc {
	type healthStatus struct {
		Status  string `json:"status"`
		Store   string `json:"store"`
		Queue   string `json:"queue"`
		Clients int    `json:"clients"`
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := healthStatus{Status: "ok", Store: "ok", Queue: "connected", Clients: clients.ConnectionCount()}
		code := http.StatusOK
		if err := store.Ping(ctx); err != nil {
			status.Status = "unavailable"
			slog.Warn("health: store unreachable", "error", err)
			status.Store = "unreachable"
			code = http.StatusServiceUnavailable
		}
		if !queue.IsConnected() {
			status.Queue = "disconnected"
			if code == http.StatusOK {
				status.Status = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(status)
	}
}
