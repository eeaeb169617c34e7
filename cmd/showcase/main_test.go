package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/showcase/internal/domain/project"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type stubQueue bool

func (q stubQueue) IsConnected() bool { return bool(q) }

type stubClients int

func (c stubClients) ConnectionCount() int { return int(c) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name   string
		store  error
		queue  bool
		code   int
		status string
	}{
		{name: "healthy", queue: true, code: http.StatusOK, status: "ok"},
		{name: "queue down", queue: false, code: http.StatusOK, status: "degraded"},
		{name: "store down", store: errors.New("dial tcp: refused"), queue: true, code: http.StatusServiceUnavailable, status: "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthHandler(stubPinger{tt.store}, stubQueue(tt.queue), stubClients(2))(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.status, body["status"])
			assert.InDelta(t, 2, body["clients"], 0)
			assert.NotContains(t, rec.Body.String(), "refused")
		})
	}
}

func TestOriginHost(t *testing.T) {
	assert.Equal(t, "localhost:3000", originHost("http://localhost:3000"))
	assert.Equal(t, "example.com", originHost("https://example.com"))
	assert.Equal(t, "*", originHost("*"))
}

func TestFilterActive(t *testing.T) {
	in := []project.Project{{ID: "a", IsActive: true}, {ID: "b"}, {ID: "c", IsActive: true}}
	out := filterActive(in)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "c", out[1].ID)
}

func TestWriteProjectTable(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	projects := []project.Project{{
		ID:          "p1",
		Name:        "Landing",
		ProjectType: project.TypeFile,
		IsActive:    true,
		Version:     3,
		CreatedAt:   created,
		Files: project.NewFileSet(
			project.FileEntry{Key: "index.html", File: project.File{Name: "index.html", Size: 1024}},
			project.FileEntry{Key: "style.css", File: project.File{Name: "style.css", Size: 512}},
		),
	}}

	var buf bytes.Buffer
	require.NoError(t, writeProjectTable(&buf, projects))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, []string{"ID", "NAME", "TYPE", "ACTIVE", "FILES", "SIZE", "VERSION", "CREATED"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"p1", "Landing", "file", "true", "2", "1.5", "KB", "3", "2026-03-01", "09:30"}, strings.Fields(lines[1]))
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{{"serve"}, {"migrate", "up"}, {"migrate", "down"}, {"migrate", "version"}, {"admin", "reconcile"}, {"admin", "list-projects"}} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("nats-url"))
}

func TestMigrateDownRejectsBadSteps(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"migrate", "down", "zero"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive integer")
}

func TestAwaitPrimaryPreparesOnceReachable(t *testing.T) {
	var pings, prepares atomic.Int32
	ping := func(context.Context) error {
		if pings.Add(1) < 3 {
			return errors.New("connection refused")
		}
		return nil
	}
	prepare := func(context.Context) error {
		if prepares.Add(1) == 1 {
			return errors.New("migrations: connection reset")
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, awaitPrimary(ctx, time.Millisecond, ping, prepare))
	assert.Equal(t, int32(4), pings.Load())
	assert.Equal(t, int32(2), prepares.Load())
}

func TestAwaitPrimaryStopsWithContext(t *testing.T) {
	var prepared atomic.Bool
	ping := func(context.Context) error { return errors.New("connection refused") }
	prepare := func(context.Context) error {
		prepared.Store(true)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := awaitPrimary(ctx, time.Millisecond, ping, prepare)
	require.Error(t, err)
	assert.False(t, prepared.Load())
}
