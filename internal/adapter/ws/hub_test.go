package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/showcase/internal/adapter/memqueue"
	"github.com/Strob0t/showcase/internal/port/messagequeue"
)

func dial(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.CloseNow() })

	require.Eventually(t, func() bool { return hub.ConnectionCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	return c
}

func read(t *testing.T, c *websocket.Conn) Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, data, err := c.Read(ctx)
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.ConnectionCount())
	hub.Broadcast(context.Background(), Message{Type: "test", Payload: []byte(`{"key":"value"}`)})
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub()
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.remove(&conn{cancel: cancel})
}

func TestHubBroadcastDelivers(t *testing.T) {
	hub := NewHub()
	c := dial(t, hub)

	hub.Broadcast(context.Background(), Message{
		Type:    EventProjectsUpdated,
		Payload: json.RawMessage(`{"project_id":"p1","action":"created","version":1}`),
	})

	msg := read(t, c)
	assert.Equal(t, "projects.updated", msg.Type)
	assert.JSONEq(t, `{"project_id":"p1","action":"created","version":1}`, string(msg.Payload))
}

func TestHubRelayForwardsQueueMessages(t *testing.T) {
	q := memqueue.New()
	t.Cleanup(func() { _ = q.Close() })

	hub := NewHub()
	c := dial(t, hub)

	stop, err := hub.Relay(context.Background(), q)
	require.NoError(t, err)
	defer stop()

	require.NoError(t, q.Publish(context.Background(), messagequeue.SubjectRequestsUpdated,
		[]byte(`{"request_id":"r1","action":"created","status":"pending","pending":3}`)))

	msg := read(t, c)
	assert.Equal(t, EventRequestsUpdated, msg.Type)
	assert.Contains(t, string(msg.Payload), `"pending":3`)
}

func TestHubCloseDisconnects(t *testing.T) {
	hub := NewHub()
	c := dial(t, hub)

	hub.Close()
	assert.Equal(t, 0, hub.ConnectionCount())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, _, err := c.Read(ctx)
	assert.Error(t, err)
}
