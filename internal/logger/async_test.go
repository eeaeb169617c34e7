package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer lets several workers write JSON lines safely.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines(t *testing.T) []map[string]any {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []map[string]any
	for _, l := range strings.Split(strings.TrimSpace(b.buf.String()), "\n") {
		if l == "" {
			continue
		}
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(l), &m))
		out = append(out, m)
	}
	return out
}

type slowHandler struct{ slog.Handler }

func (h slowHandler) Handle(ctx context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	time.Sleep(5 * time.Millisecond)
	return h.Handler.Handle(ctx, rec)
}

func TestAsyncHandlerKeepsDerivedAttrs(t *testing.T) {
	var out syncBuffer
	ah := NewAsyncHandler(slog.NewJSONHandler(&out, nil), 16, 2)
	log := slog.New(ah).With("service", "showcase").WithGroup("preview")

	log.Info("merged", "project_id", "p1")
	slog.New(ah).Info("plain")
	ah.Close()

	lines := out.lines(t)
	require.Len(t, lines, 2)
	byMsg := map[string]map[string]any{}
	for _, l := range lines {
		byMsg[l["msg"].(string)] = l
	}
	assert.Equal(t, "showcase", byMsg["merged"]["service"])
	assert.Equal(t, map[string]any{"project_id": "p1"}, byMsg["merged"]["preview"])
	assert.NotContains(t, byMsg["plain"], "service")
}

func TestAsyncHandlerConcurrentWrites(t *testing.T) {
	var out syncBuffer
	ah := NewAsyncHandler(slog.NewJSONHandler(&out, nil), 10000, 4)
	log := slog.New(ah)

	var wg sync.WaitGroup
	for g := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 50 {
				log.Info("upload stored", "worker", g, "n", i)
			}
		}()
	}
	wg.Wait()
	ah.Close()

	assert.Len(t, out.lines(t), 1000)
	assert.Zero(t, ah.DroppedCount())
}

func TestAsyncHandlerDropsWhenFull(t *testing.T) {
	var out syncBuffer
	ah := NewAsyncHandler(slowHandler{slog.NewJSONHandler(&out, nil)}, 1, 1)
	log := slog.New(ah)

	for range 50 {
		log.Warn("preview file failed to load")
	}
	ah.Close()

	assert.Positive(t, ah.DroppedCount())
	assert.Equal(t, int64(50), ah.DroppedCount()+int64(len(out.lines(t))))
}

func TestAsyncHandlerCloseIsIdempotentAndCountsLateRecords(t *testing.T) {
	ah := NewAsyncHandler(slog.NewJSONHandler(&syncBuffer{}, nil), 4, 1)
	ah.Close()
	ah.Close()

	slog.New(ah).Info("late")
	assert.Equal(t, int64(1), ah.DroppedCount())
}

func TestAsyncHandlerHandleRacesClose(t *testing.T) {
	ah := NewAsyncHandler(slog.NewJSONHandler(&syncBuffer{}, nil), 8, 1)
	log := slog.New(ah)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				log.Info("x")
			}
		}()
	}
	ah.Close()
	wg.Wait()
}
