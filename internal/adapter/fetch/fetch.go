// Package fetch retrieves remote project files over HTTP for the preview
// loader.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/semaphore"

	"github.com/Strob0t/showcase/internal/domain/preview"
	"github.com/Strob0t/showcase/internal/resilience"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return fmt.Sprintf("status %d", e.Code) }

// ErrTooLarge is returned when a body exceeds the configured limit.
var ErrTooLarge = errors.New("file too large")

// Config controls a Fetcher.
type Config struct {
	Timeout         time.Duration // per request, applied on top of the caller's context
	MaxBytes        int64         // body limit; 0 means unlimited
	BreakerFailures int           // consecutive failures per host before rejecting
	BreakerTimeout  time.Duration
	MaxInFlight     int // requests across all callers; 0 means unlimited
}

// Fetcher implements preview.Fetcher. Requests carry no cookies or
// credentials, and each host gets its own circuit breaker so one dead CDN
// does not slow every preview down.
type Fetcher struct {
	client *http.Client
	cfg    Config
	slots  *semaphore.Weighted

	mu       sync.Mutex
	breakers map[string]*resilience.Breaker
}

// New creates a Fetcher. A nil client selects a client with an
// OpenTelemetry-instrumented transport.
func New(client *http.Client, cfg Config) *Fetcher {
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	if cfg.BreakerFailures <= 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	f := &Fetcher{client: client, cfg: cfg, breakers: make(map[string]*resilience.Breaker)}
	if cfg.MaxInFlight > 0 {
		f.slots = semaphore.NewWeighted(int64(cfg.MaxInFlight))
	}
	return f
}

// Fetch downloads rawURL and returns its body.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("unsupported url %q", rawURL)
	}

	if f.slots != nil {
		if err := f.slots.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer f.slots.Release(1)
	}

	var body []byte
	err = f.breaker(u.Host).ExecuteContext(ctx, func(ctx context.Context) error {
		var ferr error
		body, ferr = f.get(ctx, u.String())
		return ferr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	if f.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{Code: resp.StatusCode}
	}

	var r io.Reader = resp.Body
	if f.cfg.MaxBytes > 0 {
		r = io.LimitReader(resp.Body, f.cfg.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if f.cfg.MaxBytes > 0 && int64(len(data)) > f.cfg.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func (f *Fetcher) breaker(host string) *resilience.Breaker {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.breakers[host]
	if !ok {
		b = resilience.NewBreaker("fetch:"+host, f.cfg.BreakerFailures, f.cfg.BreakerTimeout,
			resilience.WithFailureFilter(countsAsFailure),
			resilience.WithStateChange(func(name string, from, to resilience.State) {
				slog.Warn("fetch breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			}),
		)
		f.breakers[host] = b
	}
	return b
}

// countsAsFailure keeps client errors and oversized files from opening a
// host's circuit.
func countsAsFailure(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= 500 || se.Code == http.StatusTooManyRequests
	}
	return err != nil && !errors.Is(err, ErrTooLarge)
}

var _ preview.Fetcher = (*Fetcher)(nil)
