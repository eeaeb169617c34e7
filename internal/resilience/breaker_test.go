package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTest = errors.New("service unavailable")

func TestClosedStateAllowsCalls(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)
	called := false
	err := b.Execute(func() error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !called {
		t.Fatal("expected fn to be called")
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed, got %s", b.State())
	}
}

func TestOpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker("test", 3, time.Second)

	for range 3 {
		_ = b.Execute(func() error { return errTest })
	}

	err := b.Execute(func() error { return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}
}

func TestHalfOpenProbe(t *testing.T) {
	now := time.Now()
	b := NewBreaker("test", 1, time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errTest })
	if b.State() != StateOpen {
		t.Fatalf("expected open, got %s", b.State())
	}

	now = now.Add(2 * time.Second)
	if b.State() != StateHalfOpen {
		t.Fatalf("expected half-open after timeout, got %s", b.State())
	}

	// A successful probe closes the circuit.
	if err := b.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe should run, got %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("expected closed after probe, got %s", b.State())
	}
}

func TestHalfOpenFailureReopens(t *testing.T) {
	now := time.Now()
	b := NewBreaker("test", 2, time.Second)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errTest })
	_ = b.Execute(func() error { return errTest })
	now = now.Add(2 * time.Second)

	if err := b.Execute(func() error { return errTest }); !errors.Is(err, errTest) {
		t.Fatalf("expected probe error, got %v", err)
	}
	if err := b.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen after failed probe, got %v", err)
	}
}

func TestOnlyOneProbeInHalfOpen(t *testing.T) {
	now := time.Now()
	b := NewBreaker("test", 1, time.Second)
	b.now = func() time.Time { return now }
	_ = b.Execute(func() error { return errTest })
	now = now.Add(2 * time.Second)

	err := b.Execute(func() error {
		if inner := b.Execute(func() error { return nil }); !errors.Is(inner, ErrCircuitOpen) {
			t.Errorf("concurrent probe should be rejected, got %v", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("probe failed: %v", err)
	}
}

func TestFailureFilter(t *testing.T) {
	errIgnored := errors.New("not found")
	b := NewBreaker("test", 1, time.Second, WithFailureFilter(func(err error) bool {
		return !errors.Is(err, errIgnored)
	}))

	for range 5 {
		if err := b.Execute(func() error { return errIgnored }); !errors.Is(err, errIgnored) {
			t.Fatalf("expected errIgnored passthrough, got %v", err)
		}
	}
	if b.State() != StateClosed {
		t.Fatalf("filtered errors must not open the circuit, got %s", b.State())
	}
}

func TestCallerCancellationNotCounted(t *testing.T) {
	b := NewBreaker("test", 1, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := b.ExecuteContext(ctx, func(ctx context.Context) error { return ctx.Err() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if b.State() != StateClosed {
		t.Fatalf("cancellation must not open the circuit, got %s", b.State())
	}
}

func TestStateChangeCallback(t *testing.T) {
	var transitions []string
	b := NewBreaker("store", 1, time.Hour, WithStateChange(func(name string, from, to State) {
		transitions = append(transitions, name+":"+from.String()+"->"+to.String())
	}))

	_ = b.Execute(func() error { return errTest })

	if len(transitions) != 1 || transitions[0] != "store:closed->open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
	if b.Name() != "store" {
		t.Errorf("unexpected name %q", b.Name())
	}
}
