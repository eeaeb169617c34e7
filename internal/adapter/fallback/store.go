// Package fallback combines a primary and a secondary database.Store.
// Writes and reads go to the primary; when the primary is unreachable they
// go to the secondary instead (last write wins). Reconcile copies records
// back once the primary is usable and still empty.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/domain/request"
	"github.com/Strob0t/showcase/internal/port/database"
	"github.com/Strob0t/showcase/internal/resilience"
)

// MigratedMarker is the marker set on the secondary after Reconcile has run.
const MigratedMarker = "primary_migrated"

// Store routes calls between a primary and a secondary store.
type Store struct {
	primary   database.Store
	secondary database.Store
	markers   database.MarkerStore
	breaker   *resilience.Breaker
}

// New creates a fallback store. secondary and markers may be nil, in which
// case primary failures are returned as-is. breaker may be nil.
func New(primary, secondary database.Store, markers database.MarkerStore, breaker *resilience.Breaker) *Store {
	return &Store{primary: primary, secondary: secondary, markers: markers, breaker: breaker}
}

// IsOutage reports whether err means the store could not serve the call,
// as opposed to a domain outcome such as not found or conflict.
func IsOutage(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, domain.ErrNotFound) &&
		!errors.Is(err, domain.ErrConflict) &&
		!errors.Is(err, domain.ErrValidation) &&
		!errors.Is(err, context.Canceled)
}

// route runs fn against the primary, and against the secondary if the
// primary suffered an outage.
func route[T any](ctx context.Context, s *Store, op string, fn func(database.Store) (T, error)) (T, error) {
	var v T
	call := func(ctx context.Context) error {
		var err error
		v, err = fn(s.primary)
		return err
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.ExecuteContext(ctx, call)
	} else {
		err = call(ctx)
	}
	if err == nil || !IsOutage(err) || s.secondary == nil {
		return v, err
	}

	slog.Warn("primary store unavailable, using secondary", "op", op, "error", err)
	v, serr := fn(s.secondary)
	if serr != nil {
		return v, fmt.Errorf("%s: primary: %v; secondary: %w", op, err, serr)
	}
	return v, nil
}

func exec(ctx context.Context, s *Store, op string, fn func(database.Store) error) error {
	_, err := route(ctx, s, op, func(st database.Store) (struct{}, error) {
		return struct{}{}, fn(st)
	})
	return err
}

// Ping succeeds if either store is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return exec(ctx, s, "ping", func(st database.Store) error { return st.Ping(ctx) })
}

func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	return route(ctx, s, "list projects", func(st database.Store) ([]project.Project, error) {
		return st.ListProjects(ctx)
	})
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	return route(ctx, s, "get project", func(st database.Store) (*project.Project, error) {
		return st.GetProject(ctx, id)
	})
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
	return exec(ctx, s, "create project", func(st database.Store) error { return st.CreateProject(ctx, p) })
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	return exec(ctx, s, "update project", func(st database.Store) error { return st.UpdateProject(ctx, p) })
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return exec(ctx, s, "delete project", func(st database.Store) error { return st.DeleteProject(ctx, id) })
}

func (s *Store) ListRequests(ctx context.Context) ([]request.ServiceRequest, error) {
	return route(ctx, s, "list requests", func(st database.Store) ([]request.ServiceRequest, error) {
		return st.ListRequests(ctx)
	})
}

func (s *Store) GetRequest(ctx context.Context, id string) (*request.ServiceRequest, error) {
	return route(ctx, s, "get request", func(st database.Store) (*request.ServiceRequest, error) {
		return st.GetRequest(ctx, id)
	})
}

func (s *Store) CreateRequest(ctx context.Context, r *request.ServiceRequest) error {
	return exec(ctx, s, "create request", func(st database.Store) error { return st.CreateRequest(ctx, r) })
}

func (s *Store) SetRequestStatus(ctx context.Context, id string, from, to request.Status) error {
	return exec(ctx, s, "set request status", func(st database.Store) error {
		return st.SetRequestStatus(ctx, id, from, to)
	})
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	return exec(ctx, s, "delete request", func(st database.Store) error { return st.DeleteRequest(ctx, id) })
}

func (s *Store) CountRequests(ctx context.Context, status request.Status) (int, error) {
	return route(ctx, s, "count requests", func(st database.Store) (int, error) {
		return st.CountRequests(ctx, status)
	})
}
