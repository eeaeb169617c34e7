// Package memstore keeps projects and service requests in process memory.
// It serves as the secondary store when no Redis address is configured.
package memstore

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/domain/request"
)

// Store is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	projects map[string]project.Project
	requests map[string]request.ServiceRequest
	markers  map[string]struct{}

	// Err, when set, is returned by every call. Used to simulate outages.
	Err error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		projects: make(map[string]project.Project),
		requests: make(map[string]request.ServiceRequest),
		markers:  make(map[string]struct{}),
	}
}

func (s *Store) fail() error {
	if s.Err != nil {
		return s.Err
	}
	return nil
}

// Ping returns Err.
func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fail()
}

func (s *Store) ListProjects(_ context.Context) ([]project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := make([]project.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b project.Project) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if a.ID < b.ID {
			return -1
		}
		if a.ID > b.ID {
			return 1
		}
		return 0
	})
	return out, nil
}

func (s *Store) GetProject(_ context.Context, id string) (*project.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	p, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("get project %s: %w", id, domain.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) CreateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.projects[p.ID]; ok {
		return fmt.Errorf("create project %s: %w", p.ID, domain.ErrConflict)
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	if p.Version == 0 {
		p.Version = 1
	}
	s.projects[p.ID] = *p
	return nil
}

func (s *Store) UpdateProject(_ context.Context, p *project.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	cur, ok := s.projects[p.ID]
	if !ok {
		return fmt.Errorf("update project %s: %w", p.ID, domain.ErrNotFound)
	}
	if cur.Version != p.Version {
		return fmt.Errorf("update project %s: %w", p.ID, domain.ErrConflict)
	}
	p.Version++
	s.projects[p.ID] = *p
	return nil
}

func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("delete project %s: %w", id, domain.ErrNotFound)
	}
	delete(s.projects, id)
	return nil
}

func (s *Store) ListRequests(_ context.Context) ([]request.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	out := make([]request.ServiceRequest, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b request.ServiceRequest) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) GetRequest(_ context.Context, id string) (*request.ServiceRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return nil, err
	}
	r, ok := s.requests[id]
	if !ok {
		return nil, fmt.Errorf("get request %s: %w", id, domain.ErrNotFound)
	}
	return &r, nil
}

func (s *Store) CreateRequest(_ context.Context, r *request.ServiceRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.requests[r.ID]; ok {
		return fmt.Errorf("create request %s: %w", r.ID, domain.ErrConflict)
	}
	s.requests[r.ID] = *r
	return nil
}

func (s *Store) SetRequestStatus(_ context.Context, id string, from, to request.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	r, ok := s.requests[id]
	if !ok {
		return fmt.Errorf("set request status %s: %w", id, domain.ErrNotFound)
	}
	if r.Status != from {
		return fmt.Errorf("set request status %s: %w", id, domain.ErrConflict)
	}
	r.Status = to
	r.UpdatedAt = time.Now().UTC()
	s.requests[id] = r
	return nil
}

func (s *Store) DeleteRequest(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	if _, ok := s.requests[id]; !ok {
		return fmt.Errorf("delete request %s: %w", id, domain.ErrNotFound)
	}
	delete(s.requests, id)
	return nil
}

func (s *Store) CountRequests(_ context.Context, status request.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return 0, err
	}
	n := 0
	for _, r := range s.requests {
		if r.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *Store) HasMarker(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail(); err != nil {
		return false, err
	}
	_, ok := s.markers[name]
	return ok, nil
}

func (s *Store) SetMarker(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail(); err != nil {
		return err
	}
	s.markers[name] = struct{}{}
	return nil
}

// SetErr sets or clears the simulated outage error.
func (s *Store) SetErr(err error) {
	s.mu.Lock()
	s.Err = err
	s.mu.Unlock()
}
