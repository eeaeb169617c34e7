// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/domain/request"
)

// Store is the port interface for database operations.
type Store interface {
	ProjectStore
	RequestStore

	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}

// ProjectStore persists projects together with their ordered files.
type ProjectStore interface {
	// ListProjects returns all projects, newest first.
	ListProjects(ctx context.Context) ([]project.Project, error)
	GetProject(ctx context.Context, id string) (*project.Project, error)
	// CreateProject stores p. It returns domain.ErrConflict if the ID is taken.
	CreateProject(ctx context.Context, p *project.Project) error
	// UpdateProject replaces p when the stored version equals p.Version and
	// increments p.Version. A version mismatch returns domain.ErrConflict.
	UpdateProject(ctx context.Context, p *project.Project) error
	DeleteProject(ctx context.Context, id string) error
}

// RequestStore persists service requests.
type RequestStore interface {
	// ListRequests returns all service requests, newest first.
	ListRequests(ctx context.Context) ([]request.ServiceRequest, error)
	GetRequest(ctx context.Context, id string) (*request.ServiceRequest, error)
	CreateRequest(ctx context.Context, r *request.ServiceRequest) error
	// SetRequestStatus moves a request from one status to another. It returns
	// domain.ErrConflict if the stored status is not from.
	SetRequestStatus(ctx context.Context, id string, from, to request.Status) error
	DeleteRequest(ctx context.Context, id string) error
	CountRequests(ctx context.Context, status request.Status) (int, error)
}

// MarkerStore records one-time flags such as completed data migrations.
type MarkerStore interface {
	HasMarker(ctx context.Context, name string) (bool, error)
	SetMarker(ctx context.Context, name string) error
}
