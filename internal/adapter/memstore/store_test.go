package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/domain/request"
)

func TestProjects(t *testing.T) {
	ctx := context.Background()
	s := New()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.CreateProject(ctx, &project.Project{ID: "a", CreatedAt: base}))
	require.NoError(t, s.CreateProject(ctx, &project.Project{ID: "b", CreatedAt: base.Add(time.Hour)}))
	assert.ErrorIs(t, s.CreateProject(ctx, &project.Project{ID: "a"}), domain.ErrConflict)

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)

	p, err := s.GetProject(ctx, "a")
	require.NoError(t, err)
	p.Name = "renamed"
	require.NoError(t, s.UpdateProject(ctx, p))
	assert.Equal(t, 2, p.Version)
	p.Version = 1
	assert.ErrorIs(t, s.UpdateProject(ctx, p), domain.ErrConflict)

	require.NoError(t, s.DeleteProject(ctx, "a"))
	assert.ErrorIs(t, s.DeleteProject(ctx, "a"), domain.ErrNotFound)
}

func TestRequestsAndMarkers(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.CreateRequest(ctx, &request.ServiceRequest{ID: "r", Status: request.StatusPending}))
	n, err := s.CountRequests(ctx, request.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.SetRequestStatus(ctx, "r", request.StatusPending, request.StatusApproved))
	assert.ErrorIs(t, s.SetRequestStatus(ctx, "r", request.StatusPending, request.StatusRejected), domain.ErrConflict)

	ok, err := s.HasMarker(ctx, "m")
	require.NoError(t, err)
	assert.False(t, ok)
	require.NoError(t, s.SetMarker(ctx, "m"))
	ok, _ = s.HasMarker(ctx, "m")
	assert.True(t, ok)
}

func TestSimulatedOutage(t *testing.T) {
	s := New()
	boom := errors.New("connection refused")
	s.SetErr(boom)

	_, err := s.ListProjects(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, s.Ping(context.Background()), boom)

	s.SetErr(nil)
	assert.NoError(t, s.Ping(context.Background()))
}
