package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/domain/request"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client, "test"), mr
}

func TestProjectRoundTripKeepsFileOrder(t *testing.T) {
	ctx := context.Background()
	s, mr := newTestStore(t)

	p := &project.Project{
		ID:          "p1",
		Name:        "Bundle",
		ProjectType: project.TypeFile,
		Files: project.NewFileSet(
			project.FileEntry{Key: "z.css", File: project.File{Name: "z.css"}},
			project.FileEntry{Key: "index.html", File: project.File{Name: "index.html"}},
			project.FileEntry{Key: "a.js", File: project.File{Name: "a.js"}},
		),
	}
	require.NoError(t, s.CreateProject(ctx, p))
	assert.True(t, mr.Exists("test:project:p1"))
	assert.Equal(t, 1, p.Version)

	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	var keys []string
	for _, e := range got.Files.Entries() {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"z.css", "index.html", "a.js"}, keys)

	assert.ErrorIs(t, s.CreateProject(ctx, &project.Project{ID: "p1"}), domain.ErrConflict)
}

func TestListProjectsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, s.CreateProject(ctx, &project.Project{ID: id, Name: id, CreatedAt: base.Add(time.Duration(i) * time.Hour)}))
	}

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, "old", list[2].ID)
}

func TestUpdateProjectVersioning(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p := &project.Project{ID: "p1", Name: "v1"}
	require.NoError(t, s.CreateProject(ctx, p))

	p.Name = "v2"
	require.NoError(t, s.UpdateProject(ctx, p))
	assert.Equal(t, 2, p.Version)

	stale := *p
	stale.Version = 1
	assert.ErrorIs(t, s.UpdateProject(ctx, &stale), domain.ErrConflict)

	assert.ErrorIs(t, s.UpdateProject(ctx, &project.Project{ID: "missing", Version: 1}), domain.ErrNotFound)

	got, err := s.GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "v2", got.Name)
}

func TestDeleteProject(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	require.NoError(t, s.CreateProject(ctx, &project.Project{ID: "p1"}))
	require.NoError(t, s.DeleteProject(ctx, "p1"))

	_, err := s.GetProject(ctx, "p1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteProject(ctx, "p1"), domain.ErrNotFound)

	list, err := s.ListProjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRequests(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	now := time.Now().UTC()
	for i, id := range []string{"r1", "r2"} {
		require.NoError(t, s.CreateRequest(ctx, &request.ServiceRequest{
			ID: id, Description: "d", Status: request.StatusPending, CreatedAt: now.Add(time.Duration(i) * time.Minute),
		}))
	}

	n, err := s.CountRequests(ctx, request.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, s.SetRequestStatus(ctx, "r1", request.StatusPending, request.StatusRejected))
	assert.ErrorIs(t, s.SetRequestStatus(ctx, "r1", request.StatusPending, request.StatusApproved), domain.ErrConflict)
	assert.ErrorIs(t, s.SetRequestStatus(ctx, "nope", request.StatusPending, request.StatusApproved), domain.ErrNotFound)

	list, err := s.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "r2", list[0].ID)
	assert.Equal(t, request.StatusRejected, list[1].Status)

	require.NoError(t, s.DeleteRequest(ctx, "r2"))
	n, err = s.CountRequests(ctx, request.StatusPending)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestMarkers(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	ok, err := s.HasMarker(ctx, "migrated")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetMarker(ctx, "migrated"))
	ok, err = s.HasMarker(ctx, "migrated")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPing(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, s.Ping(context.Background()))
	mr.Close()
	assert.Error(t, s.Ping(context.Background()))
}
