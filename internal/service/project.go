// Package service implements business logic on top of ports.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/showcase/internal/adapter/otel"
	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/port/database"
	"github.com/Strob0t/showcase/internal/port/messagequeue"
)

// PreviewInvalidator drops cached previews of a project version.
type PreviewInvalidator interface {
	Invalidate(ctx context.Context, id string, version int)
}

// FileRemover deletes stored objects belonging to a project.
type FileRemover interface {
	RemoveProjectFiles(ctx context.Context, p *project.Project)
}

// ProjectService handles project business logic.
type ProjectService struct {
	store       database.ProjectStore
	queue       messagequeue.Queue
	previews    PreviewInvalidator
	files       FileRemover
	metrics     *otel.Metrics
	latestLimit int
	now         func() time.Time
}

// NewProjectService creates a new ProjectService. queue may be nil.
func NewProjectService(store database.ProjectStore, queue messagequeue.Queue) *ProjectService {
	return &ProjectService{
		store:       store,
		queue:       queue,
		latestLimit: 6,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetPreviewInvalidator sets the cache dropped on update and delete.
func (s *ProjectService) SetPreviewInvalidator(p PreviewInvalidator) { s.previews = p }

// SetFileRemover sets the object cleanup run after a project is deleted.
func (s *ProjectService) SetFileRemover(r FileRemover) { s.files = r }

// SetMetrics sets the metric instruments.
func (s *ProjectService) SetMetrics(m *otel.Metrics) { s.metrics = m }

// SetLatestLimit sets the default size of the latest-projects view.
func (s *ProjectService) SetLatestLimit(n int) {
	if n > 0 {
		s.latestLimit = n
	}
}

// List returns all projects, newest first.
func (s *ProjectService) List(ctx context.Context) ([]project.Project, error) {
	return s.store.ListProjects(ctx)
}

// ListActive returns the projects shown in the public gallery, newest first.
func (s *ProjectService) ListActive(ctx context.Context) ([]project.Project, error) {
	all, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]project.Project, 0, len(all))
	for i := range all {
		if all[i].IsActive {
			active = append(active, all[i])
		}
	}
	return active, nil
}

// Latest returns at most n active projects, newest first. n <= 0 selects
// the configured default.
func (s *ProjectService) Latest(ctx context.Context, n int) ([]project.Project, error) {
	if n <= 0 {
		n = s.latestLimit
	}
	active, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	if len(active) > n {
		active = active[:n]
	}
	return active, nil
}

// Get returns a project by ID.
func (s *ProjectService) Get(ctx context.Context, id string) (*project.Project, error) {
	return s.store.GetProject(ctx, id)
}

// Create validates req and stores a new project. A pre-allocated ID (from a
// prior upload) is kept; otherwise one is generated.
func (s *ProjectService) Create(ctx context.Context, req *project.CreateRequest) (*project.Project, error) {
	if err := project.ValidateCreateRequest(req); err != nil {
		return nil, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("id must be a UUID: %w", domain.ErrValidation)
	}

	now := s.now()
	p := &project.Project{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
		DisplayType: req.DisplayType,
		IsActive:    req.IsActive == nil || *req.IsActive,
		ProjectType: req.ProjectType,
		FileContent: req.FileContent,
		Files:       req.Files,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.ProjectType == project.TypeFile && p.Files.Len() == 0 && p.FileName == "" {
		p.FileName = "index.html"
		p.URL = "projects/index.html"
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.changed(ctx, p, messagequeue.ActionCreated)
	return p, nil
}

// Update merges req into the stored project. Fields left nil keep their
// value and existing files are kept unless a non-empty file set is given.
func (s *ProjectService) Update(ctx context.Context, id string, req project.UpdateRequest) (*project.Project, error) {
	if err := project.ValidateUpdateRequest(&req); err != nil {
		return nil, err
	}

	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	prevVersion := p.Version

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.URL != nil {
		p.URL = *req.URL
	}
	if req.DisplayType != nil {
		p.DisplayType = *req.DisplayType
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}
	if req.ProjectType != nil {
		p.ProjectType = *req.ProjectType
	}
	if req.Files != nil && req.Files.Len() > 0 {
		p.Files = *req.Files
	}
	p.ID = id
	p.UpdatedAt = s.now()

	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.invalidate(ctx, id, prevVersion)
	s.changed(ctx, p, messagequeue.ActionUpdated)
	return p, nil
}

// Toggle flips whether the project is shown in the gallery.
func (s *ProjectService) Toggle(ctx context.Context, id string) (*project.Project, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	prevVersion := p.Version
	p.IsActive = !p.IsActive
	p.UpdatedAt = s.now()
	if err := s.store.UpdateProject(ctx, p); err != nil {
		return nil, fmt.Errorf("toggle project: %w", err)
	}
	s.invalidate(ctx, id, prevVersion)
	s.changed(ctx, p, messagequeue.ActionToggled)
	return p, nil
}

// Delete removes a project and, best effort, its stored files.
func (s *ProjectService) Delete(ctx context.Context, id string) error {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	s.invalidate(ctx, id, p.Version)
	if s.files != nil {
		s.files.RemoveProjectFiles(ctx, p)
	}
	s.changed(ctx, p, messagequeue.ActionDeleted)
	return nil
}

func (s *ProjectService) invalidate(ctx context.Context, id string, version int) {
	if s.previews != nil {
		s.previews.Invalidate(ctx, id, version)
	}
}

func (s *ProjectService) changed(ctx context.Context, p *project.Project, action string) {
	slog.InfoContext(ctx, "project changed", "project_id", p.ID, "action", action, "version", p.Version)
	s.metrics.RecordProjectWrite(ctx, action)
	publish(ctx, s.queue, messagequeue.SubjectProjectsUpdated, messagequeue.ProjectsUpdatedPayload{
		ProjectID: p.ID,
		Action:    action,
		Version:   p.Version,
		IsActive:  p.IsActive,
	})
}
