package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/Strob0t/showcase/internal/adapter/otel"
	"github.com/Strob0t/showcase/internal/domain/preview"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/port/cache"
	"github.com/Strob0t/showcase/internal/port/database"
)

// Preview is a rendered project.
type Preview struct {
	Project    *project.Project
	Document   string
	Renderable bool
	// DegradedFiles counts files replaced by load-failure placeholders.
	DegradedFiles int
	Cached        bool
}

// PreviewService renders file projects into single HTML documents and
// caches fully loaded results per project version.
type PreviewService struct {
	store   database.ProjectStore
	merger  *preview.Merger
	cache   cache.Cache
	ttl     time.Duration
	metrics *otel.Metrics
}

// NewPreviewService creates a PreviewService. c may be nil to disable caching.
func NewPreviewService(store database.ProjectStore, merger *preview.Merger, c cache.Cache, ttl time.Duration) *PreviewService {
	return &PreviewService{store: store, merger: merger, cache: c, ttl: ttl}
}

// SetMetrics sets the metric instruments.
func (s *PreviewService) SetMetrics(m *otel.Metrics) { s.metrics = m }

// PreviewCacheKey is the cache key of a project version's document.
func PreviewCacheKey(id string, version int) string {
	return "preview:" + id + ":" + strconv.Itoa(version)
}

// Render loads project id and merges its files. A project without markup
// and without legacy content yields a Preview with Renderable false.
func (s *PreviewService) Render(ctx context.Context, id string) (*Preview, error) {
	p, err := s.store.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.StartPreviewSpan(ctx, p.ID, p.Version)
	defer span.End()

	key := PreviewCacheKey(p.ID, p.Version)
	if s.cache != nil {
		if data, ok, err := s.cache.Get(ctx, key); err != nil {
			slog.WarnContext(ctx, "preview cache get", "project_id", p.ID, "error", err)
		} else if ok {
			s.metrics.RecordCacheHit(ctx)
			return &Preview{Project: p, Document: string(data), Renderable: true, Cached: true}, nil
		}
	}

	start := time.Now()
	res := s.merger.Merge(ctx, p)
	s.metrics.RecordMerge(ctx, time.Since(start).Seconds(), len(res.Failures), res.Renderable)

	for _, f := range res.Failures {
		slog.WarnContext(ctx, "preview file failed to load", "project_id", p.ID, "file", f.Name, "error", f.Err)
	}

	if res.Renderable && !res.Degraded() && s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(res.Document), s.ttl); err != nil {
			slog.WarnContext(ctx, "preview cache set", "project_id", p.ID, "error", err)
		}
	}

	return &Preview{
		Project:       p,
		Document:      res.Document,
		Renderable:    res.Renderable,
		DegradedFiles: len(res.Failures),
	}, nil
}

// Invalidate drops the cached document of a project version.
func (s *PreviewService) Invalidate(ctx context.Context, id string, version int) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, PreviewCacheKey(id, version)); err != nil {
		slog.WarnContext(ctx, "preview cache delete", "project_id", id, "error", err)
	}
}
