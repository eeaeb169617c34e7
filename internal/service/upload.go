package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/Strob0t/showcase/internal/adapter/otel"
	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/preview"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/port/objectstore"
)

const uploadPrefix = "project-files"

// Upload is one file received from a client.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// UploadResult lists the stored files of a project in upload order.
type UploadResult struct {
	ProjectID string          `json:"project_id"`
	Files     project.FileSet `json:"files"`
	// Inline is true when at least one file fell back to an inline data URL.
	Inline bool `json:"inline"`
}

// UploadService stores uploaded project files in object storage, or inline
// as data URLs when no object store is configured or a write fails.
type UploadService struct {
	objects objectstore.Store
}

// NewUploadService creates an UploadService. objects may be nil.
func NewUploadService(objects objectstore.Store) *UploadService {
	return &UploadService{objects: objects}
}

// ObjectKey is the storage key of a project file.
func ObjectKey(projectID, name string) string {
	return path.Join(uploadPrefix, projectID, name)
}

// Store saves files for projectID, allocating a new ID when it is empty.
func (s *UploadService) Store(ctx context.Context, projectID string, uploads []Upload) (*UploadResult, error) {
	if projectID == "" {
		projectID = uuid.NewString()
	} else if _, err := uuid.Parse(projectID); err != nil {
		return nil, fmt.Errorf("project_id must be a UUID: %w", domain.ErrValidation)
	}
	if len(uploads) == 0 {
		return nil, fmt.Errorf("at least one file is required: %w", domain.ErrValidation)
	}

	res := &UploadResult{ProjectID: projectID}
	for _, u := range uploads {
		name := path.Base(strings.ReplaceAll(u.Name, `\`, "/"))
		if name == "" || name == "." || name == "/" || name == ".." {
			return nil, fmt.Errorf("file name %q is invalid: %w", u.Name, domain.ErrValidation)
		}
		mime := u.ContentType
		if mime == "" || mime == "application/octet-stream" {
			mime = project.MimeTypeFor(name)
		}
		f := s.storeOne(ctx, projectID, name, mime, u.Data)
		if f.Inline() {
			res.Inline = true
		}
		res.Files.Set(name, f)
	}

	if _, ok := res.Files.Markup(); !ok {
		slog.InfoContext(ctx, "upload has no markup file", "project_id", projectID)
	}
	return res, nil
}

func (s *UploadService) storeOne(ctx context.Context, projectID, name, mime string, data []byte) project.File {
	f := project.File{Name: name, MimeType: mime, Size: int64(len(data))}
	if s.objects != nil {
		ctx, span := otel.StartUploadSpan(ctx, projectID, name)
		key := ObjectKey(projectID, name)
		err := s.objects.Put(ctx, key, data, mime)
		span.End()
		if err == nil {
			f.URL = s.objects.URL(key)
			return f
		}
		slog.WarnContext(ctx, "object store write failed, storing inline", "project_id", projectID, "file", name, "error", err)
	}
	f.Content = preview.EncodeDataURL(mime, data)
	return f
}

// RemoveProjectFiles deletes the stored objects referenced by p. Failures
// are logged.
func (s *UploadService) RemoveProjectFiles(ctx context.Context, p *project.Project) {
	if s.objects == nil {
		return
	}
	for _, e := range p.Files.Entries() {
		if e.File.Inline() || e.File.URL == "" {
			continue
		}
		key := ObjectKey(p.ID, e.DisplayName())
		if e.File.URL != s.objects.URL(key) {
			continue
		}
		if err := s.objects.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "delete project file", "project_id", p.ID, "key", key, "error", err)
		}
	}
}
