package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/project"
)

// Store implements database.Store using PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store backed by the given connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Ping checks the connection pool.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Projects ---

const projectColumns = `id, name, description, url, display_type, is_active, project_type,
	file_name, file_content, version, created_at, updated_at`

func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+projectColumns+` FROM projects ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	if err := s.attachFiles(ctx, projects); err != nil {
		return nil, err
	}
	return orEmpty(projects), nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	p, err := scanProject(row)
	if err != nil {
		return nil, notFoundWrap(err, "get project %s", id)
	}

	list := []project.Project{p}
	if err := s.attachFiles(ctx, list); err != nil {
		return nil, err
	}
	return &list[0], nil
}

func (s *Store) CreateProject(ctx context.Context, p *project.Project) error {
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

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO projects (`+projectColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			p.ID, p.Name, p.Description, p.URL, p.DisplayType, p.IsActive, p.ProjectType,
			p.FileName, p.FileContent, p.Version, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return conflictWrap(err, "create project %s", p.ID)
		}
		return insertFiles(ctx, tx, p.ID, p.Files)
	})
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE projects SET name = $2, description = $3, url = $4, display_type = $5, is_active = $6,
			        project_type = $7, file_name = $8, file_content = $9, updated_at = $10, version = version + 1
			 WHERE id = $1 AND version = $11`,
			p.ID, p.Name, p.Description, p.URL, p.DisplayType, p.IsActive,
			p.ProjectType, p.FileName, p.FileContent, p.UpdatedAt, p.Version)
		if err != nil {
			return fmt.Errorf("update project %s: %w", p.ID, err)
		}
		if tag.RowsAffected() == 0 {
			var exists bool
			if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM projects WHERE id = $1)`, p.ID).Scan(&exists); err != nil {
				return fmt.Errorf("update project %s: %w", p.ID, err)
			}
			if !exists {
				return fmt.Errorf("update project %s: %w", p.ID, domain.ErrNotFound)
			}
			return fmt.Errorf("update project %s: %w", p.ID, domain.ErrConflict)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM project_files WHERE project_id = $1`, p.ID); err != nil {
			return fmt.Errorf("replace files of %s: %w", p.ID, err)
		}
		return insertFiles(ctx, tx, p.ID, p.Files)
	})
	if err != nil {
		return err
	}
	p.Version++
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete project %s", id)
}

func insertFiles(ctx context.Context, tx pgx.Tx, projectID string, files project.FileSet) error {
	entries := files.Entries()
	if len(entries) == 0 {
		return nil
	}
	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{projectID, e.Key, i, e.File.Name, e.File.Content, e.File.URL, e.File.MimeType, e.File.Size}
	}
	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"project_files"},
		[]string{"project_id", "file_key", "position", "name", "content", "url", "mime_type", "size"},
		pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("insert files of %s: %w", projectID, err)
	}
	return nil
}

// attachFiles loads the files of every project in one query, in position order.
func (s *Store) attachFiles(ctx context.Context, projects []project.Project) error {
	if len(projects) == 0 {
		return nil
	}
	ids := make([]string, len(projects))
	byID := make(map[string]int, len(projects))
	for i := range projects {
		ids[i] = projects[i].ID
		byID[projects[i].ID] = i
	}

	rows, err := s.pool.Query(ctx,
		`SELECT project_id, file_key, name, content, url, mime_type, size
		 FROM project_files WHERE project_id = ANY($1) ORDER BY project_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load project files: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var projectID, key string
		var f project.File
		if err := rows.Scan(&projectID, &key, &f.Name, &f.Content, &f.URL, &f.MimeType, &f.Size); err != nil {
			return fmt.Errorf("scan project file: %w", err)
		}
		if i, ok := byID[projectID]; ok {
			projects[i].Files.Set(key, f)
		}
	}
	return rows.Err()
}

func scanProject(row scannable) (project.Project, error) {
	var p project.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.URL, &p.DisplayType, &p.IsActive, &p.ProjectType,
		&p.FileName, &p.FileContent, &p.Version, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
