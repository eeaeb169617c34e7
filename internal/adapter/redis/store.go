// Package redis provides the secondary project store used when PostgreSQL
// is unreachable.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/project"
	"github.com/Strob0t/showcase/internal/domain/request"
)

// Store implements database.Store and database.MarkerStore on Redis.
// Records are JSON values; sorted sets keyed by creation time keep listing
// order.
type Store struct {
	rdb       goredis.UniversalClient
	keyPrefix string
}

// NewStore creates a Redis-backed store. An empty prefix defaults to "showcase".
func NewStore(rdb goredis.UniversalClient, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = "showcase"
	}
	return &Store{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *Store) key(parts ...string) string {
	return s.keyPrefix + ":" + strings.Join(parts, ":")
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// --- Projects ---

func (s *Store) ListProjects(ctx context.Context) ([]project.Project, error) {
	out, err := listJSON[project.Project](ctx, s, "projects", "project")
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return out, nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*project.Project, error) {
	var p project.Project
	if err := s.getJSON(ctx, s.key("project", id), &p); err != nil {
		return nil, fmt.Errorf("get project %s: %w", id, err)
	}
	return &p, nil
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
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}

	ok, err := s.rdb.SetNX(ctx, s.key("project", p.ID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("create project %s: %w", p.ID, err)
	}
	if !ok {
		return fmt.Errorf("create project %s: %w", p.ID, domain.ErrConflict)
	}
	if err := s.rdb.ZAdd(ctx, s.key("projects"), goredis.Z{
		Score:  float64(p.CreatedAt.UnixMilli()),
		Member: p.ID,
	}).Err(); err != nil {
		return fmt.Errorf("index project %s: %w", p.ID, err)
	}
	return nil
}

func (s *Store) UpdateProject(ctx context.Context, p *project.Project) error {
	key := s.key("project", p.ID)
	next := *p
	next.Version = p.Version + 1

	err := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		var current project.Project
		if err := getJSONFrom(ctx, tx, key, &current); err != nil {
			return err
		}
		if current.Version != p.Version {
			return domain.ErrConflict
		}
		raw, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal project: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		err = domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update project %s: %w", p.ID, err)
	}
	p.Version = next.Version
	return nil
}

func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return s.deleteIndexed(ctx, "projects", "project", id)
}

// --- Service requests ---

func (s *Store) ListRequests(ctx context.Context) ([]request.ServiceRequest, error) {
	out, err := listJSON[request.ServiceRequest](ctx, s, "requests", "request")
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return out, nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*request.ServiceRequest, error) {
	var r request.ServiceRequest
	if err := s.getJSON(ctx, s.key("request", id), &r); err != nil {
		return nil, fmt.Errorf("get request %s: %w", id, err)
	}
	return &r, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *request.ServiceRequest) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	ok, err := s.rdb.SetNX(ctx, s.key("request", r.ID), raw, 0).Result()
	if err != nil {
		return fmt.Errorf("create request %s: %w", r.ID, err)
	}
	if !ok {
		return fmt.Errorf("create request %s: %w", r.ID, domain.ErrConflict)
	}
	if err := s.rdb.ZAdd(ctx, s.key("requests"), goredis.Z{
		Score:  float64(r.CreatedAt.UnixMilli()),
		Member: r.ID,
	}).Err(); err != nil {
		return fmt.Errorf("index request %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) SetRequestStatus(ctx context.Context, id string, from, to request.Status) error {
	key := s.key("request", id)
	err := s.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		var r request.ServiceRequest
		if err := getJSONFrom(ctx, tx, key, &r); err != nil {
			return err
		}
		if r.Status != from {
			return domain.ErrConflict
		}
		r.Status = to
		r.UpdatedAt = time.Now().UTC()
		raw, err := json.Marshal(r)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, goredis.TxFailedErr) {
		err = domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("set request status %s: %w", id, err)
	}
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	return s.deleteIndexed(ctx, "requests", "request", id)
}

func (s *Store) CountRequests(ctx context.Context, status request.Status) (int, error) {
	all, err := s.ListRequests(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for i := range all {
		if all[i].Status == status {
			n++
		}
	}
	return n, nil
}

// --- Markers ---

func (s *Store) HasMarker(ctx context.Context, name string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key("marker", name)).Result()
	if err != nil {
		return false, fmt.Errorf("check marker %s: %w", name, err)
	}
	return n > 0, nil
}

func (s *Store) SetMarker(ctx context.Context, name string) error {
	if err := s.rdb.Set(ctx, s.key("marker", name), time.Now().UTC().Format(time.RFC3339), 0).Err(); err != nil {
		return fmt.Errorf("set marker %s: %w", name, err)
	}
	return nil
}

// --- helpers ---

func (s *Store) getJSON(ctx context.Context, key string, dst any) error {
	return getJSONFrom(ctx, s.rdb, key, dst)
}

func getJSONFrom(ctx context.Context, c goredis.Cmdable, key string, dst any) error {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return domain.ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}

// listJSON reads every record in the index, newest first. Index entries
// whose record has vanished are skipped.
func listJSON[T any](ctx context.Context, s *Store, index, kind string) ([]T, error) {
	ids, err := s.rdb.ZRevRange(ctx, s.key(index), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(kind, id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		var item T
		if err := json.Unmarshal([]byte(str), &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *Store) deleteIndexed(ctx context.Context, index, kind, id string) error {
	pipe := s.rdb.TxPipeline()
	del := pipe.Del(ctx, s.key(kind, id))
	pipe.ZRem(ctx, s.key(index), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s %s: %w", kind, id, err)
	}
	if del.Val() == 0 {
		return fmt.Errorf("delete %s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}
