package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/request"
)

const requestColumns = `id, type, service, description, selected_options, estimated_price,
	estimated_time, status, customer_info, created_at, updated_at`

func (s *Store) ListRequests(ctx context.Context) ([]request.ServiceRequest, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+requestColumns+` FROM service_requests ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []request.ServiceRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("list requests: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return orEmpty(out), nil
}

func (s *Store) GetRequest(ctx context.Context, id string) (*request.ServiceRequest, error) {
	r, err := scanRequest(s.pool.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM service_requests WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get request %s", id)
	}
	return &r, nil
}

func (s *Store) CreateRequest(ctx context.Context, r *request.ServiceRequest) error {
	info, err := json.Marshal(r.CustomerInfo)
	if err != nil {
		return fmt.Errorf("marshal customer info: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO service_requests (`+requestColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		r.ID, r.Type, r.Service, r.Description, r.SelectedOptions, r.EstimatedPrice,
		r.EstimatedTime, r.Status, info, r.CreatedAt, r.UpdatedAt)
	if err != nil {
		return conflictWrap(err, "create request %s", r.ID)
	}
	return nil
}

func (s *Store) SetRequestStatus(ctx context.Context, id string, from, to request.Status) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE service_requests SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`,
		id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set request status %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetRequest(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("set request status %s: %w", id, domain.ErrConflict)
	}
	return nil
}

func (s *Store) DeleteRequest(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM service_requests WHERE id = $1`, id)
	return execExpectOne(tag, err, "delete request %s", id)
}

func (s *Store) CountRequests(ctx context.Context, status request.Status) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM service_requests WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("count requests: %w", err)
	}
	return n, nil
}

func scanRequest(row scannable) (request.ServiceRequest, error) {
	var r request.ServiceRequest
	var info []byte
	err := row.Scan(&r.ID, &r.Type, &r.Service, &r.Description, &r.SelectedOptions, &r.EstimatedPrice,
		&r.EstimatedTime, &r.Status, &info, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return r, err
	}
	if len(info) > 0 {
		if err := json.Unmarshal(info, &r.CustomerInfo); err != nil {
			return r, fmt.Errorf("unmarshal customer info: %w", err)
		}
	}
	return r, nil
}
