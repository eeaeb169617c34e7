package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Strob0t/showcase/internal/domain"
	"github.com/Strob0t/showcase/internal/domain/request"
	"github.com/Strob0t/showcase/internal/port/database"
	"github.com/Strob0t/showcase/internal/port/messagequeue"
)

// RequestService handles service requests submitted by visitors.
type RequestService struct {
	store database.RequestStore
	queue messagequeue.Queue
	now   func() time.Time
}

// NewRequestService creates a new RequestService. queue may be nil.
func NewRequestService(store database.RequestStore, queue messagequeue.Queue) *RequestService {
	return &RequestService{
		store: store,
		queue: queue,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// List returns all requests, newest first.
func (s *RequestService) List(ctx context.Context) ([]request.ServiceRequest, error) {
	return s.store.ListRequests(ctx)
}

// Get returns a request by ID.
func (s *RequestService) Get(ctx context.Context, id string) (*request.ServiceRequest, error) {
	return s.store.GetRequest(ctx, id)
}

// Create stores a submitted request as pending.
func (s *RequestService) Create(ctx context.Context, req *request.CreateRequest) (*request.ServiceRequest, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	r := &request.ServiceRequest{
		ID:              uuid.NewString(),
		Type:            req.Type,
		Service:         req.Service,
		Description:     req.Description,
		SelectedOptions: req.SelectedOptions,
		EstimatedPrice:  req.EstimatedPrice,
		EstimatedTime:   req.EstimatedTime,
		Status:          request.StatusPending,
		CustomerInfo:    req.CustomerInfo,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateRequest(ctx, r); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	s.changed(ctx, r.ID, messagequeue.ActionCreated, r.Status)
	return r, nil
}

// Approve moves a pending request to approved.
func (s *RequestService) Approve(ctx context.Context, id string) (*request.ServiceRequest, error) {
	return s.transition(ctx, id, request.StatusApproved, messagequeue.ActionApproved)
}

// Reject moves a pending request to rejected.
func (s *RequestService) Reject(ctx context.Context, id string) (*request.ServiceRequest, error) {
	return s.transition(ctx, id, request.StatusRejected, messagequeue.ActionRejected)
}

func (s *RequestService) transition(ctx context.Context, id string, to request.Status, action string) (*request.ServiceRequest, error) {
	r, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if !request.CanTransition(r.Status, to) {
		return nil, fmt.Errorf("request %s is already %s: %w", id, r.Status, domain.ErrConflict)
	}
	if err := s.store.SetRequestStatus(ctx, id, r.Status, to); err != nil {
		return nil, fmt.Errorf("set request status: %w", err)
	}
	r.Status = to
	r.UpdatedAt = s.now()
	s.changed(ctx, id, action, to)
	return r, nil
}

// Delete removes a request.
func (s *RequestService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRequest(ctx, id); err != nil {
		return err
	}
	s.changed(ctx, id, messagequeue.ActionDeleted, "")
	return nil
}

// PendingCount returns the number of requests awaiting review.
func (s *RequestService) PendingCount(ctx context.Context) (int, error) {
	return s.store.CountRequests(ctx, request.StatusPending)
}

func (s *RequestService) changed(ctx context.Context, id, action string, status request.Status) {
	pending, err := s.PendingCount(ctx)
	if err != nil {
		slog.WarnContext(ctx, "count pending requests", "error", err)
		pending = -1
	}
	slog.InfoContext(ctx, "service request changed", "request_id", id, "action", action, "pending", pending)
	publish(ctx, s.queue, messagequeue.SubjectRequestsUpdated, messagequeue.RequestsUpdatedPayload{
		RequestID: id,
		Action:    action,
		Status:    string(status),
		Pending:   pending,
	})
}
