// Package request defines service requests submitted by site visitors and
// reviewed from the dashboard.
package request

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Strob0t/showcase/internal/domain"
)

// Status is the review state of a service request.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// CustomerInfo is optional contact information attached to a request.
type CustomerInfo struct {
	ClientName  string `json:"client_name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	HasLogo     string `json:"has_logo,omitempty"`
}

// Empty reports whether no contact field is set.
func (c CustomerInfo) Empty() bool {
	return c == CustomerInfo{}
}

// ServiceRequest is a visitor's request for development work.
type ServiceRequest struct {
	ID              string       `json:"id"`
	Type            string       `json:"type"`
	Service         string       `json:"service"`
	Description     string       `json:"description"`
	SelectedOptions string       `json:"selected_options,omitempty"`
	EstimatedPrice  string       `json:"estimated_price,omitempty"`
	EstimatedTime   string       `json:"estimated_time,omitempty"`
	Status          Status       `json:"status"`
	CustomerInfo    CustomerInfo `json:"customer_info"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// CreateRequest holds the fields a visitor submits.
type CreateRequest struct {
	Type            string       `json:"type"`
	Service         string       `json:"service"`
	Description     string       `json:"description"`
	SelectedOptions string       `json:"selected_options"`
	EstimatedPrice  string       `json:"estimated_price"`
	EstimatedTime   string       `json:"estimated_time"`
	CustomerInfo    CustomerInfo `json:"customer_info"`
}

// Validate checks a submitted request.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Description) == "" {
		return fmt.Errorf("description is required: %w", domain.ErrValidation)
	}
	if utf8.RuneCountInString(r.Description) > 5000 {
		return fmt.Errorf("description exceeds 5000 characters: %w", domain.ErrValidation)
	}
	if len(r.Type) > 255 || len(r.Service) > 255 {
		return fmt.Errorf("type and service must not exceed 255 characters: %w", domain.ErrValidation)
	}
	if r.CustomerInfo.Email != "" {
		if _, err := mail.ParseAddress(r.CustomerInfo.Email); err != nil {
			return fmt.Errorf("customer_info.email is invalid: %w", domain.ErrValidation)
		}
	}
	return nil
}

// CanTransition reports whether a request in status from may move to to.
// Only pending requests are reviewed; a decision is final.
func CanTransition(from, to Status) bool {
	return from == StatusPending && (to == StatusApproved || to == StatusRejected)
}
