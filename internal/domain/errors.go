// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict indicates a concurrent modification conflict (optimistic locking).
var ErrConflict = errors.New("conflict: resource was modified by another request")

// ErrValidation indicates that a request failed input validation.
var ErrValidation = errors.New("validation failed")

// ErrUnavailable indicates that a backing store or service could not be reached.
var ErrUnavailable = errors.New("unavailable")
