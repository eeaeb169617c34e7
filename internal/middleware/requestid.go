// Package middleware provides HTTP middleware for the showcase API.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/Strob0t/showcase/internal/logger"
)

// RequestIDHeader carries the request ID on requests and responses.
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLen = 128

// RequestID is HTTP middleware that takes X-Request-ID from the request or
// generates a UUID. The ID is stored in the context, echoed on the
// response, and carried into queue messages published while serving.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		ctx := logger.WithRequestID(r.Context(), id)
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// validRequestID accepts non-empty printable ASCII up to maxRequestIDLen so
// client-supplied IDs cannot inject into log lines.
func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
