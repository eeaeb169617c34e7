package http

import (
	"net/http"
)

// ListRequests handles GET /api/v1/requests.
func (h *Handlers) ListRequests(w http.ResponseWriter, r *http.Request) {
	handleList(h.Requests.List)(w, r)
}

// GetRequest handles GET /api/v1/requests/{id}.
func (h *Handlers) GetRequest(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Requests.Get, "request not found")(w, r)
}

// CreateRequest handles POST /api/v1/requests.
func (h *Handlers) CreateRequest(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.BodyLimit, h.Requests.Create)(w, r)
}

// ApproveRequest handles POST /api/v1/requests/{id}/approve.
func (h *Handlers) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	handleAction(h.Requests.Approve, "request not found")(w, r)
}

// RejectRequest handles POST /api/v1/requests/{id}/reject.
func (h *Handlers) RejectRequest(w http.ResponseWriter, r *http.Request) {
	handleAction(h.Requests.Reject, "request not found")(w, r)
}

// DeleteRequest handles DELETE /api/v1/requests/{id}.
func (h *Handlers) DeleteRequest(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Requests.Delete, "request not found")(w, r)
}

// PendingRequestCount handles GET /api/v1/requests/pending-count.
func (h *Handlers) PendingRequestCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.Requests.PendingCount(r.Context())
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"pending": n})
}
