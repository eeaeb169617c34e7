package http

import (
	"net/http"
	"strconv"

	"github.com/Strob0t/showcase/internal/domain/project"
)

// ListProjects handles GET /api/v1/projects (all projects, newest first).
func (h *Handlers) ListProjects(w http.ResponseWriter, r *http.Request) {
	handleList(h.Projects.List)(w, r)
}

// ListGallery handles GET /api/v1/gallery (active projects only).
func (h *Handlers) ListGallery(w http.ResponseWriter, r *http.Request) {
	handleList(h.Projects.ListActive)(w, r)
}

// ListLatest handles GET /api/v1/gallery/latest?limit=N.
func (h *Handlers) ListLatest(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}
	items, err := h.Projects.Latest(r.Context(), limit)
	if err != nil {
		writeDomainError(w, err, "not found")
		return
	}
	if items == nil {
		items = []project.Project{}
	}
	writeJSON(w, http.StatusOK, items)
}

// GetProject handles GET /api/v1/projects/{id}.
func (h *Handlers) GetProject(w http.ResponseWriter, r *http.Request) {
	handleGet(h.Projects.Get, "project not found")(w, r)
}

// CreateProject handles POST /api/v1/projects.
func (h *Handlers) CreateProject(w http.ResponseWriter, r *http.Request) {
	handleCreate(h.BodyLimit, h.Projects.Create)(w, r)
}

// UpdateProject handles PUT /api/v1/projects/{id}.
func (h *Handlers) UpdateProject(w http.ResponseWriter, r *http.Request) {
	handleUpdate(h.BodyLimit, h.Projects.Update, "project not found")(w, r)
}

// ToggleProject handles POST /api/v1/projects/{id}/toggle.
func (h *Handlers) ToggleProject(w http.ResponseWriter, r *http.Request) {
	handleAction(h.Projects.Toggle, "project not found")(w, r)
}

// DeleteProject handles DELETE /api/v1/projects/{id}.
func (h *Handlers) DeleteProject(w http.ResponseWriter, r *http.Request) {
	handleDelete(h.Projects.Delete, "project not found")(w, r)
}
