package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Preview documents are HTML and carry their own sandbox policy.
		r.Get("/projects/{id}/preview", h.PreviewProject)

		r.Group(func(r chi.Router) {
			r.Use(SecurityHeaders)

			r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, http.StatusOK, map[string]string{"version": "1.0.0"})
			})

			// Public gallery
			r.Get("/gallery", h.ListGallery)
			r.Get("/gallery/latest", h.ListLatest)

			// Projects
			r.Get("/projects", h.ListProjects)
			r.Post("/projects", h.CreateProject)
			r.Get("/projects/{id}", h.GetProject)
			r.Put("/projects/{id}", h.UpdateProject)
			r.Delete("/projects/{id}", h.DeleteProject)
			r.Post("/projects/{id}/toggle", h.ToggleProject)

			// File uploads
			r.Post("/uploads", h.UploadFiles)

			// Service requests
			r.Get("/requests", h.ListRequests)
			r.Post("/requests", h.CreateRequest)
			r.Get("/requests/pending-count", h.PendingRequestCount)
			r.Get("/requests/{id}", h.GetRequest)
			r.Delete("/requests/{id}", h.DeleteRequest)
			r.Post("/requests/{id}/approve", h.ApproveRequest)
			r.Post("/requests/{id}/reject", h.RejectRequest)
		})
	})
}
