package fallback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Strob0t/showcase/internal/domain"
)

// ReconcileResult reports what Reconcile did.
type ReconcileResult struct {
	Copied  int    `json:"copied"`
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
}

// Reconcile copies projects from the secondary to the primary when the
// primary holds none and the migration marker is not yet set. It runs at
// most once per secondary: the marker is set after a successful copy, and
// also when there was nothing to copy.
func (s *Store) Reconcile(ctx context.Context) (ReconcileResult, error) {
	if s.secondary == nil || s.markers == nil {
		return ReconcileResult{Skipped: true, Reason: "no secondary store"}, nil
	}

	done, err := s.markers.HasMarker(ctx, MigratedMarker)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("reconcile: %w", err)
	}
	if done {
		return ReconcileResult{Skipped: true, Reason: "already migrated"}, nil
	}

	existing, err := s.primary.ListProjects(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("reconcile: list primary: %w", err)
	}
	if len(existing) > 0 {
		return ReconcileResult{Skipped: true, Reason: "primary not empty"}, nil
	}

	local, err := s.secondary.ListProjects(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("reconcile: list secondary: %w", err)
	}

	copied := 0
	for i := range local {
		p := local[i]
		if err := s.primary.CreateProject(ctx, &p); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return ReconcileResult{Copied: copied}, fmt.Errorf("reconcile: copy project %s: %w", p.ID, err)
		}
		copied++
	}

	if err := s.markers.SetMarker(ctx, MigratedMarker); err != nil {
		return ReconcileResult{Copied: copied}, fmt.Errorf("reconcile: %w", err)
	}
	slog.Info("reconciled projects into primary store", "copied", copied)
	return ReconcileResult{Copied: copied}, nil
}
