// Package store defines the drawing record store contract. Implementations
// must make every mutation a single atomic update; TryEnd in particular is
// the compare-and-swap the whole end-transition race rests on.
package store

import (
	"context"
	"time"

	"giveaway/internal/models"
)

// Store is the durable home of drawings and the sole source of truth for
// their state.
type Store interface {
	// Create assigns an id and persists the drawing.
	Create(ctx context.Context, d *models.Drawing) (*models.Drawing, error)

	// Get returns the drawing or models.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Drawing, error)

	// ListActive returns the not-yet-ended drawings of a community.
	ListActive(ctx context.Context, communityRef string) ([]*models.Drawing, error)

	// ListDue returns drawings that are not ended, not paused, and whose
	// end time is at or before now.
	ListDue(ctx context.Context, now time.Time) ([]*models.Drawing, error)

	// AddEntrant registers a participant. Adding the same participant
	// twice is a no-op, and concurrent adds must not lose entries.
	AddEntrant(ctx context.Context, id, participantID string) error

	// SetAnnouncement attaches the announcement reference once the
	// notifier has confirmed posting.
	SetAnnouncement(ctx context.Context, id, announcementRef string) error

	// SetPaused toggles the paused flag.
	SetPaused(ctx context.Context, id string, paused bool) error

	// ApplyEdit applies a patch as one atomic update. The end time only
	// ever moves later; validation is the caller's job.
	ApplyEdit(ctx context.Context, id string, patch models.EditPatch) error

	// SetWinners overwrites the winners set.
	SetWinners(ctx context.Context, id string, winners []string) error

	// TryEnd flips ended from false to true and reports whether this call
	// performed the flip. Exactly one caller ever sees true per drawing;
	// only that caller may compute and persist winners.
	TryEnd(ctx context.Context, id string) (bool, error)
}
