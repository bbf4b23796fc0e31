package models

import "errors"

// Error kinds surfaced by the lifecycle engine. Handlers map these to
// response codes; everything else is treated as internal.
var (
	// ErrInvalidSpec rejects a drawing request before any persistence.
	ErrInvalidSpec = errors.New("invalid drawing spec")

	// ErrNotFound means the drawing id is unknown to the store.
	ErrNotFound = errors.New("drawing not found")

	// ErrClosed means entry was attempted on an ended drawing.
	ErrClosed = errors.New("drawing already ended")

	// ErrNotEnded means reroll was attempted on a still-active drawing.
	ErrNotEnded = errors.New("drawing not ended yet")

	// ErrNoChange means an edit patch had no fields set.
	ErrNoChange = errors.New("edit contains no changes")

	// ErrDeliveryFailed means the notifier could not post or update an
	// announcement. State transitions that already committed stay committed.
	ErrDeliveryFailed = errors.New("announcement delivery failed")

	// ErrStoreUnavailable wraps persistent store connectivity failures
	// after retries are exhausted.
	ErrStoreUnavailable = errors.New("record store unavailable")
)
