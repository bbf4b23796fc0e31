// Package scheduler runs the expiry scanner: a single loop that finds
// past-due drawings and drives them through the end transition. Due-ness is
// computed from persisted timestamps, so nothing needs reconstructing after
// a restart.
package scheduler

import (
	"context"
	"time"

	"github.com/google/logger"

	"giveaway/internal/models"
)

// Ender is the slice of the lifecycle controller the scanner needs.
type Ender interface {
	ListDue(ctx context.Context, now time.Time) ([]*models.Drawing, error)
	End(ctx context.Context, id string) (*models.Drawing, error)
}

// Scanner wakes on a fixed interval and ends every due drawing.
type Scanner struct {
	service  Ender
	interval time.Duration
	now      func() time.Time
}

// New creates a Scanner. A drawing may end up to one interval late; that is
// the deal this design makes for having no per-drawing timers.
func New(service Ender, interval time.Duration) *Scanner {
	return &Scanner{service: service, interval: interval, now: time.Now}
}

// Run blocks until ctx is cancelled, scanning once per interval.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scan(ctx)
		}
	}
}

// scan ends each due drawing in its own goroutine so a slow announcement
// for one drawing cannot stall the others. Overlap with the next cycle is
// harmless: the store's TryEnd lets only one caller finalize a drawing.
func (s *Scanner) scan(ctx context.Context) {
	due, err := s.service.ListDue(ctx, s.now())
	if err != nil {
		logger.Errorf("expiry scan failed: %v", err)
		return
	}

	for _, d := range due {
		go func(id string) {
			if _, err := s.service.End(ctx, id); err != nil {
				logger.Errorf("ending due drawing %s failed: %v", id, err)
			}
		}(d.ID)
	}
}
