package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/google/logger"

	"giveaway/internal/membership"
	"giveaway/internal/models"
	"giveaway/internal/notify"
	"giveaway/internal/store"
)

// GiveawayService orchestrates the drawing lifecycle: create, enter, end,
// reroll, edit and pause/resume. Both the expiry scanner and manual admin
// commands call into the same instance; the end transition stays race-free
// because the store's TryEnd decides a single winner among callers.
type GiveawayService struct {
	store    store.Store
	members  membership.Lookup
	notifier notify.Notifier
	now      func() time.Time

	mu  sync.Mutex // guards rng; math/rand sources are not goroutine-safe
	rng *rand.Rand
}

// Option customizes a GiveawayService.
type Option func(*GiveawayService)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *GiveawayService) { s.now = now }
}

// WithRandSource replaces the selection randomness, for deterministic draws.
func WithRandSource(src rand.Source) Option {
	return func(s *GiveawayService) { s.rng = rand.New(src) }
}

// NewGiveawayService creates and initializes a new GiveawayService.
func NewGiveawayService(st store.Store, members membership.Lookup, notifier notify.Notifier, opts ...Option) *GiveawayService {
	s := &GiveawayService{
		store:    st,
		members:  members,
		notifier: notifier,
		now:      time.Now,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSpec describes a drawing to be created.
type OpenSpec struct {
	ChannelRef   string
	CommunityRef string
	OrganizerID  string
	Prize        string
	Description  string
	WinnerQuota  int
	Duration     time.Duration
	Requirements models.Requirements
	BonusEntries []models.BonusEntry
}

// Open validates the spec, persists a fresh active drawing and posts the
// opening announcement. A failed announcement leaves the drawing open with
// an empty announcement ref and is reported as models.ErrDeliveryFailed.
func (s *GiveawayService) Open(ctx context.Context, spec OpenSpec) (*models.Drawing, error) {
	if spec.WinnerQuota < 1 || spec.Duration <= 0 || spec.Prize == "" {
		return nil, models.ErrInvalidSpec
	}
	for _, b := range spec.BonusEntries {
		if b.Multiplier < 1 {
			return nil, models.ErrInvalidSpec
		}
	}

	now := s.now()
	d, err := s.store.Create(ctx, &models.Drawing{
		ChannelRef:   spec.ChannelRef,
		CommunityRef: spec.CommunityRef,
		OrganizerID:  spec.OrganizerID,
		Prize:        spec.Prize,
		Description:  spec.Description,
		WinnerQuota:  spec.WinnerQuota,
		StartTime:    now,
		EndTime:      now.Add(spec.Duration),
		Requirements: spec.Requirements,
		BonusEntries: spec.BonusEntries,
	})
	if err != nil {
		return nil, err
	}

	ref, err := s.notifier.AnnounceOpened(ctx, d)
	if err != nil {
		logger.Warningf("drawing %s: opening announcement failed: %v", d.ID, err)
		return d, models.ErrDeliveryFailed
	}
	if err := s.store.SetAnnouncement(ctx, d.ID, ref); err != nil {
		return nil, err
	}
	d.AnnouncementRef = ref
	return d, nil
}

// Enter registers a participant. Entering twice is a no-op, not an error.
func (s *GiveawayService) Enter(ctx context.Context, id, participantID string) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.Ended || !d.EndTime.After(s.now()) {
		return models.ErrClosed
	}
	return s.store.AddEntrant(ctx, id, participantID)
}

// End finalizes a drawing. The store's TryEnd decides which of possibly
// several racing callers performs the winner computation; everyone else
// no-ops. Announcement failure never reverses the ended state.
func (s *GiveawayService) End(ctx context.Context, id string) (*models.Drawing, error) {
	won, err := s.store.TryEnd(ctx, id)
	if err != nil {
		return nil, err
	}
	if !won {
		// Someone else ended it (or is ending it right now).
		return s.store.Get(ctx, id)
	}
	return s.draw(ctx, id, 0)
}

// Reroll recomputes winners on an already-ended drawing. A count below 1
// falls back to the drawing's winner quota. EndTime and ended are untouched.
func (s *GiveawayService) Reroll(ctx context.Context, id string, count int) (*models.Drawing, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !d.Ended {
		return nil, models.ErrNotEnded
	}
	return s.draw(ctx, id, count)
}

// draw runs the eligibility pass and winner selection for an ended drawing,
// persists the result and announces it. count 0 means "use the quota".
func (s *GiveawayService) draw(ctx context.Context, id string, count int) (*models.Drawing, error) {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		count = d.WinnerQuota
	}

	pool := make([]Ticket, 0, len(d.Entrants))
	for _, participantID := range d.Entrants {
		facts, err := s.members.FactsOf(ctx, participantID)
		if err != nil {
			// Treat an unresolvable entrant as ineligible for this pass
			// rather than failing the whole draw.
			logger.Warningf("drawing %s: membership lookup for %s failed: %v", d.ID, participantID, err)
			continue
		}
		if w := EntryWeight(d, participantID, facts); w > 0 {
			pool = append(pool, Ticket{ParticipantID: participantID, Weight: w})
		}
	}

	s.mu.Lock()
	winners := PickWinners(pool, count, s.rng)
	s.mu.Unlock()

	if err := s.store.SetWinners(ctx, d.ID, winners); err != nil {
		return nil, err
	}
	d.Winners = winners

	if err := s.notifier.AnnounceEnded(ctx, d, winners); err != nil {
		logger.Warningf("drawing %s: winner announcement failed: %v", d.ID, err)
		return d, models.ErrDeliveryFailed
	}
	return d, nil
}

// Edit applies a patch to a not-yet-ended drawing. End time changes are
// additive extensions only.
func (s *GiveawayService) Edit(ctx context.Context, id string, patch models.EditPatch) (*models.Drawing, error) {
	if patch.Empty() {
		return nil, models.ErrNoChange
	}
	if patch.ExtendBy < 0 {
		return nil, models.ErrInvalidSpec
	}
	if patch.WinnerQuota != nil && *patch.WinnerQuota < 1 {
		return nil, models.ErrInvalidSpec
	}

	d, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.Ended {
		return nil, models.ErrClosed
	}
	if err := s.store.ApplyEdit(ctx, id, patch); err != nil {
		return nil, err
	}

	d, err = s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.notifier.UpdateAnnouncement(ctx, d); err != nil {
		logger.Warningf("drawing %s: announcement update failed: %v", d.ID, err)
	}
	return d, nil
}

// Pause excludes a drawing from automatic expiry. It stays editable and
// manually endable.
func (s *GiveawayService) Pause(ctx context.Context, id string) error {
	return s.setPaused(ctx, id, true)
}

// Resume puts a paused drawing back on the expiry scanner's radar.
func (s *GiveawayService) Resume(ctx context.Context, id string) error {
	return s.setPaused(ctx, id, false)
}

func (s *GiveawayService) setPaused(ctx context.Context, id string, paused bool) error {
	d, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if d.Ended {
		return models.ErrClosed
	}
	return s.store.SetPaused(ctx, id, paused)
}

// Get returns one drawing.
func (s *GiveawayService) Get(ctx context.Context, id string) (*models.Drawing, error) {
	return s.store.Get(ctx, id)
}

// ListActive returns the not-yet-ended drawings of a community.
func (s *GiveawayService) ListActive(ctx context.Context, communityRef string) ([]*models.Drawing, error) {
	return s.store.ListActive(ctx, communityRef)
}

// ListDue returns the drawings the expiry scanner should end now.
func (s *GiveawayService) ListDue(ctx context.Context, now time.Time) ([]*models.Drawing, error) {
	return s.store.ListDue(ctx, now)
}
