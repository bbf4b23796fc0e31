// Package memory holds drawings in a mutex-guarded map. It is the default
// store when no database is configured and the backing store for tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"giveaway/internal/models"
)

// Store keeps all drawings in process memory.
type Store struct {
	mu       sync.RWMutex
	drawings map[string]*models.Drawing
}

// New creates an empty Store.
func New() *Store {
	return &Store{drawings: make(map[string]*models.Drawing)}
}

func (s *Store) Create(_ context.Context, d *models.Drawing) (*models.Drawing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := d.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.drawings[c.ID] = c
	return c.Clone(), nil
}

func (s *Store) Get(_ context.Context, id string) (*models.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.drawings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return d.Clone(), nil
}

func (s *Store) ListActive(_ context.Context, communityRef string) ([]*models.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Drawing
	for _, d := range s.drawings {
		if d.CommunityRef == communityRef && !d.Ended {
			result = append(result, d.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EndTime.Before(result[j].EndTime) })
	return result, nil
}

func (s *Store) ListDue(_ context.Context, now time.Time) ([]*models.Drawing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Drawing
	for _, d := range s.drawings {
		if d.Due(now) {
			result = append(result, d.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EndTime.Before(result[j].EndTime) })
	return result, nil
}

func (s *Store) AddEntrant(_ context.Context, id, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drawings[id]
	if !ok {
		return models.ErrNotFound
	}
	if d.HasEntrant(participantID) {
		return nil
	}
	d.Entrants = append(d.Entrants, participantID)
	return nil
}

func (s *Store) SetAnnouncement(_ context.Context, id, announcementRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drawings[id]
	if !ok {
		return models.ErrNotFound
	}
	d.AnnouncementRef = announcementRef
	return nil
}

func (s *Store) SetPaused(_ context.Context, id string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drawings[id]
	if !ok {
		return models.ErrNotFound
	}
	d.Paused = paused
	return nil
}

func (s *Store) ApplyEdit(_ context.Context, id string, patch models.EditPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drawings[id]
	if !ok {
		return models.ErrNotFound
	}
	if patch.Prize != nil {
		d.Prize = *patch.Prize
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.WinnerQuota != nil {
		d.WinnerQuota = *patch.WinnerQuota
	}
	if patch.ExtendBy > 0 {
		d.EndTime = d.EndTime.Add(patch.ExtendBy)
	}
	return nil
}

func (s *Store) SetWinners(_ context.Context, id string, winners []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drawings[id]
	if !ok {
		return models.ErrNotFound
	}
	d.Winners = append([]string(nil), winners...)
	return nil
}

func (s *Store) TryEnd(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.drawings[id]
	if !ok {
		return false, models.ErrNotFound
	}
	if d.Ended {
		return false, nil
	}
	d.Ended = true
	return true, nil
}
