// Package postgres implements the drawing record store on PostgreSQL.
// Entrant and winner sets are text arrays, rules are jsonb, and the end
// transition is a conditional UPDATE so that exactly one caller wins.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"giveaway/internal/models"
	"giveaway/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS drawings (
	id               TEXT PRIMARY KEY,
	announcement_ref TEXT NOT NULL DEFAULT '',
	channel_ref      TEXT NOT NULL,
	community_ref    TEXT NOT NULL,
	organizer_id     TEXT NOT NULL,
	prize            TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	winner_quota     INT  NOT NULL,
	winners          TEXT[] NOT NULL DEFAULT '{}',
	start_time       TIMESTAMPTZ NOT NULL,
	end_time         TIMESTAMPTZ NOT NULL,
	ended            BOOLEAN NOT NULL DEFAULT FALSE,
	paused           BOOLEAN NOT NULL DEFAULT FALSE,
	requirements     JSONB NOT NULL DEFAULT '{}',
	bonus_entries    JSONB NOT NULL DEFAULT '[]',
	entrants         TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS drawings_due_idx ON drawings (end_time) WHERE NOT ended AND NOT paused;
`

const (
	maxAttempts  = 3
	retryBackoff = 200 * time.Millisecond
)

// Store implements store.Store backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ store.Store = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to PostgreSQL, tunes the pool and verifies connectivity.
func Open(dsn string) (*Store, *sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return New(db), db, nil
}

// EnsureSchema creates the drawings table if it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// retry runs op up to maxAttempts times with a short backoff. Store
// connectivity failures end up wrapped as models.ErrStoreUnavailable;
// not-found and context errors pass through untouched.
func retry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = op(); err == nil {
			return nil
		}
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, models.ErrNotFound) || ctx.Err() != nil {
			return err
		}
		select {
		case <-time.After(retryBackoff << attempt):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
}

func (s *Store) Create(ctx context.Context, d *models.Drawing) (*models.Drawing, error) {
	c := d.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	reqJSON, err := json.Marshal(c.Requirements)
	if err != nil {
		return nil, err
	}
	bonusJSON, err := json.Marshal(c.BonusEntries)
	if err != nil {
		return nil, err
	}

	err = retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO drawings (id, announcement_ref, channel_ref, community_ref, organizer_id,
				prize, description, winner_quota, winners, start_time, end_time, ended, paused,
				requirements, bonus_entries, entrants)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		`, c.ID, c.AnnouncementRef, c.ChannelRef, c.CommunityRef, c.OrganizerID,
			c.Prize, c.Description, c.WinnerQuota, pq.Array(c.Winners), c.StartTime, c.EndTime,
			c.Ended, c.Paused, reqJSON, bonusJSON, pq.Array(c.Entrants))
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

const selectColumns = `id, announcement_ref, channel_ref, community_ref, organizer_id,
	prize, description, winner_quota, winners, start_time, end_time, ended, paused,
	requirements, bonus_entries, entrants`

func scanDrawing(row interface{ Scan(...any) error }) (*models.Drawing, error) {
	var (
		d        models.Drawing
		winners  pq.StringArray
		entrants pq.StringArray
		reqRaw   []byte
		bonusRaw []byte
	)
	if err := row.Scan(&d.ID, &d.AnnouncementRef, &d.ChannelRef, &d.CommunityRef, &d.OrganizerID,
		&d.Prize, &d.Description, &d.WinnerQuota, &winners, &d.StartTime, &d.EndTime,
		&d.Ended, &d.Paused, &reqRaw, &bonusRaw, &entrants); err != nil {
		return nil, err
	}
	d.Winners = []string(winners)
	d.Entrants = []string(entrants)
	if len(reqRaw) > 0 {
		_ = json.Unmarshal(reqRaw, &d.Requirements)
	}
	if len(bonusRaw) > 0 {
		_ = json.Unmarshal(bonusRaw, &d.BonusEntries)
	}
	return &d, nil
}

func (s *Store) Get(ctx context.Context, id string) (*models.Drawing, error) {
	var d *models.Drawing
	err := retry(ctx, func() error {
		row := s.db.QueryRowContext(ctx, `
			SELECT `+selectColumns+` FROM drawings WHERE id = $1
		`, id)
		var err error
		d, err = scanDrawing(row)
		return err
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]*models.Drawing, error) {
	var result []*models.Drawing
	err := retry(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = nil
		for rows.Next() {
			d, err := scanDrawing(rows)
			if err != nil {
				return err
			}
			result = append(result, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) ListActive(ctx context.Context, communityRef string) ([]*models.Drawing, error) {
	return s.list(ctx, `
		SELECT `+selectColumns+` FROM drawings
		WHERE community_ref = $1 AND NOT ended
		ORDER BY end_time
	`, communityRef)
}

func (s *Store) ListDue(ctx context.Context, now time.Time) ([]*models.Drawing, error) {
	return s.list(ctx, `
		SELECT `+selectColumns+` FROM drawings
		WHERE NOT ended AND NOT paused AND end_time <= $1
		ORDER BY end_time
	`, now)
}

// exec runs an UPDATE that must touch exactly one row, mapping zero rows
// to models.ErrNotFound.
func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	return retry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

func (s *Store) AddEntrant(ctx context.Context, id, participantID string) error {
	// Single conditional append keeps concurrent entries from losing
	// updates and keeps the entrant set duplicate-free.
	err := s.exec(ctx, `
		UPDATE drawings
		SET entrants = array_append(entrants, $2)
		WHERE id = $1 AND NOT entrants @> ARRAY[$2]
	`, id, participantID)
	if errors.Is(err, models.ErrNotFound) {
		// Zero rows also covers "already entered"; only a missing row
		// is an error.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
		return nil
	}
	return err
}

func (s *Store) SetAnnouncement(ctx context.Context, id, announcementRef string) error {
	return s.exec(ctx, `
		UPDATE drawings SET announcement_ref = $2 WHERE id = $1
	`, id, announcementRef)
}

func (s *Store) SetPaused(ctx context.Context, id string, paused bool) error {
	return s.exec(ctx, `
		UPDATE drawings SET paused = $2 WHERE id = $1
	`, id, paused)
}

func (s *Store) ApplyEdit(ctx context.Context, id string, patch models.EditPatch) error {
	return s.exec(ctx, `
		UPDATE drawings
		SET prize        = COALESCE($2, prize),
		    description  = COALESCE($3, description),
		    winner_quota = COALESCE($4, winner_quota),
		    end_time     = end_time + make_interval(secs => $5)
		WHERE id = $1
	`, id, patch.Prize, patch.Description, patch.WinnerQuota, int64(patch.ExtendBy/time.Second))
}

func (s *Store) SetWinners(ctx context.Context, id string, winners []string) error {
	return s.exec(ctx, `
		UPDATE drawings SET winners = $2 WHERE id = $1
	`, id, pq.Array(winners))
}

func (s *Store) TryEnd(ctx context.Context, id string) (bool, error) {
	var flipped bool
	err := retry(ctx, func() error {
		result, err := s.db.ExecContext(ctx, `
			UPDATE drawings SET ended = TRUE WHERE id = $1 AND NOT ended
		`, id)
		if err != nil {
			return err
		}
		rows, _ := result.RowsAffected()
		flipped = rows == 1
		return nil
	})
	if err != nil {
		return false, err
	}
	if !flipped {
		// Distinguish "already ended" from "no such drawing".
		if _, err := s.Get(ctx, id); err != nil {
			return false, err
		}
	}
	return flipped, nil
}
