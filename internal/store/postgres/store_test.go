package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"giveaway/internal/models"
)

func TestStoreIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}

	store, db, err := Open(dsn)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	d, err := store.Create(ctx, &models.Drawing{
		ChannelRef:   "channel-1",
		CommunityRef: "community-1",
		OrganizerID:  "organizer-1",
		Prize:        "headset",
		WinnerQuota:  2,
		StartTime:    now,
		EndTime:      now.Add(-time.Minute),
		Requirements: models.Requirements{Roles: []string{"vip"}, MinAccountAgeDays: 7},
		BonusEntries: []models.BonusEntry{{RoleID: "booster", Multiplier: 2}},
	})
	if err != nil {
		t.Fatalf("create drawing: %v", err)
	}

	if err := store.AddEntrant(ctx, d.ID, "alice"); err != nil {
		t.Fatalf("add entrant: %v", err)
	}
	if err := store.AddEntrant(ctx, d.ID, "alice"); err != nil {
		t.Fatalf("re-add entrant: %v", err)
	}
	got, err := store.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get drawing: %v", err)
	}
	if len(got.Entrants) != 1 {
		t.Fatalf("expected 1 entrant after duplicate add, got %v", got.Entrants)
	}
	if len(got.Requirements.Roles) != 1 || got.Requirements.Roles[0] != "vip" {
		t.Fatalf("requirements did not round-trip: %+v", got.Requirements)
	}

	due, err := store.ListDue(ctx, time.Now().UTC())
	if err != nil {
		t.Fatalf("list due: %v", err)
	}
	found := false
	for _, dd := range due {
		if dd.ID == d.ID {
			found = true
		}
	}
	if !found {
		t.Fatal("expected drawing to be due")
	}

	won, err := store.TryEnd(ctx, d.ID)
	if err != nil {
		t.Fatalf("try end: %v", err)
	}
	if !won {
		t.Fatal("expected first TryEnd to win")
	}
	won, err = store.TryEnd(ctx, d.ID)
	if err != nil {
		t.Fatalf("second try end: %v", err)
	}
	if won {
		t.Fatal("expected second TryEnd to lose")
	}

	if err := store.SetWinners(ctx, d.ID, []string{"alice"}); err != nil {
		t.Fatalf("set winners: %v", err)
	}
	got, err = store.Get(ctx, d.ID)
	if err != nil {
		t.Fatalf("get after end: %v", err)
	}
	if !got.Ended || len(got.Winners) != 1 || got.Winners[0] != "alice" {
		t.Fatalf("unexpected final state: ended=%v winners=%v", got.Ended, got.Winners)
	}
}
