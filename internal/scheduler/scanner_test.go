package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"giveaway/internal/models"
)

// fakeEnder records which drawings the scanner asked to end.
type fakeEnder struct {
	mu    sync.Mutex
	due   []*models.Drawing
	ended map[string]int
}

func (f *fakeEnder) ListDue(_ context.Context, _ time.Time) ([]*models.Drawing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*models.Drawing(nil), f.due...), nil
}

func (f *fakeEnder) End(_ context.Context, id string) (*models.Drawing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ended == nil {
		f.ended = make(map[string]int)
	}
	f.ended[id]++
	// Mimic the idempotent end: drop the drawing from the due set.
	kept := f.due[:0]
	for _, d := range f.due {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	f.due = kept
	return &models.Drawing{ID: id, Ended: true}, nil
}

func (f *fakeEnder) endedCount(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ended[id]
}

func TestScanner_EndsDueDrawings(t *testing.T) {
	ender := &fakeEnder{due: []*models.Drawing{{ID: "d1"}, {ID: "d2"}}}
	scanner := New(ender, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go scanner.Run(ctx)

	deadline := time.After(time.Second)
	for ender.endedCount("d1") == 0 || ender.endedCount("d2") == 0 {
		select {
		case <-deadline:
			t.Fatal("Expected scanner to end both due drawings within a second")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
}

func TestScanner_StopsOnCancel(t *testing.T) {
	ender := &fakeEnder{}
	scanner := New(ender, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		scanner.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected scanner to stop after context cancellation")
	}
}
