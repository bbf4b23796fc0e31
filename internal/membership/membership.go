// Package membership supplies the facts the eligibility rules are judged
// against: which roles a participant holds and how old their account and
// community membership are. The source of truth is external.
package membership

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Facts is a point-in-time snapshot of one participant.
type Facts struct {
	Roles         map[string]bool
	AccountAge    time.Duration
	MembershipAge time.Duration
}

// Lookup resolves membership facts for a participant. Unknown participants
// resolve to zero-valued facts, not an error; the evaluator then excludes
// them through the configured gates.
type Lookup interface {
	FactsOf(ctx context.Context, participantID string) (Facts, error)
}

// StaticDirectory is an in-process Lookup fed through Register. It backs
// deployments without a membership service and all tests.
type StaticDirectory struct {
	mu    sync.RWMutex
	facts map[string]Facts
}

// NewStaticDirectory creates an empty directory.
func NewStaticDirectory() *StaticDirectory {
	return &StaticDirectory{facts: make(map[string]Facts)}
}

// Register stores or replaces the facts for a participant.
func (d *StaticDirectory) Register(participantID string, roles []string, accountAge, membershipAge time.Duration) {
	roleSet := make(map[string]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.facts[participantID] = Facts{Roles: roleSet, AccountAge: accountAge, MembershipAge: membershipAge}
}

func (d *StaticDirectory) FactsOf(_ context.Context, participantID string) (Facts, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.facts[participantID], nil
}

// HTTPLookup queries an external membership service:
// GET {base}/members/{id} returning roles and timestamps.
type HTTPLookup struct {
	base   string
	client *http.Client
	now    func() time.Time
}

// NewHTTPLookup creates a Lookup against the given base URL.
func NewHTTPLookup(base string) *HTTPLookup {
	return &HTTPLookup{
		base:   base,
		client: &http.Client{Timeout: 5 * time.Second},
		now:    time.Now,
	}
}

type memberResponse struct {
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
	JoinedAt  time.Time `json:"joined_at"`
}

func (l *HTTPLookup) FactsOf(ctx context.Context, participantID string) (Facts, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.base+"/members/"+participantID, nil)
	if err != nil {
		return Facts{}, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return Facts{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Facts{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Facts{}, fmt.Errorf("membership lookup for %s: status %d", participantID, resp.StatusCode)
	}

	var body memberResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Facts{}, err
	}

	facts := Facts{Roles: make(map[string]bool, len(body.Roles))}
	for _, r := range body.Roles {
		facts.Roles[r] = true
	}
	now := l.now()
	if !body.CreatedAt.IsZero() {
		facts.AccountAge = now.Sub(body.CreatedAt)
	}
	if !body.JoinedAt.IsZero() {
		facts.MembershipAge = now.Sub(body.JoinedAt)
	}
	return facts, nil
}
