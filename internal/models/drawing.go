package models

import "time"

// Requirements gates who may win a drawing. Zero values mean "no restriction".
type Requirements struct {
	Roles             []string `json:"roles,omitempty"`
	MinAccountAgeDays int      `json:"minAccountAgeDays,omitempty"`
	MinMembershipDays int      `json:"minMembershipDays,omitempty"`
}

// BonusEntry grants holders of a role extra tickets. Multipliers for
// different roles stack multiplicatively.
type BonusEntry struct {
	RoleID     string `json:"roleId"`
	Multiplier int    `json:"multiplier"`
}

// Drawing represents one giveaway: its prize, timing, rules and the
// current entrant/winner state. The record store is the source of truth.
type Drawing struct {
	ID              string       `json:"id"`
	AnnouncementRef string       `json:"announcementRef,omitempty"`
	ChannelRef      string       `json:"channelRef"`
	CommunityRef    string       `json:"communityRef"`
	OrganizerID     string       `json:"organizerId"`
	Prize           string       `json:"prize"`
	Description     string       `json:"description,omitempty"`
	WinnerQuota     int          `json:"winnerQuota"`
	Winners         []string     `json:"winners"`
	StartTime       time.Time    `json:"startTime"`
	EndTime         time.Time    `json:"endTime"`
	Ended           bool         `json:"ended"`
	Paused          bool         `json:"paused"`
	Requirements    Requirements `json:"requirements"`
	BonusEntries    []BonusEntry `json:"bonusEntries,omitempty"`
	Entrants        []string     `json:"entrants"`
}

// HasEntrant reports whether the participant has already opted in.
func (d *Drawing) HasEntrant(participantID string) bool {
	for _, e := range d.Entrants {
		if e == participantID {
			return true
		}
	}
	return false
}

// Due reports whether the drawing should be ended automatically.
// Paused drawings are never due; they still expire by manual end.
func (d *Drawing) Due(now time.Time) bool {
	return !d.Ended && !d.Paused && !d.EndTime.After(now)
}

// Clone returns a deep copy so callers can hand out drawings without
// aliasing the store's slices.
func (d *Drawing) Clone() *Drawing {
	c := *d
	c.Winners = append([]string(nil), d.Winners...)
	c.Entrants = append([]string(nil), d.Entrants...)
	c.Requirements.Roles = append([]string(nil), d.Requirements.Roles...)
	c.BonusEntries = append([]BonusEntry(nil), d.BonusEntries...)
	return &c
}

// EditPatch carries the fields an organizer may change on an active drawing.
// Nil pointers leave the field untouched. ExtendBy is additive only; the
// end time of a drawing can be pushed out but never pulled in.
type EditPatch struct {
	Prize       *string       `json:"prize,omitempty"`
	Description *string       `json:"description,omitempty"`
	WinnerQuota *int          `json:"winnerQuota,omitempty"`
	ExtendBy    time.Duration `json:"extendBy,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p EditPatch) Empty() bool {
	return p.Prize == nil && p.Description == nil && p.WinnerQuota == nil && p.ExtendBy == 0
}
