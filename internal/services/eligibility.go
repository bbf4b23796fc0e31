package services

import (
	"giveaway/internal/membership"
	"giveaway/internal/models"
)

// maxTicketsPerEntrant caps how far bonus multipliers can stack. Without a
// cap a handful of stacked multiplier roles would let one entrant dominate
// the pool outright.
const maxTicketsPerEntrant = 100

// EntryWeight converts a participant's membership facts and a drawing's
// rules into a ticket count. Zero means excluded from the draw.
func EntryWeight(d *models.Drawing, participantID string, facts membership.Facts) int {
	if !d.HasEntrant(participantID) {
		return 0
	}

	req := d.Requirements
	if len(req.Roles) > 0 {
		held := false
		for _, role := range req.Roles {
			if facts.Roles[role] {
				held = true
				break
			}
		}
		if !held {
			return 0
		}
	}
	if req.MinAccountAgeDays > 0 && facts.AccountAge < days(req.MinAccountAgeDays) {
		return 0
	}
	if req.MinMembershipDays > 0 && facts.MembershipAge < days(req.MinMembershipDays) {
		return 0
	}

	weight := 1
	for _, bonus := range d.BonusEntries {
		if bonus.Multiplier > 1 && facts.Roles[bonus.RoleID] {
			weight *= bonus.Multiplier
			if weight >= maxTicketsPerEntrant {
				return maxTicketsPerEntrant
			}
		}
	}
	return weight
}
