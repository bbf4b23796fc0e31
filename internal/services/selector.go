package services

import "math/rand"

// Ticket is one entrant's stake in the draw.
type Ticket struct {
	ParticipantID string
	Weight        int
}

// PickWinners draws up to k distinct participants from a weighted pool.
// Each eligible entrant contributes Weight virtual tickets; the pool is
// shuffled once and scanned front to back, skipping tickets whose owner
// was already picked. Selection probability is proportional to weight and
// an empty pool simply yields no winners.
func PickWinners(pool []Ticket, k int, rng *rand.Rand) []string {
	if k <= 0 {
		return nil
	}

	var tickets []string
	for _, t := range pool {
		for i := 0; i < t.Weight; i++ {
			tickets = append(tickets, t.ParticipantID)
		}
	}
	if len(tickets) == 0 {
		return nil
	}

	rng.Shuffle(len(tickets), func(i, j int) {
		tickets[i], tickets[j] = tickets[j], tickets[i]
	})

	winners := make([]string, 0, k)
	seen := make(map[string]bool, k)
	for _, id := range tickets {
		if seen[id] {
			continue
		}
		seen[id] = true
		winners = append(winners, id)
		if len(winners) == k {
			break
		}
	}
	return winners
}
