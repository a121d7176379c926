// Package draw implements the winner selection for finished giveaways.
package draw

import (
	"math/rand"

	"giveaway-bot/internal/model"
)

// Select picks winners from the participant set: uniform sampling without
// replacement, with the draw order doubling as the place ranking. When there
// are fewer participants than places everyone wins; an empty set yields an
// empty result. The input slice is not modified.
//
// Randomness comes from the process-wide source, which is seeded once at
// startup - outcomes are not reproducible per giveaway.
func Select(participants []*model.Participant, places int) []*model.Winner {
	if len(participants) == 0 || places <= 0 {
		return nil
	}
	if places > len(participants) {
		places = len(participants)
	}

	perm := rand.Perm(len(participants))

	winners := make([]*model.Winner, 0, places)
	for i := 0; i < places; i++ {
		p := participants[perm[i]]
		winners = append(winners, &model.Winner{
			GiveawayID: p.GiveawayID,
			UserID:     p.UserID,
			Username:   p.Username,
			FirstName:  p.FirstName,
			Place:      i + 1,
		})
	}
	return winners
}
