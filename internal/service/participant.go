package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"giveaway-bot/internal/repository"
)

// ErrAlreadyJoined is returned when a user tries to enter a giveaway twice.
var ErrAlreadyJoined = errors.New("user already joined this giveaway")

// ParticipantService enforces the one-entry-per-user invariant on joins.
type ParticipantService struct {
	giveaways    GiveawayStore
	participants ParticipantStore
}

// NewParticipantService creates a new ParticipantService instance.
func NewParticipantService(giveaways GiveawayStore, participants ParticipantStore) *ParticipantService {
	return &ParticipantService{giveaways: giveaways, participants: participants}
}

// Join enters a user into a giveaway and returns the fresh participant count.
// The giveaway status is re-read on every call - it may have flipped to
// finished since the button was rendered. Duplicate entries fail with
// ErrAlreadyJoined; the check-and-insert is atomic at the store, so two
// simultaneous joins from the same user can never both be accepted.
func (s *ParticipantService) Join(ctx context.Context, giveawayID, userID int64, username, firstName *string) (int, error) {
	g, err := s.giveaways.GetByID(ctx, giveawayID)
	if err != nil {
		return 0, err
	}
	if !g.IsActive() {
		return 0, ErrNotActive
	}

	if err := s.participants.Add(ctx, giveawayID, userID, username, firstName); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return 0, ErrAlreadyJoined
		}
		return 0, fmt.Errorf("failed to add participant: %w", err)
	}

	count, err := s.participants.Count(ctx, giveawayID)
	if err != nil {
		// The entry is stored; the caller only misses the fresh counter
		log.Warn().Err(err).Int64("giveaway_id", giveawayID).Msg("Failed to count participants after join")
		return 0, nil
	}
	return count, nil
}
