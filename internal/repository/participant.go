package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"giveaway-bot/internal/model"
)

// ParticipantRepository handles participant persistence. The
// (giveaway_id, user_id) pair is protected by a unique constraint so a
// concurrent double-join can never produce two rows.
type ParticipantRepository struct {
	pool *pgxpool.Pool
}

// NewParticipantRepository creates a new ParticipantRepository instance.
func NewParticipantRepository(pool *pgxpool.Pool) *ParticipantRepository {
	return &ParticipantRepository{pool: pool}
}

// Add inserts a participant entry. Returns ErrAlreadyExists when the user
// already joined this giveaway; the check-and-insert is atomic through the
// unique constraint (ON CONFLICT DO NOTHING).
func (r *ParticipantRepository) Add(ctx context.Context, giveawayID, userID int64, username, firstName *string) error {
	const query = `
		INSERT INTO participants (giveaway_id, user_id, username, first_name, joined_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (giveaway_id, user_id) DO NOTHING`

	result, err := r.pool.Exec(ctx, query, giveawayID, userID, username, firstName)
	if err != nil {
		return fmt.Errorf("failed to add participant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Count returns the number of participants of a giveaway.
func (r *ParticipantRepository) Count(ctx context.Context, giveawayID int64) (int, error) {
	const query = `SELECT COUNT(*) FROM participants WHERE giveaway_id = $1`

	var count int
	if err := r.pool.QueryRow(ctx, query, giveawayID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return count, nil
}

// List returns all participants of a giveaway.
func (r *ParticipantRepository) List(ctx context.Context, giveawayID int64) ([]*model.Participant, error) {
	const query = `
		SELECT id, giveaway_id, user_id, username, first_name, joined_at
		FROM participants
		WHERE giveaway_id = $1
		ORDER BY joined_at`

	rows, err := r.pool.Query(ctx, query, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*model.Participant
	for rows.Next() {
		var p model.Participant
		err := rows.Scan(&p.ID, &p.GiveawayID, &p.UserID, &p.Username, &p.FirstName, &p.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participants: %w", err)
	}
	return participants, nil
}
