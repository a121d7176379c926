package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"giveaway-bot/internal/model"
)

// WinnerRepository reads winner rows. Winners are written only by
// GiveawayRepository.Finish, atomically with the status flip.
type WinnerRepository struct {
	pool *pgxpool.Pool
}

// NewWinnerRepository creates a new WinnerRepository instance.
func NewWinnerRepository(pool *pgxpool.Pool) *WinnerRepository {
	return &WinnerRepository{pool: pool}
}

// ListByGiveaway returns the winners of a giveaway ordered by place.
func (r *WinnerRepository) ListByGiveaway(ctx context.Context, giveawayID int64) ([]*model.Winner, error) {
	const query = `
		SELECT id, giveaway_id, user_id, username, first_name, place, won_at
		FROM winners
		WHERE giveaway_id = $1
		ORDER BY place`

	rows, err := r.pool.Query(ctx, query, giveawayID)
	if err != nil {
		return nil, fmt.Errorf("failed to list winners: %w", err)
	}
	defer rows.Close()

	var winners []*model.Winner
	for rows.Next() {
		var w model.Winner
		err := rows.Scan(&w.ID, &w.GiveawayID, &w.UserID, &w.Username, &w.FirstName, &w.Place, &w.WonAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan winner: %w", err)
		}
		winners = append(winners, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating winners: %w", err)
	}
	return winners, nil
}
