package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"giveaway-bot/internal/model"
)

// ErrChannelNotFound is returned when a channel row does not exist.
var ErrChannelNotFound = errors.New("channel not found")

// ChannelRepository handles channel persistence.
type ChannelRepository struct {
	pool *pgxpool.Pool
}

// NewChannelRepository creates a new ChannelRepository instance.
func NewChannelRepository(pool *pgxpool.Pool) *ChannelRepository {
	return &ChannelRepository{pool: pool}
}

// Add registers a channel. Returns ErrAlreadyExists for a duplicate.
func (r *ChannelRepository) Add(ctx context.Context, channelID int64, name string, username *string, addedBy int64) error {
	const query = `
		INSERT INTO channels (channel_id, channel_name, channel_username, added_by, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (channel_id) DO NOTHING`

	result, err := r.pool.Exec(ctx, query, channelID, name, username, addedBy)
	if err != nil {
		return fmt.Errorf("failed to add channel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// GetByChannelID retrieves a channel by its Telegram chat ID.
func (r *ChannelRepository) GetByChannelID(ctx context.Context, channelID int64) (*model.Channel, error) {
	const query = `
		SELECT id, channel_id, channel_name, channel_username, added_by, created_at
		FROM channels WHERE channel_id = $1`

	var c model.Channel
	err := r.pool.QueryRow(ctx, query, channelID).Scan(
		&c.ID, &c.ChannelID, &c.ChannelName, &c.ChannelUsername, &c.AddedBy, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChannelNotFound
		}
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return &c, nil
}

// List returns all registered channels.
func (r *ChannelRepository) List(ctx context.Context) ([]*model.Channel, error) {
	const query = `
		SELECT id, channel_id, channel_name, channel_username, added_by, created_at
		FROM channels ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*model.Channel
	for rows.Next() {
		var c model.Channel
		err := rows.Scan(&c.ID, &c.ChannelID, &c.ChannelName, &c.ChannelUsername, &c.AddedBy, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating channels: %w", err)
	}
	return channels, nil
}

// Remove deletes a channel registration.
func (r *ChannelRepository) Remove(ctx context.Context, channelID int64) error {
	const query = `DELETE FROM channels WHERE channel_id = $1`

	result, err := r.pool.Exec(ctx, query, channelID)
	if err != nil {
		return fmt.Errorf("failed to remove channel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrChannelNotFound
	}
	return nil
}
