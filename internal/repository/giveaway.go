// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"giveaway-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrGiveawayNotFound = errors.New("giveaway not found")
	ErrStatusConflict   = errors.New("giveaway status already changed")
	ErrAlreadyExists    = errors.New("row already exists")
)

const giveawayColumns = `id, title, description, media_type, media_file_id,
		channel_id, message_id, start_time, end_time, status, winner_places,
		created_by, created_at, updated_at`

// GiveawayRepository handles giveaway persistence.
type GiveawayRepository struct {
	pool *pgxpool.Pool
}

// NewGiveawayRepository creates a new GiveawayRepository instance.
func NewGiveawayRepository(pool *pgxpool.Pool) *GiveawayRepository {
	return &GiveawayRepository{pool: pool}
}

func scanGiveaway(row pgx.Row) (*model.Giveaway, error) {
	var g model.Giveaway
	err := row.Scan(
		&g.ID,
		&g.Title,
		&g.Description,
		&g.MediaType,
		&g.MediaFileID,
		&g.ChannelID,
		&g.MessageID,
		&g.StartTime,
		&g.EndTime,
		&g.Status,
		&g.WinnerPlaces,
		&g.CreatedBy,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Create persists a new giveaway with status=active.
func (r *GiveawayRepository) Create(ctx context.Context, spec *model.GiveawaySpec) (*model.Giveaway, error) {
	const query = `
		INSERT INTO giveaways (title, description, media_type, media_file_id,
			channel_id, start_time, end_time, status, winner_places,
			created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), $6, 'active', $7, $8, NOW(), NOW())
		RETURNING ` + giveawayColumns

	g, err := scanGiveaway(r.pool.QueryRow(ctx, query,
		spec.Title, spec.Description, spec.MediaType, spec.MediaFileID,
		spec.ChannelID, spec.EndTime, spec.WinnerPlaces, spec.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create giveaway: %w", err)
	}
	return g, nil
}

// GetByID retrieves a giveaway by its ID.
// Returns ErrGiveawayNotFound if the giveaway does not exist.
func (r *GiveawayRepository) GetByID(ctx context.Context, id int64) (*model.Giveaway, error) {
	const query = `SELECT ` + giveawayColumns + ` FROM giveaways WHERE id = $1`

	g, err := scanGiveaway(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGiveawayNotFound
		}
		return nil, fmt.Errorf("failed to get giveaway: %w", err)
	}
	return g, nil
}

// ListActive retrieves all giveaways with status=active.
func (r *GiveawayRepository) ListActive(ctx context.Context) ([]*model.Giveaway, error) {
	const query = `SELECT ` + giveawayColumns + `
		FROM giveaways WHERE status = 'active' ORDER BY end_time`

	return r.list(ctx, query)
}

// ListFinishedPage retrieves one page of finished giveaways ordered by end
// time descending. Pages are 1-based.
func (r *GiveawayRepository) ListFinishedPage(ctx context.Context, page, pageSize int) ([]*model.Giveaway, error) {
	if page < 1 {
		page = 1
	}
	const query = `SELECT ` + giveawayColumns + `
		FROM giveaways WHERE status = 'finished'
		ORDER BY end_time DESC
		OFFSET $1 LIMIT $2`

	return r.list(ctx, query, (page-1)*pageSize, pageSize)
}

// CountFinished returns the number of finished giveaways.
func (r *GiveawayRepository) CountFinished(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM giveaways WHERE status = 'finished'`

	var count int
	if err := r.pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count finished giveaways: %w", err)
	}
	return count, nil
}

func (r *GiveawayRepository) list(ctx context.Context, query string, args ...any) ([]*model.Giveaway, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list giveaways: %w", err)
	}
	defer rows.Close()

	var giveaways []*model.Giveaway
	for rows.Next() {
		g, err := scanGiveaway(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan giveaway: %w", err)
		}
		giveaways = append(giveaways, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating giveaways: %w", err)
	}
	return giveaways, nil
}

// UpdateFields applies an explicit change set to a giveaway and returns the
// updated row. The update is conditional on the row still being active, so an
// edit racing a concurrent finish loses cleanly with ErrStatusConflict.
func (r *GiveawayRepository) UpdateFields(ctx context.Context, id int64, changes *model.FieldChanges) (*model.Giveaway, error) {
	const query = `
		UPDATE giveaways
		SET title         = COALESCE($2, title),
		    description   = COALESCE($3, description),
		    media_type    = COALESCE($4, media_type),
		    media_file_id = COALESCE($5, media_file_id),
		    end_time      = COALESCE($6, end_time),
		    updated_at    = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + giveawayColumns

	g, err := scanGiveaway(r.pool.QueryRow(ctx, query,
		id, changes.Title, changes.Description,
		changes.MediaType, changes.MediaFileID, changes.EndTime,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the giveaway is gone or it is no longer active
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return nil, getErr
			}
			return nil, ErrStatusConflict
		}
		return nil, fmt.Errorf("failed to update giveaway fields: %w", err)
	}
	return g, nil
}

// SetMessageID stores the channel message reference of the published post.
func (r *GiveawayRepository) SetMessageID(ctx context.Context, id, messageID int64) error {
	const query = `UPDATE giveaways SET message_id = $2, updated_at = NOW() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id, messageID)
	if err != nil {
		return fmt.Errorf("failed to set message id: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGiveawayNotFound
	}
	return nil
}

// Finish flips an active giveaway to finished and records its winners in a
// single transaction. The status update is conditional on the row still being
// active, so of two concurrent Finish calls exactly one succeeds; the loser
// gets ErrStatusConflict and must not announce.
func (r *GiveawayRepository) Finish(ctx context.Context, id int64, winners []*model.Winner) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin finish transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE giveaways SET status = 'finished', updated_at = NOW()
		WHERE id = $1 AND status = 'active'`, id)
	if err != nil {
		return fmt.Errorf("failed to finish giveaway: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrStatusConflict
	}

	for _, w := range winners {
		_, err := tx.Exec(ctx, `
			INSERT INTO winners (giveaway_id, user_id, username, first_name, place, won_at)
			VALUES ($1, $2, $3, $4, $5, NOW())`,
			id, w.UserID, w.Username, w.FirstName, w.Place,
		)
		if err != nil {
			return fmt.Errorf("failed to record winner: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit finish transaction: %w", err)
	}
	return nil
}

// Delete removes a giveaway together with its participants and winners.
// Returns false when no such giveaway existed.
func (r *GiveawayRepository) Delete(ctx context.Context, id int64) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM winners WHERE giveaway_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete winners: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM participants WHERE giveaway_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete participants: %w", err)
	}

	result, err := tx.Exec(ctx, `DELETE FROM giveaways WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete giveaway: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit delete transaction: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// PurgeFinishedOlderThan deletes finished giveaways whose end time is older
// than the given age, together with their participants and winners. Returns
// the number of giveaways removed.
func (r *GiveawayRepository) PurgeFinishedOlderThan(ctx context.Context, age time.Duration) (int, error) {
	threshold := time.Now().UTC().Add(-age)

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin purge transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		SELECT id FROM giveaways
		WHERE status = 'finished' AND end_time < $1`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to select stale giveaways: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan stale giveaway id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating stale giveaways: %w", err)
	}

	if len(ids) == 0 {
		return 0, nil
	}

	if _, err := tx.Exec(ctx, `DELETE FROM winners WHERE giveaway_id = ANY($1)`, ids); err != nil {
		return 0, fmt.Errorf("failed to purge winners: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM participants WHERE giveaway_id = ANY($1)`, ids); err != nil {
		return 0, fmt.Errorf("failed to purge participants: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM giveaways WHERE id = ANY($1)`, ids); err != nil {
		return 0, fmt.Errorf("failed to purge giveaways: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit purge transaction: %w", err)
	}
	return len(ids), nil
}
