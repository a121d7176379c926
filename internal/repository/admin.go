package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"giveaway-bot/internal/model"
)

// ErrAdminNotFound is returned when an admin row does not exist.
var ErrAdminNotFound = errors.New("admin not found")

// AdminRepository handles administrator persistence.
type AdminRepository struct {
	pool *pgxpool.Pool
}

// NewAdminRepository creates a new AdminRepository instance.
func NewAdminRepository(pool *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{pool: pool}
}

// EnsureMainAdmin seeds the main administrator row if it is missing.
func (r *AdminRepository) EnsureMainAdmin(ctx context.Context, userID int64) error {
	const query = `
		INSERT INTO admins (user_id, username, first_name, is_main_admin, created_at)
		VALUES ($1, 'main_admin', 'Главный администратор', TRUE, NOW())
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to ensure main admin: %w", err)
	}
	return nil
}

// IsAdmin reports whether the user is an administrator.
func (r *AdminRepository) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM admins WHERE user_id = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check admin: %w", err)
	}
	return exists, nil
}

// Add inserts a new administrator. Returns ErrAlreadyExists for a duplicate.
func (r *AdminRepository) Add(ctx context.Context, userID int64, username, firstName *string) error {
	const query = `
		INSERT INTO admins (user_id, username, first_name, is_main_admin, created_at)
		VALUES ($1, $2, $3, FALSE, NOW())
		ON CONFLICT (user_id) DO NOTHING`

	result, err := r.pool.Exec(ctx, query, userID, username, firstName)
	if err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Remove deletes an administrator. The main admin is never removed; trying to
// returns ErrAdminNotFound like any other miss.
func (r *AdminRepository) Remove(ctx context.Context, userID int64) error {
	const query = `DELETE FROM admins WHERE user_id = $1 AND is_main_admin = FALSE`

	result, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to remove admin: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// List returns all administrators.
func (r *AdminRepository) List(ctx context.Context) ([]*model.Admin, error) {
	const query = `
		SELECT id, user_id, username, first_name, is_main_admin, created_at
		FROM admins ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*model.Admin
	for rows.Next() {
		var a model.Admin
		err := rows.Scan(&a.ID, &a.UserID, &a.Username, &a.FirstName, &a.IsMainAdmin, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan admin: %w", err)
		}
		admins = append(admins, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating admins: %w", err)
	}
	return admins, nil
}

// UpdateProfile refreshes the stored username and first name of an admin when
// their Telegram profile changed. A missing row is not an error.
func (r *AdminRepository) UpdateProfile(ctx context.Context, userID int64, username, firstName *string) error {
	const query = `
		UPDATE admins SET username = $2, first_name = $3 WHERE user_id = $1`

	if _, err := r.pool.Exec(ctx, query, userID, username, firstName); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("failed to update admin profile: %w", err)
	}
	return nil
}
