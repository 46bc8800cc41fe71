package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dsemenov/remindd/internal/models"
)

// OwnerRepository handles owner database operations.
type OwnerRepository struct {
	db *DB
}

// NewOwnerRepository creates a new owner repository.
func NewOwnerRepository(db *DB) *OwnerRepository {
	return &OwnerRepository{db: db}
}

// GetOrCreate fetches the owner, inserting a fresh non-premium row on first
// contact. One round trip either way.
func (r *OwnerRepository) GetOrCreate(ctx context.Context, id int64) (*models.Owner, error) {
	query := `
		INSERT INTO owners (id, premium, reminder_count, created_at, updated_at)
		VALUES ($1, FALSE, 0, $2, $2)
		ON CONFLICT (id) DO UPDATE SET updated_at = owners.updated_at
		RETURNING id, premium, reminder_count, created_at, updated_at
	`
	owner := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, id, time.Now()).Scan(
		&owner.ID,
		&owner.Premium,
		&owner.ReminderCount,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create owner: %w", err)
	}
	return owner, nil
}

// GetByID retrieves an owner by id.
func (r *OwnerRepository) GetByID(ctx context.Context, id int64) (*models.Owner, error) {
	query := `
		SELECT id, premium, reminder_count, created_at, updated_at
		FROM owners
		WHERE id = $1
	`
	owner := &models.Owner{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&owner.ID,
		&owner.Premium,
		&owner.ReminderCount,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("owner not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get owner: %w", err)
	}
	return owner, nil
}

// SetPremium flips an owner's premium flag. The payment flow is external;
// this is its write-back.
func (r *OwnerRepository) SetPremium(ctx context.Context, id int64, premium bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE owners SET premium = $2, updated_at = $3 WHERE id = $1
	`, id, premium, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update owner premium flag: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("owner not found: %w", sql.ErrNoRows)
	}
	return nil
}
