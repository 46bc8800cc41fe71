package database

import (
	"context"
	"time"

	"github.com/dsemenov/remindd/internal/models"
	"github.com/dsemenov/remindd/internal/schedule"
)

// ReminderRepositoryInterface defines the interface for reminder repository
// operations. This interface enables better testability by allowing mock
// implementations.
type ReminderRepositoryInterface interface {
	Insert(ctx context.Context, rem *models.Reminder) error
	GetByID(ctx context.Context, id int64) (*models.Reminder, error)
	UpdateText(ctx context.Context, id int64, text string) error
	UpdateDate(ctx context.Context, id int64, date models.Date) error
	UpdateTime(ctx context.Context, id int64, t models.ClockTime) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) error
	QueryDue(ctx context.Context, date models.Date) ([]*models.Reminder, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Reminder, error)
	PurgeStale(ctx context.Context, now time.Time) (int64, error)
}

// OwnerRepositoryInterface defines the interface for owner repository
// operations.
type OwnerRepositoryInterface interface {
	GetOrCreate(ctx context.Context, id int64) (*models.Owner, error)
	GetByID(ctx context.Context, id int64) (*models.Owner, error)
	SetPremium(ctx context.Context, id int64, premium bool) error
}

// Ensure concrete types implement the interfaces
var (
	_ ReminderRepositoryInterface = (*ReminderRepository)(nil)
	_ OwnerRepositoryInterface    = (*OwnerRepository)(nil)
	_ schedule.ReminderStore      = (*ReminderRepository)(nil)
)
