package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dsemenov/remindd/internal/models"
)

// ReminderStore is the slice of the durable store the scheduling core
// needs. The full repository in internal/database implements it.
type ReminderStore interface {
	// QueryDue returns all reminders due on the given calendar date.
	QueryDue(ctx context.Context, date models.Date) ([]*models.Reminder, error)
	// DeleteMany removes the given reminder rows in one round trip.
	DeleteMany(ctx context.Context, ids []int64) error
	// PurgeStale removes rows whose due instant is strictly before now.
	PurgeStale(ctx context.Context, now time.Time) (int64, error)
}

// Transmitter sends a reminder payload back to its owner through the chat
// gateway. A failure applies to that reminder only.
type Transmitter interface {
	Send(ctx context.Context, ownerID int64, kind models.PayloadKind, text, fileRef string) error
}

// deliveryTimeout bounds one batch's transmit plus store cleanup.
const deliveryTimeout = 30 * time.Second

// Executor delivers a due batch: transmit each reminder, then erase the
// batch from the durable store and the Today-Set. Transmit failures are
// isolated per reminder and never abort the rest of the batch. Rows are
// deleted only after the transmit attempts return, which makes delivery
// at-least-once: a crash mid-batch leaves the rows in place for the next
// resynchronization to pick up as overdue.
type Executor struct {
	store    ReminderStore
	transmit Transmitter
	set      *TodaySet
	log      *zap.Logger
}

// NewExecutor creates a delivery executor.
func NewExecutor(store ReminderStore, transmit Transmitter, set *TodaySet, log *zap.Logger) *Executor {
	return &Executor{
		store:    store,
		transmit: transmit,
		set:      set,
		log:      log,
	}
}

// Deliver processes one batch of same-instant reminders.
func (e *Executor) Deliver(ctx context.Context, batch []*models.Reminder) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	ids := make([]int64, 0, len(batch))
	for _, r := range batch {
		ids = append(ids, r.ID)

		if err := e.transmit.Send(ctx, r.OwnerID, r.Kind, r.Text, r.FileRef); err != nil {
			e.log.Error("reminder_transmit_failed",
				zap.Int64("reminder_id", r.ID),
				zap.Int64("owner_id", r.OwnerID),
				zap.String("kind", string(r.Kind)),
				zap.Error(err),
			)
			continue
		}
		e.log.Info("reminder_delivered",
			zap.Int64("reminder_id", r.ID),
			zap.Int64("owner_id", r.OwnerID),
			zap.String("kind", string(r.Kind)),
		)
	}

	// Rows are removed regardless of individual transmit outcome: a payload
	// the gateway rejects permanently would otherwise be retried forever.
	if err := e.store.DeleteMany(ctx, ids); err != nil {
		e.log.Error("delivered_batch_delete_failed",
			zap.Int64s("reminder_ids", ids),
			zap.Error(err),
		)
	}

	// PopNear already detached the batch; these are no-ops unless a
	// concurrent resync re-inserted an id mid-delivery.
	for _, id := range ids {
		e.set.Delete(id)
	}
}
