package schedule

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dsemenov/remindd/internal/models"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// mockStore is a mock implementation of ReminderStore.
type mockStore struct {
	mu sync.Mutex

	queryDueFunc   func(ctx context.Context, date models.Date) ([]*models.Reminder, error)
	deleteManyFunc func(ctx context.Context, ids []int64) error
	purgeStaleFunc func(ctx context.Context, now time.Time) (int64, error)

	deletedIDs []int64
	purgedAt   []time.Time
	queriedFor []models.Date
}

func (m *mockStore) QueryDue(ctx context.Context, date models.Date) ([]*models.Reminder, error) {
	m.mu.Lock()
	m.queriedFor = append(m.queriedFor, date)
	m.mu.Unlock()
	if m.queryDueFunc != nil {
		return m.queryDueFunc(ctx, date)
	}
	return nil, nil
}

func (m *mockStore) DeleteMany(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	m.deletedIDs = append(m.deletedIDs, ids...)
	m.mu.Unlock()
	if m.deleteManyFunc != nil {
		return m.deleteManyFunc(ctx, ids)
	}
	return nil
}

func (m *mockStore) PurgeStale(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	m.purgedAt = append(m.purgedAt, now)
	m.mu.Unlock()
	if m.purgeStaleFunc != nil {
		return m.purgeStaleFunc(ctx, now)
	}
	return 0, nil
}

func (m *mockStore) deleted() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, len(m.deletedIDs))
	copy(out, m.deletedIDs)
	return out
}

// Ensure mock implements the interface
var _ ReminderStore = (*mockStore)(nil)

type sentPayload struct {
	ownerID int64
	kind    models.PayloadKind
	text    string
	fileRef string
}

// mockTransmitter is a mock implementation of Transmitter.
type mockTransmitter struct {
	mu       sync.Mutex
	sendFunc func(ctx context.Context, ownerID int64, kind models.PayloadKind, text, fileRef string) error
	sent     []sentPayload
}

func (m *mockTransmitter) Send(ctx context.Context, ownerID int64, kind models.PayloadKind, text, fileRef string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentPayload{ownerID: ownerID, kind: kind, text: text, fileRef: fileRef})
	m.mu.Unlock()
	if m.sendFunc != nil {
		return m.sendFunc(ctx, ownerID, kind, text, fileRef)
	}
	return nil
}

func (m *mockTransmitter) sentPayloads() []sentPayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentPayload, len(m.sent))
	copy(out, m.sent)
	return out
}

// Ensure mock implements the interface
var _ Transmitter = (*mockTransmitter)(nil)

// testReminder builds a text reminder due on the given date at hh:mm.
func testReminder(id, ownerID int64, date models.Date, hour, minute int) *models.Reminder {
	return &models.Reminder{
		ID:      id,
		OwnerID: ownerID,
		DueDate: date,
		DueTime: models.ClockTime{Hour: hour, Minute: minute},
		Kind:    models.KindText,
		Text:    "test reminder",
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}
