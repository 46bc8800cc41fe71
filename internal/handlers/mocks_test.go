package handlers

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/dsemenov/remindd/internal/database"
	"github.com/dsemenov/remindd/internal/models"
	"github.com/dsemenov/remindd/internal/schedule"
)

// fakeClock pins the scheduling core to a known instant.
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

var _ schedule.Clock = (*fakeClock)(nil)

// mockReminderRepo is an in-memory ReminderRepositoryInterface backed by a map.
type mockReminderRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]*models.Reminder

	insertErr error
	deleted   []int64
}

func newMockReminderRepo() *mockReminderRepo {
	return &mockReminderRepo{nextID: 1, items: make(map[int64]*models.Reminder)}
}

func (m *mockReminderRepo) Insert(ctx context.Context, rem *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	rem.ID = m.nextID
	m.nextID++
	rem.CreatedAt = time.Now()
	cp := *rem
	m.items[rem.ID] = &cp
	return nil
}

func (m *mockReminderRepo) GetByID(ctx context.Context, id int64) (*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rem, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("reminder not found: %w", sql.ErrNoRows)
	}
	cp := *rem
	return &cp, nil
}

func (m *mockReminderRepo) UpdateText(ctx context.Context, id int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rem, ok := m.items[id]
	if !ok {
		return fmt.Errorf("reminder not found: %w", sql.ErrNoRows)
	}
	rem.Text = text
	return nil
}

func (m *mockReminderRepo) UpdateDate(ctx context.Context, id int64, date models.Date) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rem, ok := m.items[id]
	if !ok {
		return fmt.Errorf("reminder not found: %w", sql.ErrNoRows)
	}
	rem.DueDate = date
	return nil
}

func (m *mockReminderRepo) UpdateTime(ctx context.Context, id int64, t models.ClockTime) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rem, ok := m.items[id]
	if !ok {
		return fmt.Errorf("reminder not found: %w", sql.ErrNoRows)
	}
	rem.DueTime = t
	return nil
}

func (m *mockReminderRepo) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("reminder not found: %w", sql.ErrNoRows)
	}
	delete(m.items, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockReminderRepo) DeleteMany(ctx context.Context, ids []int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.items, id)
		m.deleted = append(m.deleted, id)
	}
	return nil
}

func (m *mockReminderRepo) QueryDue(ctx context.Context, date models.Date) ([]*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var due []*models.Reminder
	for _, rem := range m.items {
		if rem.DueOn(date) {
			cp := *rem
			due = append(due, &cp)
		}
	}
	return due, nil
}

func (m *mockReminderRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Reminder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Reminder
	for _, rem := range m.items {
		if rem.OwnerID == ownerID {
			cp := *rem
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockReminderRepo) PurgeStale(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

var _ database.ReminderRepositoryInterface = (*mockReminderRepo)(nil)
var _ schedule.ReminderStore = (*mockReminderRepo)(nil)

// mockOwnerRepo serves a fixed owner per ID.
type mockOwnerRepo struct {
	mu     sync.Mutex
	owners map[int64]*models.Owner
}

func newMockOwnerRepo() *mockOwnerRepo {
	return &mockOwnerRepo{owners: make(map[int64]*models.Owner)}
}

func (m *mockOwnerRepo) GetOrCreate(ctx context.Context, id int64) (*models.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if o, ok := m.owners[id]; ok {
		cp := *o
		return &cp, nil
	}
	o := &models.Owner{ID: id}
	m.owners[id] = o
	cp := *o
	return &cp, nil
}

func (m *mockOwnerRepo) GetByID(ctx context.Context, id int64) (*models.Owner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[id]
	if !ok {
		return nil, fmt.Errorf("owner not found: %w", sql.ErrNoRows)
	}
	cp := *o
	return &cp, nil
}

func (m *mockOwnerRepo) SetPremium(ctx context.Context, id int64, premium bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.owners[id]
	if !ok {
		return fmt.Errorf("owner not found: %w", sql.ErrNoRows)
	}
	o.Premium = premium
	return nil
}

var _ database.OwnerRepositoryInterface = (*mockOwnerRepo)(nil)

// nullTransmitter swallows deliveries.
type nullTransmitter struct{}

func (nullTransmitter) Send(ctx context.Context, ownerID int64, kind models.PayloadKind, text, fileRef string) error {
	return nil
}

var _ schedule.Transmitter = nullTransmitter{}

// testEnv bundles a handler with the scheduling core it feeds.
type testEnv struct {
	handler *ReminderHandler
	repo    *mockReminderRepo
	owners  *mockOwnerRepo
	svc     *schedule.Service
	clock   *fakeClock
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	clock := newFakeClock(now)
	repo := newMockReminderRepo()
	owners := newMockOwnerRepo()
	svc := schedule.NewService(repo, nullTransmitter{}, clock, zap.NewNop())
	svc.Start(context.Background())
	t.Cleanup(svc.Stop)

	return &testEnv{
		handler: NewReminderHandler(repo, owners, svc, clock),
		repo:    repo,
		owners:  owners,
		svc:     svc,
		clock:   clock,
	}
}
