package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dsemenov/remindd/internal/models"
)

// Service bundles the Today-Set, trigger scheduler and delivery executor
// behind the operations the rest of the application uses to keep the
// in-memory day view in sync with its own writes to the durable store.
// There is exactly one Service per process; it is constructed in main and
// injected into handlers, never reached through package state.
type Service struct {
	set   *TodaySet
	sched *Scheduler
	exec  *Executor
	clock Clock
	log   *zap.Logger

	// base is the context delivery batches run under; set by Start.
	base   context.Context
	cancel context.CancelFunc
}

// NewService wires the scheduling core together. Nothing fires until Start.
func NewService(store ReminderStore, transmit Transmitter, clock Clock, log *zap.Logger) *Service {
	s := &Service{
		clock: clock,
		log:   log,
	}
	s.set = NewTodaySet(clock)
	s.exec = NewExecutor(store, transmit, s.set, log)
	s.sched = NewScheduler(s.set, clock, log, func(batch []*models.Reminder) {
		ctx := s.base
		if ctx == nil {
			ctx = context.Background()
		}
		s.exec.Deliver(ctx, batch)
	})
	return s
}

// Start begins honoring triggers. Deliveries inherit ctx; canceling it
// aborts in-flight transmit calls during shutdown.
func (s *Service) Start(ctx context.Context) {
	s.base, s.cancel = context.WithCancel(ctx)
	s.sched.Rearm()
}

// Stop cancels the outstanding trigger and any in-flight delivery context.
func (s *Service) Stop() {
	s.sched.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

// Today returns the calendar date the service currently considers today.
func (s *Service) Today() models.Date {
	return models.DateOf(s.clock.Now())
}

// PushToday inserts reminders due today and re-arms the trigger scheduler.
// Callers must have persisted the reminders to the store first. Duplicate
// ids are skipped; the number actually inserted is returned.
func (s *Service) PushToday(reminders ...*models.Reminder) int {
	n := s.set.Push(reminders...)
	if n > 0 {
		s.sched.Rearm()
	}
	return n
}

// DeleteToday removes a reminder from the day view and re-arms. Absent ids
// are a no-op returning false: delivery may have consumed the entry first.
func (s *Service) DeleteToday(id int64) bool {
	ok := s.set.Delete(id)
	if ok {
		s.sched.Rearm()
	}
	return ok
}

// EditToday mutates a scheduled reminder's text and/or due time and re-arms
// so the change is reflected in the very next trigger decision. Returns
// whether a matching reminder was found.
func (s *Service) EditToday(id int64, text *string, dueTime *models.ClockTime) bool {
	ok := s.set.Edit(id, text, dueTime)
	if ok {
		s.sched.Rearm()
	}
	return ok
}

// NearDatetime exposes the next due instant, if any.
func (s *Service) NearDatetime() (time.Time, bool) {
	return s.set.NearDatetime()
}

// PendingToday returns how many reminders remain scheduled for today.
func (s *Service) PendingToday() int {
	return s.set.Len()
}
