package schedule

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dsemenov/remindd/internal/models"
)

// Scheduler keeps exactly one live one-shot wake-up armed for the Today-Set's
// earliest due instant. After any mutation that can change that instant the
// owner calls Rearm, which cancels the outstanding timer and arms a new one;
// an empty set arms nothing. Instants already in the past fire immediately.
type Scheduler struct {
	set   *TodaySet
	clock Clock
	log   *zap.Logger

	// deliver is handed the batch popped at fire time. It runs on the
	// timer goroutine; blocking I/O belongs inside it, not in Rearm.
	deliver func(batch []*models.Reminder)

	mu      sync.Mutex
	timer   *time.Timer
	armedAt time.Time
	stopped bool
}

// NewScheduler creates a scheduler over the given set. deliver is invoked
// with each due batch; it must be non-nil.
func NewScheduler(set *TodaySet, clock Clock, log *zap.Logger, deliver func([]*models.Reminder)) *Scheduler {
	return &Scheduler{
		set:     set,
		clock:   clock,
		log:     log,
		deliver: deliver,
	}
}

// Rearm reconciles the outstanding timer with the set's current earliest
// instant. Safe to call from any goroutine; calls serialize, and every
// mutation is followed by its own Rearm, so the last caller always reflects
// the latest set contents.
func (s *Scheduler) Rearm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
		s.armedAt = time.Time{}
	}

	at, ok := s.set.NearDatetime()
	if !ok {
		return
	}

	delay := at.Sub(s.clock.Now())
	if delay < 0 {
		// Stale entry (crash recovery or clock change): fire now.
		delay = 0
	}
	s.armedAt = at
	s.timer = time.AfterFunc(delay, s.onFire)
	s.log.Debug("trigger_armed",
		zap.Time("at", at),
		zap.Duration("delay", delay),
	)
}

// Stop cancels any outstanding timer permanently.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.armedAt = time.Time{}
}

// Armed reports whether a wake-up is currently scheduled, and for when.
func (s *Scheduler) Armed() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armedAt, s.timer != nil
}

// onFire runs on the timer goroutine. Between dispatch and this call the set
// may have been mutated (entry deleted, time edited later), so the near
// instant is re-checked before popping: a batch is only consumed when it is
// actually due.
func (s *Scheduler) onFire() {
	now := s.clock.Now()

	at, ok := s.set.NearDatetime()
	if !ok {
		s.Rearm()
		return
	}
	if at.After(now) {
		// The batch this timer was armed for no longer exists; whatever
		// is nearest now is still in the future.
		s.Rearm()
		return
	}

	batch := s.set.PopNear()
	if len(batch) > 0 {
		s.log.Info("trigger_fired",
			zap.Time("due", at),
			zap.Int("batch_size", len(batch)),
		)
		s.deliver(batch)
	}

	s.Rearm()
}
