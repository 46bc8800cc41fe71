package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/dsemenov/remindd/internal/models"
)

const (
	// resyncRetries is how many times one resynchronization attempt is
	// retried before failing loudly. An empty Today-Set means no reminder
	// fires all day, so giving up quietly is not an option.
	resyncRetries = 5
	// resyncInitialDelay seeds the capped exponential backoff between
	// resync attempts.
	resyncInitialDelay = 2 * time.Second
	resyncMaxDelay     = 30 * time.Second
)

// Resync keeps the Today-Set aligned with durable storage. It runs once at
// process start (covering reminders that came due while the process was
// down) and once every local midnight (loading the new day's reminders).
type Resync struct {
	svc   *Service
	store ReminderStore
	clock Clock
	log   *zap.Logger

	cron *cron.Cron
}

// NewResync creates the resynchronization job for svc.
func NewResync(svc *Service, store ReminderStore, clock Clock, loc *time.Location, log *zap.Logger) *Resync {
	return &Resync{
		svc:   svc,
		store: store,
		clock: clock,
		log:   log,
		cron:  cron.New(cron.WithLocation(loc)),
	}
}

// Start runs one immediate resynchronization, then schedules the nightly
// one at local midnight. The startup run's failure is returned so the
// process can refuse to come up half-blind.
func (j *Resync) Start(ctx context.Context) error {
	if err := j.runWithRetry(ctx); err != nil {
		return fmt.Errorf("startup resync: %w", err)
	}

	_, err := j.cron.AddFunc("0 0 * * *", func() {
		if err := j.runWithRetry(ctx); err != nil {
			// Without a successful resync no reminder fires until the
			// next midnight.
			j.log.Error("nightly_resync_failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("schedule nightly resync: %w", err)
	}

	j.cron.Start()
	j.log.Info("resync_scheduled", zap.String("spec", "0 0 * * *"))
	return nil
}

// Stop halts the nightly schedule. Running jobs finish.
func (j *Resync) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}

// Run performs one resynchronization pass: clear the Today-Set, purge rows
// whose due instant already passed, reload today's rows and push them,
// which re-arms the trigger scheduler.
func (j *Resync) Run(ctx context.Context) error {
	now := j.clock.Now()
	today := models.DateOf(now)

	j.svc.set.Clear()

	purged, err := j.store.PurgeStale(ctx, now)
	if err != nil {
		return fmt.Errorf("purge stale reminders: %w", err)
	}

	due, err := j.store.QueryDue(ctx, today)
	if err != nil {
		return fmt.Errorf("query reminders due %s: %w", today, err)
	}

	pushed := j.svc.PushToday(due...)
	j.log.Info("resync_complete",
		zap.String("date", today.String()),
		zap.Int64("purged", purged),
		zap.Int("loaded", pushed),
	)
	return nil
}

// runWithRetry wraps Run with capped exponential backoff.
func (j *Resync) runWithRetry(ctx context.Context) error {
	var lastErr error
	delay := resyncInitialDelay

	for attempt := 1; attempt <= resyncRetries; attempt++ {
		lastErr = j.Run(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == resyncRetries {
			break
		}
		j.log.Warn("resync_attempt_failed_retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", resyncRetries),
			zap.Duration("retry_delay", delay),
			zap.Error(lastErr),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > resyncMaxDelay {
			delay = resyncMaxDelay
		}
	}
	return lastErr
}
