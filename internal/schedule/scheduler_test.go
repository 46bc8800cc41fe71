package schedule

import (
	"testing"
	"time"

	"github.com/dsemenov/remindd/internal/models"
)

func newTestScheduler(clockAt time.Time) (*Scheduler, *TodaySet, *fakeClock, chan []*models.Reminder) {
	clock := newFakeClock(clockAt)
	set := NewTodaySet(clock)
	delivered := make(chan []*models.Reminder, 16)
	sched := NewScheduler(set, clock, testLogger(), func(batch []*models.Reminder) {
		delivered <- batch
	})
	return sched, set, clock, delivered
}

func TestSchedulerFiresDueBatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)
	sched, set, _, delivered := newTestScheduler(now)
	defer sched.Stop()

	// Due exactly now: must fire without waiting for the next minute.
	set.Push(testReminder(1, 1, testDay, 9, 0))
	sched.Rearm()

	select {
	case batch := <-delivered:
		if len(batch) != 1 || batch[0].ID != 1 {
			t.Errorf("delivered %v, want [1]", drainIDs(batch))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("due batch never delivered")
	}

	if set.Len() != 0 {
		t.Errorf("set still holds %d reminders after delivery", set.Len())
	}

	// The post-fire rearm runs just after deliver returns; give it a moment.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, armed := sched.Armed(); !armed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("nothing left to schedule, but a trigger is still armed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestSchedulerTreatsStaleEntryAsDueNow(t *testing.T) {
	t.Parallel()

	// Clock is already past the due time (crash recovery case).
	now := time.Date(2026, time.August, 28, 15, 0, 0, 0, time.UTC)
	sched, set, _, delivered := newTestScheduler(now)
	defer sched.Stop()

	set.Push(testReminder(1, 1, testDay, 8, 0))
	sched.Rearm()

	select {
	case batch := <-delivered:
		if len(batch) != 1 || batch[0].ID != 1 {
			t.Errorf("delivered %v, want [1]", drainIDs(batch))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stale reminder never delivered")
	}
}

func TestSchedulerArmsForNearestInstant(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 7, 0, 0, 0, time.UTC)
	sched, set, _, delivered := newTestScheduler(now)
	defer sched.Stop()

	set.Push(
		testReminder(1, 1, testDay, 9, 0),
		testReminder(2, 1, testDay, 14, 0),
	)
	sched.Rearm()

	at, armed := sched.Armed()
	if !armed {
		t.Fatal("expected an armed trigger")
	}
	want := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)
	if !at.Equal(want) {
		t.Errorf("armed for %v, want %v", at, want)
	}

	select {
	case batch := <-delivered:
		t.Fatalf("future batch delivered early: %v", drainIDs(batch))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestDeleteBeforeFiringCancelsTrigger(t *testing.T) {
	t.Parallel()

	// Scenario: push at 08:00, delete before it fires.
	now := time.Date(2026, time.August, 28, 7, 0, 0, 0, time.UTC)
	sched, set, clock, delivered := newTestScheduler(now)
	defer sched.Stop()

	set.Push(testReminder(7, 1, testDay, 8, 0))
	sched.Rearm()

	set.Delete(7)
	sched.Rearm()

	if _, armed := sched.Armed(); armed {
		t.Error("trigger still armed after last reminder deleted")
	}

	// Even a stale timer firing now must not deliver the deleted reminder.
	clock.Set(time.Date(2026, time.August, 28, 8, 0, 0, 0, time.UTC))
	sched.onFire()

	select {
	case batch := <-delivered:
		t.Fatalf("deleted reminder delivered: %v", drainIDs(batch))
	case <-time.After(50 * time.Millisecond):
	}
}

func TestEditToLaterDefersDelivery(t *testing.T) {
	t.Parallel()

	// Scenario: push id=5 at 08:00, edit to 12:00. Nothing may be
	// delivered when the clock reaches 08:00.
	now := time.Date(2026, time.August, 28, 7, 0, 0, 0, time.UTC)
	sched, set, clock, delivered := newTestScheduler(now)
	defer sched.Stop()

	set.Push(testReminder(5, 1, testDay, 8, 0))
	sched.Rearm()

	noon := models.ClockTime{Hour: 12, Minute: 0}
	if !set.Edit(5, nil, &noon) {
		t.Fatal("edit should find the reminder")
	}
	sched.Rearm()

	at, armed := sched.Armed()
	if !armed || at.Hour() != 12 {
		t.Fatalf("armed for %v (%v), want 12:00", at, armed)
	}

	// A stale 08:00 timer firing must notice the batch moved.
	clock.Set(time.Date(2026, time.August, 28, 8, 0, 0, 0, time.UTC))
	sched.onFire()
	select {
	case batch := <-delivered:
		t.Fatalf("reminder delivered at 08:00 after edit to 12:00: %v", drainIDs(batch))
	case <-time.After(50 * time.Millisecond):
	}

	// At 12:00 it goes out.
	clock.Set(time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC))
	sched.onFire()
	select {
	case batch := <-delivered:
		if len(batch) != 1 || batch[0].ID != 5 {
			t.Errorf("delivered %v, want [5]", drainIDs(batch))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reminder never delivered at its edited time")
	}
}

func TestSchedulerRearmsAfterEachBatch(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 9, 0, 0, 0, time.UTC)
	sched, set, clock, delivered := newTestScheduler(now)
	defer sched.Stop()

	set.Push(
		testReminder(1, 1, testDay, 9, 0),
		testReminder(2, 1, testDay, 10, 0),
	)
	sched.Rearm()

	select {
	case batch := <-delivered:
		if got := drainIDs(batch); len(got) != 1 || got[0] != 1 {
			t.Fatalf("first delivery = %v, want [1]", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("first batch never delivered")
	}

	// After consuming 09:00 the scheduler must be armed for 10:00.
	waitArmed := func() (time.Time, bool) {
		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			if at, armed := sched.Armed(); armed {
				return at, true
			}
			time.Sleep(10 * time.Millisecond)
		}
		return time.Time{}, false
	}
	at, armed := waitArmed()
	if !armed || at.Hour() != 10 {
		t.Fatalf("rearmed for %v (%v), want 10:00", at, armed)
	}

	clock.Set(time.Date(2026, time.August, 28, 10, 0, 0, 0, time.UTC))
	sched.Rearm()

	select {
	case batch := <-delivered:
		if got := drainIDs(batch); len(got) != 1 || got[0] != 2 {
			t.Errorf("second delivery = %v, want [2]", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("second batch never delivered")
	}
}

func TestStopPreventsFurtherFiring(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 28, 7, 0, 0, 0, time.UTC)
	sched, set, _, delivered := newTestScheduler(now)

	set.Push(testReminder(1, 1, testDay, 8, 0))
	sched.Rearm()
	sched.Stop()

	if _, armed := sched.Armed(); armed {
		t.Error("trigger armed after Stop")
	}

	sched.Rearm() // must be a no-op once stopped
	if _, armed := sched.Armed(); armed {
		t.Error("Rearm after Stop re-armed the trigger")
	}

	select {
	case batch := <-delivered:
		t.Fatalf("delivery after Stop: %v", drainIDs(batch))
	case <-time.After(50 * time.Millisecond):
	}
}
