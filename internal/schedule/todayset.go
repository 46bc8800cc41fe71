package schedule

import (
	"sort"
	"sync"
	"time"

	"github.com/dsemenov/remindd/internal/models"
)

// TodaySet is the in-memory collection of reminders due on the current
// calendar day, kept in ascending due-time order. It tracks "near"
// metadata: the earliest due time present and how many reminders share it,
// so that same-minute reminders are delivered as one batch.
//
// The set is safe for concurrent use. It has no side effects beyond its own
// state: callers persist to the store before pushing and re-arm the trigger
// scheduler after any mutation.
type TodaySet struct {
	mu    sync.Mutex
	items []*models.Reminder

	near      models.ClockTime
	nearCount int

	clock Clock
}

// NewTodaySet creates an empty set using clock to resolve "today".
func NewTodaySet(clock Clock) *TodaySet {
	return &TodaySet{clock: clock}
}

// Push inserts reminders into the set, preserving due-time order. Reminders
// whose id is already present are skipped. Returns how many were inserted.
func (s *TodaySet) Push(reminders ...*models.Reminder) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	inserted := 0
	for _, r := range reminders {
		if r == nil || s.indexOf(r.ID) >= 0 {
			continue
		}
		s.insert(r)
		inserted++
	}
	if inserted > 0 {
		s.recomputeNear()
	}
	return inserted
}

// PopNear removes and returns every reminder sharing the current minimum
// due time. Returns nil when the set is empty.
func (s *TodaySet) PopNear() []*models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return nil
	}

	batch := make([]*models.Reminder, s.nearCount)
	copy(batch, s.items[:s.nearCount])
	s.items = s.items[s.nearCount:]
	s.recomputeNear()
	return batch
}

// Delete removes the reminder with the given id. Returns false when no such
// reminder is present; that is not an error, the entry may already have
// been consumed by delivery.
func (s *TodaySet) Delete(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.recomputeNear()
	return true
}

// Edit mutates the text and/or due time of the reminder with the given id.
// A time change removes and reinserts the entry so ordering holds. Returns
// whether a matching reminder was found.
func (s *TodaySet) Edit(id int64, text *string, dueTime *models.ClockTime) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}

	r := s.items[i]
	if text != nil {
		r.Text = *text
	}
	if dueTime != nil && *dueTime != r.DueTime {
		s.items = append(s.items[:i], s.items[i+1:]...)
		r.DueTime = *dueTime
		s.insert(r)
	}
	s.recomputeNear()
	return true
}

// NearDatetime combines today's date with the minimum due time into a full
// instant. The second return value is false when the set is empty.
func (s *TodaySet) NearDatetime() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.items) == 0 {
		return time.Time{}, false
	}
	now := s.clock.Now()
	at := time.Date(now.Year(), now.Month(), now.Day(),
		s.near.Hour, s.near.Minute, 0, 0, now.Location())
	return at, true
}

// Len returns the number of reminders currently held.
func (s *TodaySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear empties the set. Used at the start of each day's resynchronization.
func (s *TodaySet) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.near = models.ClockTime{}
	s.nearCount = 0
}

// insert places r at its sorted position. Equal due times keep insertion
// order. Caller holds s.mu.
func (s *TodaySet) insert(r *models.Reminder) {
	i := sort.Search(len(s.items), func(i int) bool {
		return r.DueTime.Before(s.items[i].DueTime)
	})
	s.items = append(s.items, nil)
	copy(s.items[i+1:], s.items[i:])
	s.items[i] = r
}

// indexOf returns the position of the reminder with the given id, or -1.
// Caller holds s.mu.
func (s *TodaySet) indexOf(id int64) int {
	for i, r := range s.items {
		if r.ID == id {
			return i
		}
	}
	return -1
}

// recomputeNear refreshes the near-time metadata from the current contents.
// Caller holds s.mu.
func (s *TodaySet) recomputeNear() {
	if len(s.items) == 0 {
		s.near = models.ClockTime{}
		s.nearCount = 0
		return
	}
	s.near = s.items[0].DueTime
	n := 0
	for _, r := range s.items {
		if r.DueTime != s.near {
			break
		}
		n++
	}
	s.nearCount = n
}
