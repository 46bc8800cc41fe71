package schedule

import "time"

// Clock supplies the current time. The scheduler, resync job and handlers
// all share one clock so that "today" means the same calendar day
// everywhere; tests substitute a fake.
type Clock interface {
	Now() time.Time
}

type realClock struct {
	loc *time.Location
}

// NewClock returns a Clock reporting wall time in loc.
func NewClock(loc *time.Location) Clock {
	if loc == nil {
		loc = time.Local
	}
	return &realClock{loc: loc}
}

func (c *realClock) Now() time.Time {
	return time.Now().In(c.loc)
}
