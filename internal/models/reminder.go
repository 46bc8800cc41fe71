package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// PayloadKind identifies what a reminder carries back to its owner.
type PayloadKind string

const (
	KindText      PayloadKind = "text"
	KindPhoto     PayloadKind = "photo"
	KindVideo     PayloadKind = "video"
	KindAudio     PayloadKind = "audio"
	KindDocument  PayloadKind = "document"
	KindVoice     PayloadKind = "voice"
	KindVideoNote PayloadKind = "video_note"
)

// Valid reports whether k is a known payload kind.
func (k PayloadKind) Valid() bool {
	switch k {
	case KindText, KindPhoto, KindVideo, KindAudio, KindDocument, KindVoice, KindVideoNote:
		return true
	default:
		return false
	}
}

// RequiresFile reports whether the kind needs a media handle to deliver.
func (k PayloadKind) RequiresFile() bool {
	return k.Valid() && k != KindText
}

// Date is a calendar date with no time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf extracts the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a date in 2006-01-02 form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time returns midnight of d in loc.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Before reports whether d is strictly earlier than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// MarshalJSON encodes the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes a "2006-01-02" string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ClockTime is a minute-resolution time of day. Reminders fire on minute
// boundaries; seconds are never stored.
type ClockTime struct {
	Hour   int
	Minute int
}

// ClockTimeOf extracts the hour and minute of t.
func ClockTimeOf(t time.Time) ClockTime {
	return ClockTime{Hour: t.Hour(), Minute: t.Minute()}
}

// ParseClockTime parses a time of day in 15:04 form.
func ParseClockTime(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return ClockTime{}, fmt.Errorf("invalid time %q: %w", s, err)
	}
	return ClockTimeOf(t), nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Minutes returns the minute of day, 0..1439.
func (c ClockTime) Minutes() int {
	return c.Hour*60 + c.Minute
}

// Before reports whether c is strictly earlier in the day than o.
func (c ClockTime) Before(o ClockTime) bool {
	return c.Minutes() < o.Minutes()
}

// MarshalJSON encodes the time as "15:04".
func (c ClockTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON decodes a "15:04" string.
func (c *ClockTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseClockTime(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Reminder is a scheduled message payload plus its due date and time.
// Text reminders carry only Text; media reminders carry a FileRef handle
// the gateway resolves, with Text as an optional caption.
type Reminder struct {
	ID        int64       `json:"id"`
	OwnerID   int64       `json:"owner_id"`
	DueDate   Date        `json:"due_date"`
	DueTime   ClockTime   `json:"due_time"`
	Kind      PayloadKind `json:"kind"`
	Text      string      `json:"text,omitempty"`
	FileRef   string      `json:"file_ref,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// DueAt combines the due date and due time into a wall-clock instant in loc.
func (r *Reminder) DueAt(loc *time.Location) time.Time {
	return time.Date(r.DueDate.Year, r.DueDate.Month, r.DueDate.Day,
		r.DueTime.Hour, r.DueTime.Minute, 0, 0, loc)
}

// DueOn reports whether the reminder is due on the given calendar date.
func (r *Reminder) DueOn(d Date) bool {
	return r.DueDate == d
}
