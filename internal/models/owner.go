package models

import "time"

const (
	// MaxRemindersFree is the stored-reminder cap for non-premium owners.
	MaxRemindersFree = 50
)

// Owner is the account a reminder belongs to. The chat gateway creates
// owners lazily on first contact; the id is the gateway-side chat/user id.
type Owner struct {
	ID            int64     `json:"id"`
	Premium       bool      `json:"premium"`
	ReminderCount int       `json:"reminder_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CanStore reports whether the owner may store one more reminder of the
// given kind. Non-premium owners are capped at MaxRemindersFree and may
// only store text payloads.
func (o *Owner) CanStore(kind PayloadKind) bool {
	if o.Premium {
		return true
	}
	if o.ReminderCount >= MaxRemindersFree {
		return false
	}
	return kind == KindText
}
