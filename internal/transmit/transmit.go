package transmit

import (
	"time"

	"github.com/google/uuid"

	"github.com/dsemenov/remindd/internal/models"
)

// Envelope is the wire form of one outbound delivery. The chat gateway
// consumes these from the dispatch queue and performs the protocol-specific
// send (message, photo, voice note, ...) to the owner's chat.
type Envelope struct {
	ID        uuid.UUID          `json:"id"`
	OwnerID   int64              `json:"owner_id"`
	Kind      models.PayloadKind `json:"kind"`
	Text      string             `json:"text,omitempty"`
	FileRef   string             `json:"file_ref,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewEnvelope builds an envelope for one reminder payload.
func NewEnvelope(ownerID int64, kind models.PayloadKind, text, fileRef string) *Envelope {
	return &Envelope{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Kind:      kind,
		Text:      text,
		FileRef:   fileRef,
		CreatedAt: time.Now(),
	}
}
