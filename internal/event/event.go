package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeSessionAuthenticated Type = "session.authenticated"
	TypeSessionLoggedOut     Type = "session.logged_out"
	TypeSessionExpired       Type = "session.expired"
	TypeBookingCreated       Type = "booking.created"
	TypeBookingCancelled     Type = "booking.cancelled"
	TypeProfileUpdated       Type = "profile.updated"
)

type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"` // whose session produced it
}

func New(typ Type, userID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // channel and unsubscribe function
}

// Nop discards everything. Used when nobody listens.
type Nop struct{}

func (Nop) Publish(Event) {}

func (Nop) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event)
	close(ch)
	return ch, func() {}
}
