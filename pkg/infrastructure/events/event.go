// Package events is the session journal. The day cycle appends one event per
// state change to the stream of the period it concerns; handlers subscribed
// to an event type run before Publish returns.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is one journal entry. Version is its 1-based position within Stream
// and is assigned by the journal.
type Event struct {
	ID      uuid.UUID
	Type    string
	Stream  string
	Payload any
	At      time.Time
	Version int
}

// NewEvent stamps a new, unversioned event
func NewEvent(eventType, stream string, payload any) Event {
	return Event{
		ID:      uuid.New(),
		Type:    eventType,
		Stream:  stream,
		Payload: payload,
		At:      time.Now(),
	}
}

type Handler interface {
	Handle(event Event) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(event Event) error

func (f HandlerFunc) Handle(event Event) error {
	return f(event)
}

// Publisher is the write side the day cycle needs
type Publisher interface {
	Publish(event Event) error
}
