package events

import (
	"errors"
	"log/slog"
	"sync"
)

// Journal keeps a session's events in memory, in publish order
type Journal struct {
	mu       sync.RWMutex
	log      []Event
	versions map[string]int
	subs     map[string][]subscription
	nextSub  int
	logger   *slog.Logger
}

type subscription struct {
	id      int
	handler Handler
}

func NewJournal(logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{
		versions: make(map[string]int),
		subs:     make(map[string][]subscription),
		logger:   logger,
	}
}

var _ Publisher = (*Journal)(nil)

// Publish versions event within its stream, records it and runs the
// handlers subscribed to its type. Handler errors are logged, not returned.
func (j *Journal) Publish(event Event) error {
	if event.Type == "" || event.Stream == "" {
		return errors.New("event needs a type and a stream")
	}

	j.mu.Lock()
	j.versions[event.Stream]++
	event.Version = j.versions[event.Stream]
	j.log = append(j.log, event)
	subs := append([]subscription(nil), j.subs[event.Type]...)
	j.mu.Unlock()

	for _, sub := range subs {
		if err := sub.handler.Handle(event); err != nil {
			j.logger.Error("event handler failed",
				"event_type", event.Type,
				"event_id", event.ID.String(),
				"error", err)
		}
	}
	return nil
}

// Stream returns the events of one stream from fromVersion on
func (j *Journal) Stream(stream string, fromVersion int) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	var out []Event
	for _, event := range j.log {
		if event.Stream == stream && event.Version >= fromVersion {
			out = append(out, event)
		}
	}
	return out
}

// Since returns every event from position on (0 is the first event)
func (j *Journal) Since(position int) []Event {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if position < 0 {
		position = 0
	}
	if position >= len(j.log) {
		return nil
	}
	return append([]Event(nil), j.log[position:]...)
}

// Subscribe runs handler for each listed event type until cancel is called
func (j *Journal) Subscribe(handler Handler, eventTypes ...string) (cancel func()) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.nextSub++
	id := j.nextSub
	for _, eventType := range eventTypes {
		j.subs[eventType] = append(j.subs[eventType], subscription{id: id, handler: handler})
	}

	return func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		for _, eventType := range eventTypes {
			kept := j.subs[eventType][:0]
			for _, sub := range j.subs[eventType] {
				if sub.id != id {
					kept = append(kept, sub)
				}
			}
			j.subs[eventType] = kept
		}
	}
}
