package events

import (
	"errors"
	"fmt"
	"sync"
)

// InMemoryEventStore keeps streams in memory. Subscribers are notified synchronously,
// in subscription order, before AppendEvent returns.
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]EventHandler
	mutex       sync.RWMutex
}

// NewInMemoryEventStore creates an empty store
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]EventHandler),
	}
}

// Verify interface compliance
var _ EventStore = (*InMemoryEventStore)(nil)

// AppendEvent versions the event within its stream and notifies subscribers.
// Handler failures are returned joined; the event stays appended.
func (s *InMemoryEventStore) AppendEvent(streamID string, event Event) error {
	s.mutex.Lock()
	versioned := BaseEvent{
		EventType:    event.Type(),
		Stream:       streamID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: len(s.streams[streamID]) + 1,
	}
	s.streams[streamID] = append(s.streams[streamID], versioned)
	handlers := append([]EventHandler(nil), s.subscribers[versioned.EventType]...)
	s.mutex.Unlock()

	var errs []error
	for _, handler := range handlers {
		if !handler.CanHandle(versioned.EventType) {
			continue
		}
		if err := handler.Handle(versioned); err != nil {
			errs = append(errs, fmt.Errorf("handling event %s: %w", versioned.EventType, err))
		}
	}
	return errors.Join(errs...)
}

// ReadEvents returns the events of a stream starting at fromVersion (1-based)
func (s *InMemoryEventStore) ReadEvents(streamID string, fromVersion int) ([]Event, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.streams[streamID]
	if fromVersion < 1 {
		fromVersion = 1
	}
	if fromVersion > len(events) {
		return []Event{}, nil
	}
	return append([]Event(nil), events[fromVersion-1:]...), nil
}

// Subscribe registers handler for the given event types
func (s *InMemoryEventStore) Subscribe(eventTypes []string, handler EventHandler) error {
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
	return nil
}
