package events

import (
	"time"
)

// Event is one immutable fact recorded during a planning run
type Event interface {
	Type() string
	StreamID() string
	Data() interface{}
	Timestamp() time.Time
	Version() int
}

// EventHandler receives events of the types it subscribed to
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore appends events to per-run streams and fans them out to subscribers
type EventStore interface {
	AppendEvent(streamID string, event Event) error
	ReadEvents(streamID string, fromVersion int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
}

// BaseEvent is the stock Event implementation
type BaseEvent struct {
	EventType    string      `json:"type"`
	Stream       string      `json:"stream"`
	EventData    interface{} `json:"data"`
	EventTime    time.Time   `json:"timestamp"`
	EventVersion int         `json:"version"`
}

func (e BaseEvent) Type() string {
	return e.EventType
}

func (e BaseEvent) StreamID() string {
	return e.Stream
}

func (e BaseEvent) Data() interface{} {
	return e.EventData
}

func (e BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

func (e BaseEvent) Version() int {
	return e.EventVersion
}

// NewEvent creates an event stamped at the given time; the store assigns the version
func NewEvent(eventType, streamID string, data interface{}, at time.Time) Event {
	return BaseEvent{
		EventType: eventType,
		Stream:    streamID,
		EventData: data,
		EventTime: at,
	}
}

// HandlerFunc adapts a function to EventHandler for every event type
type HandlerFunc func(event Event) error

func (f HandlerFunc) Handle(event Event) error {
	return f(event)
}

func (f HandlerFunc) CanHandle(string) bool {
	return true
}
