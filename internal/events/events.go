// Package events provides a small publish/subscribe bus used to tell the
// presentation layer about workflow state changes.
package events

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/projgen/projgen/internal/constants"
)

// EventType names a kind of event. Subscriptions are per type.
type EventType string

const (
	EventStateChange EventType = "state_change"

	// anyEvent keys the subscribers registered through SubscribeAll.
	anyEvent EventType = "*"
)

// Event is implemented by everything published on the bus.
type Event interface {
	Type() EventType
	Timestamp() time.Time
}

// BaseEvent carries the fields every event has.
type BaseEvent struct {
	EventType EventType
	Time      time.Time
}

func (e BaseEvent) Type() EventType      { return e.EventType }
func (e BaseEvent) Timestamp() time.Time { return e.Time }

// NewBase stamps an event of type t with the current time.
func NewBase(t EventType) BaseEvent {
	return BaseEvent{EventType: t, Time: time.Now()}
}

// StateChangeEvent is published on every workflow task transition.
type StateChangeEvent struct {
	BaseEvent
	TaskID       string
	Source       string // source file path
	OldState     string
	NewState     string
	ResultPath   string // Extraction Root, Succeeded only
	ErrorMessage string // user-facing message, Failed only
}

// EventBus fans events out to buffered subscriber channels. Publish never
// blocks: an event for a full subscriber is dropped and counted.
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]chan Event
	bufferSize  int
	closed      bool
	dropped     atomic.Int64
}

// NewEventBus creates a bus whose subscriber channels hold bufferSize events,
// clamped to the configured bounds.
func NewEventBus(bufferSize int) *EventBus {
	switch {
	case bufferSize <= 0:
		bufferSize = constants.EventBusDefaultBuffer
	case bufferSize > constants.EventBusMaxBuffer:
		bufferSize = constants.EventBusMaxBuffer
	}
	return &EventBus{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe returns a channel receiving events of one type.
func (eb *EventBus) Subscribe(eventType EventType) <-chan Event {
	return eb.subscribe(eventType)
}

// SubscribeAll returns a channel receiving every event.
func (eb *EventBus) SubscribeAll() <-chan Event {
	return eb.subscribe(anyEvent)
}

func (eb *EventBus) subscribe(key EventType) <-chan Event {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		ch := make(chan Event)
		close(ch)
		return ch
	}

	ch := make(chan Event, eb.bufferSize)
	eb.subscribers[key] = append(eb.subscribers[key], ch)
	return ch
}

// Unsubscribe stops delivery to ch. The channel is left open so a reader
// blocked on it is not woken with a zero event.
func (eb *EventBus) Unsubscribe(eventType EventType, ch <-chan Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for _, key := range []EventType{eventType, anyEvent} {
		eb.subscribers[key] = slices.DeleteFunc(eb.subscribers[key], func(c chan Event) bool {
			return c == ch
		})
	}
}

// Publish delivers event to the subscribers of its type and to catch-all
// subscribers.
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return
	}
	eb.offer(eb.subscribers[event.Type()], event)
	eb.offer(eb.subscribers[anyEvent], event)
}

func (eb *EventBus) offer(channels []chan Event, event Event) {
	for _, ch := range channels {
		select {
		case ch <- event:
		default:
			eb.dropped.Add(1)
		}
	}
}

// Close closes every subscriber channel. Later publishes are ignored and
// later subscriptions get a closed channel.
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return
	}
	eb.closed = true

	for key, channels := range eb.subscribers {
		for _, ch := range channels {
			close(ch)
		}
		delete(eb.subscribers, key)
	}
}

// PublishStateChange publishes a StateChangeEvent.
func (eb *EventBus) PublishStateChange(taskID, source, oldState, newState, resultPath, errorMsg string) {
	eb.Publish(&StateChangeEvent{
		BaseEvent:    NewBase(EventStateChange),
		TaskID:       taskID,
		Source:       source,
		OldState:     oldState,
		NewState:     newState,
		ResultPath:   resultPath,
		ErrorMessage: errorMsg,
	})
}

// GetDroppedEventCount returns how many events were dropped on full
// subscriber channels.
func (eb *EventBus) GetDroppedEventCount() int64 {
	return eb.dropped.Load()
}
