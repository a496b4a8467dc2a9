// Package state provides the observable form state behind the generator
// screen. The container emits events when it changes so any frontend can
// subscribe and redraw.
package state

import "github.com/projgen/projgen/internal/events"

// EventFormChanged is published after every FormState mutation.
const EventFormChanged events.EventType = "form_changed"

// FormChangedEvent carries the state as it was right after the change.
type FormChangedEvent struct {
	events.BaseEvent
	Snapshot Snapshot
}

// NewFormChangedEvent creates a FormChangedEvent.
func NewFormChangedEvent(s Snapshot) *FormChangedEvent {
	return &FormChangedEvent{
		BaseEvent: events.NewBase(EventFormChanged),
		Snapshot:  s,
	}
}
