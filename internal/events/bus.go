// Package events fans controller activity out to the MQTT bridge, metrics
// and any other listener without letting them block the control loop.
package events

import (
	"github.com/kelindar/event"
)

// Bus wraps a kelindar/event dispatcher. Handlers run on the dispatcher's
// goroutines, never on the publisher's.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates a new event bus.
func New() *Bus {
	return &Bus{dispatcher: event.NewDispatcher()}
}

// Publish publishes an event to all subscribers of its type.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case StatusEvent:
		event.Publish(b.dispatcher, e)
	case NoticeEvent:
		event.Publish(b.dispatcher, e)
	case PhaseEvent:
		event.Publish(b.dispatcher, e)
	case ModeEvent:
		event.Publish(b.dispatcher, e)
	case CommandEvent:
		event.Publish(b.dispatcher, e)
	case SampleErrorEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler for the event type it accepts and returns the
// unsubscribe function. Unknown handler types get a no-op.
//
//	unsub := bus.Subscribe(func(e events.ModeEvent) { ... })
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(StatusEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(NoticeEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(PhaseEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ModeEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(CommandEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(SampleErrorEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// Close stops all subscribers.
func (b *Bus) Close() error {
	return b.dispatcher.Close()
}
