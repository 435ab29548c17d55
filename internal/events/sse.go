package events

import "github.com/kelindar/event"

// SubscribeToChannel forwards events of type T into ch for select-loop
// consumers such as the SSE endpoint. Events are dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// SubscribeAll forwards every event type into ch and returns one function
// that removes all the subscriptions.
func SubscribeAll(bus *Bus, ch chan<- any) func() {
	unsubs := []func(){
		SubscribeToChannel[StatusEvent](bus, ch),
		SubscribeToChannel[NoticeEvent](bus, ch),
		SubscribeToChannel[PhaseEvent](bus, ch),
		SubscribeToChannel[ModeEvent](bus, ch),
		SubscribeToChannel[CommandEvent](bus, ch),
		SubscribeToChannel[SampleErrorEvent](bus, ch),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
