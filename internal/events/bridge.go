package events

import (
	"errors"
	"time"

	"github.com/sweeney/traffic-light/internal/logic"
)

// Bridge sits between the controller and the outside world. As a logic.Sink
// it forwards every line to next (the serial port) and publishes it; as a
// logic.Observer it publishes phase, mode and command activity.
type Bridge struct {
	bus   *Bus
	next  logic.Sink
	clock func() time.Time
}

// NewBridge returns a bridge publishing on bus. next may be nil.
func NewBridge(bus *Bus, next logic.Sink, clock func() time.Time) *Bridge {
	if clock == nil {
		clock = time.Now
	}
	return &Bridge{bus: bus, next: next, clock: clock}
}

func (b *Bridge) Status(s logic.Status) {
	if b.next != nil {
		b.next.Status(s)
	}
	b.bus.Publish(StatusEvent{
		Mode:       s.Mode.String(),
		LED:        s.LED,
		Brightness: s.Brightness,
		Timestamp:  b.clock(),
	})
}

func (b *Bridge) Notice(msg string) {
	if b.next != nil {
		b.next.Notice(msg)
	}
	b.bus.Publish(NoticeEvent{Message: msg, Timestamp: b.clock()})
}

func (b *Bridge) PhaseEntered(p logic.Phase) {
	b.bus.Publish(PhaseEvent{Phase: p.String(), Timestamp: b.clock()})
}

func (b *Bridge) ModeChanged(from, to logic.Mode) {
	b.bus.Publish(ModeEvent{From: from.String(), To: to.String(), Timestamp: b.clock()})
}

func (b *Bridge) CommandApplied(cmd logic.Command) {
	kind := "duration"
	if cmd.Kind == logic.CommandButton {
		kind = "button"
	}
	b.bus.Publish(CommandEvent{Line: cmd.String(), Kind: kind, Accepted: true, Timestamp: b.clock()})
}

func (b *Bridge) CommandRejected(line string, err error) {
	kind := "invalid"
	if errors.Is(err, logic.ErrInvalidDuration) {
		kind = "duration"
	}
	b.bus.Publish(CommandEvent{Line: line, Kind: kind, Error: err.Error(), Timestamp: b.clock()})
}

func (b *Bridge) SampleFailed(err error) {
	b.bus.Publish(SampleErrorEvent{Error: err.Error(), Timestamp: b.clock()})
}
