package events

import (
	"time"

	"github.com/sweeney/traffic-light/internal/logic"
)

// Event type constants for kelindar/event.
const (
	TypeStatus uint32 = iota + 1
	TypeNotice
	TypePhase
	TypeMode
	TypeCommand
	TypeSampleError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// StatusEvent carries one status emission.
type StatusEvent struct {
	Mode       string    `json:"mode" example:"NORMAL" doc:"Operating mode"`
	LED        string    `json:"led" example:"Red" doc:"Lamp currently shown"`
	Brightness uint8     `json:"brightness" example:"255" doc:"Lamp brightness 0-255"`
	Timestamp  time.Time `json:"timestamp" doc:"Emission time"`
}

func (e StatusEvent) Type() uint32 { return TypeStatus }

// Status converts the event back to a status line.
func (e StatusEvent) Status() logic.Status {
	m, _ := logic.ParseMode(e.Mode)
	return logic.Status{Mode: m, LED: e.LED, Brightness: e.Brightness}
}

// NoticeEvent carries a human-readable stage or mode message.
type NoticeEvent struct {
	Message   string    `json:"message" example:"Red is running..."`
	Timestamp time.Time `json:"timestamp"`
}

func (e NoticeEvent) Type() uint32 { return TypeNotice }

// PhaseEvent is published when the ring enters a phase.
type PhaseEvent struct {
	Phase     string    `json:"phase" example:"Green"`
	Timestamp time.Time `json:"timestamp"`
}

func (e PhaseEvent) Type() uint32 { return TypePhase }

// ModeEvent is published on every mode toggle.
type ModeEvent struct {
	From      string    `json:"from" example:"NORMAL"`
	To        string    `json:"to" example:"Red Mode"`
	Timestamp time.Time `json:"timestamp"`
}

func (e ModeEvent) Type() uint32 { return TypeMode }

// CommandEvent is published for every command line handled, accepted or not.
type CommandEvent struct {
	Line      string    `json:"line" example:"RED:1500"`
	Kind      string    `json:"kind" example:"duration" doc:"duration, button or invalid"`
	Accepted  bool      `json:"accepted"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func (e CommandEvent) Type() uint32 { return TypeCommand }

// SampleErrorEvent is published when the brightness input cannot be read.
type SampleErrorEvent struct {
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (e SampleErrorEvent) Type() uint32 { return TypeSampleError }
