// Package logic contains the pure traffic-light control logic: the phase ring,
// the override modes, brightness scaling and the line protocol.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable through the scheduler clock.
package logic

import "time"

// Color identifies one of the three lamps.
type Color int

const (
	Red Color = iota
	Yellow
	Green
)

// Colors lists the lamps in output order.
var Colors = [3]Color{Red, Yellow, Green}

func (c Color) String() string {
	switch c {
	case Red:
		return "Red"
	case Yellow:
		return "Yellow"
	case Green:
		return "Green"
	}
	return "Unknown"
}

// Phase is one stage of the normal traffic cycle.
type Phase int

const (
	PhaseNone Phase = iota // before the first Red
	PhaseRed
	PhaseYellow
	PhaseGreen
	PhaseBlinkGreen
	PhaseFinishGreen
	PhaseYellow2
)

func (p Phase) String() string {
	switch p {
	case PhaseRed:
		return "Red"
	case PhaseYellow:
		return "Yellow"
	case PhaseGreen:
		return "Green"
	case PhaseBlinkGreen:
		return "BlinkGreen"
	case PhaseFinishGreen:
		return "FinishGreen"
	case PhaseYellow2:
		return "Yellow2"
	}
	return "None"
}

// Color returns the lamp a phase reports as lit.
func (p Phase) Color() (Color, bool) {
	switch p {
	case PhaseRed:
		return Red, true
	case PhaseYellow, PhaseYellow2:
		return Yellow, true
	case PhaseGreen, PhaseBlinkGreen, PhaseFinishGreen:
		return Green, true
	}
	return 0, false
}

// Mode is the override layered over the phase ring.
type Mode int

const (
	ModeNormal Mode = iota
	ModeRedHold
	ModeBlinkAll
	ModePowerOff
)

// String returns the mode name used on the status line.
func (m Mode) String() string {
	switch m {
	case ModeRedHold:
		return "Red Mode"
	case ModeBlinkAll:
		return "Blink Mode"
	case ModePowerOff:
		return "Power OFF"
	}
	return "NORMAL"
}

// State is the controller state. Phase only carries meaning in ModeNormal,
// which makes the modes mutually exclusive by construction.
type State struct {
	Mode  Mode
	Phase Phase
}

// Button is a momentary input. Each one toggles one mode.
type Button int

const (
	Button1 Button = iota + 1 // Red-Hold
	Button2                   // Blink-All
	Button3                   // Power-Off
)

func (b Button) String() string {
	switch b {
	case Button1:
		return "BTN1"
	case Button2:
		return "BTN2"
	case Button3:
		return "BTN3"
	}
	return "BTN?"
}

// Mode returns the override a button toggles.
func (b Button) Mode() Mode {
	switch b {
	case Button1:
		return ModeRedHold
	case Button2:
		return ModeBlinkAll
	case Button3:
		return ModePowerOff
	}
	return ModeNormal
}

// Durations are the hold times of the three colors.
type Durations struct {
	Red    time.Duration
	Yellow time.Duration
	Green  time.Duration
}

// DefaultDurations returns the factory hold times.
func DefaultDurations() Durations {
	return Durations{
		Red:    2000 * time.Millisecond,
		Yellow: 500 * time.Millisecond,
		Green:  2000 * time.Millisecond,
	}
}

// Get returns the duration for a color.
func (d Durations) Get(c Color) time.Duration {
	switch c {
	case Red:
		return d.Red
	case Yellow:
		return d.Yellow
	}
	return d.Green
}

// Range is an inclusive bound on a duration.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Contains reports whether d lies inside the range.
func (r Range) Contains(d time.Duration) bool {
	return d >= r.Min && d <= r.Max
}

// Limits bound the durations accepted from commands.
type Limits struct {
	Red    Range
	Yellow Range
	Green  Range
}

// DefaultLimits returns the bounds the host UI enforces before sending.
func DefaultLimits() Limits {
	return Limits{
		Red:    Range{Min: 500 * time.Millisecond, Max: 5000 * time.Millisecond},
		Yellow: Range{Min: 200 * time.Millisecond, Max: 2000 * time.Millisecond},
		Green:  Range{Min: 500 * time.Millisecond, Max: 5000 * time.Millisecond},
	}
}

// For returns the range for a color.
func (l Limits) For(c Color) Range {
	switch c {
	case Red:
		return l.Red
	case Yellow:
		return l.Yellow
	}
	return l.Green
}

// Counts tracks controller activity since startup.
type Counts struct {
	Cycles           int // completed Red entries after the first
	ModeChanges      int
	CommandsApplied  int
	CommandsRejected int
	ButtonsDropped   uint64
	SampleErrors     int
}

// Snapshot is a point-in-time copy of the controller for display.
type Snapshot struct {
	State      State
	LED        string
	Brightness uint8
	Duties     [3]uint8
	Durations  Durations
	Counts     Counts
}
