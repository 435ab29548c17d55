package logic

import "time"

// Level is the debounced state of a button line.
type Level string

const (
	LevelReleased Level = "RELEASED"
	LevelPressed  Level = "PRESSED"
)

// ButtonSample is one poll of the three buttons (already in logical form,
// true = pressed).
type ButtonSample struct {
	Pressed [3]bool
	Time    time.Time
}

// lineState tracks debounce state for a single button.
type lineState struct {
	// Current stable (debounced) level
	Stable Level
	// Pending level during debounce
	Pending Level
	// Time when pending level was first observed
	PendingSince time.Time
	// Whether we have established a baseline
	Baselined bool
}

// Debouncer turns polled button levels into press events. It is used when
// the GPIO driver cannot deliver edge events.
type Debouncer struct {
	debounce  time.Duration
	lines     [3]lineState
	baselined bool
}

// NewDebouncer creates a Debouncer that needs a level to hold for debounce
// before it is accepted.
func NewDebouncer(debounce time.Duration) *Debouncer {
	return &Debouncer{debounce: debounce}
}

// Process takes a new sample and returns the buttons that became pressed.
// Nothing is reported until every line has a baseline, so a button held
// down at startup does not count as a press.
func (d *Debouncer) Process(s ButtonSample) []Button {
	var pressed []Button
	for i := range d.lines {
		if d.processLine(&d.lines[i], levelOf(s.Pressed[i]), s.Time) {
			pressed = append(pressed, Button(i+1))
		}
	}

	if !d.baselined {
		d.baselined = d.lines[0].Baselined && d.lines[1].Baselined && d.lines[2].Baselined
		return nil
	}
	return pressed
}

// IsBaselined returns whether every line has a stable level.
func (d *Debouncer) IsBaselined() bool {
	return d.baselined
}

// Levels returns the current stable levels.
func (d *Debouncer) Levels() [3]Level {
	return [3]Level{d.lines[0].Stable, d.lines[1].Stable, d.lines[2].Stable}
}

// processLine handles debounce for one line and reports a released→pressed
// transition.
func (d *Debouncer) processLine(l *lineState, level Level, now time.Time) bool {
	if !l.Baselined {
		if l.Pending != level {
			l.Pending = level
			l.PendingSince = now
			return false
		}
		if now.Sub(l.PendingSince) >= d.debounce {
			l.Stable = level
			l.Baselined = true
			l.Pending = ""
		}
		return false
	}

	if level == l.Stable {
		l.Pending = ""
		return false
	}

	if l.Pending != level {
		l.Pending = level
		l.PendingSince = now
		return false
	}

	if now.Sub(l.PendingSince) >= d.debounce {
		l.Stable = level
		l.Pending = ""
		return level == LevelPressed
	}
	return false
}

func levelOf(pressed bool) Level {
	if pressed {
		return LevelPressed
	}
	return LevelReleased
}
