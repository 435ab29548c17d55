package logic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LED names reported on the status line besides the three colors.
const (
	LEDBlinking = "Blinking"
	LEDOff      = "OFF"
)

// ErrBadStatusLine is returned by ParseStatusLine for malformed input.
var ErrBadStatusLine = errors.New("malformed status line")

// Status is the content of one status line.
type Status struct {
	Mode       Mode
	LED        string
	Brightness uint8
}

// String formats the status line without the trailing newline:
// MODE:<mode>, LED:<led>, Brightness:<0-255>
func (s Status) String() string {
	return fmt.Sprintf("MODE:%s, LED:%s, Brightness:%d", s.Mode, s.LED, s.Brightness)
}

// LEDName returns the LED field for a state.
func LEDName(s State) string {
	switch s.Mode {
	case ModeRedHold:
		return Red.String()
	case ModeBlinkAll:
		return LEDBlinking
	case ModePowerOff:
		return LEDOff
	}
	if c, ok := s.Phase.Color(); ok {
		return c.String()
	}
	return LEDOff
}

// ParseMode maps a status line mode name back to a Mode.
func ParseMode(name string) (Mode, bool) {
	for _, m := range []Mode{ModeNormal, ModeRedHold, ModeBlinkAll, ModePowerOff} {
		if m.String() == name {
			return m, true
		}
	}
	return ModeNormal, false
}

// ParseStatusLine decodes a line produced by Status.String. Surrounding
// whitespace is ignored.
func ParseStatusLine(line string) (Status, error) {
	parts := strings.Split(strings.TrimSpace(line), ", ")
	if len(parts) != 3 {
		return Status{}, fmt.Errorf("%w: want 3 fields, got %d", ErrBadStatusLine, len(parts))
	}

	modeName, ok := strings.CutPrefix(parts[0], "MODE:")
	if !ok {
		return Status{}, fmt.Errorf("%w: missing MODE field", ErrBadStatusLine)
	}
	mode, ok := ParseMode(modeName)
	if !ok {
		return Status{}, fmt.Errorf("%w: unknown mode %q", ErrBadStatusLine, modeName)
	}

	led, ok := strings.CutPrefix(parts[1], "LED:")
	if !ok || led == "" {
		return Status{}, fmt.Errorf("%w: missing LED field", ErrBadStatusLine)
	}

	raw, ok := strings.CutPrefix(parts[2], "Brightness:")
	if !ok {
		return Status{}, fmt.Errorf("%w: missing Brightness field", ErrBadStatusLine)
	}
	b, err := strconv.Atoi(raw)
	if err != nil || b < 0 || b > 255 {
		return Status{}, fmt.Errorf("%w: brightness %q", ErrBadStatusLine, raw)
	}

	return Status{Mode: mode, LED: led, Brightness: uint8(b)}, nil
}
