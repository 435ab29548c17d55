package logic

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrUnknownCommand is returned for lines that match no command.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidDuration is returned for duration commands whose value does
	// not parse or falls outside the configured limits.
	ErrInvalidDuration = errors.New("invalid duration")
)

// CommandKind distinguishes the two command families.
type CommandKind int

const (
	CommandSetDuration CommandKind = iota + 1
	CommandButton
)

// Command is a parsed command line.
type Command struct {
	Kind     CommandKind
	Color    Color         // CommandSetDuration
	Duration time.Duration // CommandSetDuration
	Button   Button        // CommandButton
}

// String formats the command in wire form.
func (c Command) String() string {
	if c.Kind == CommandButton {
		return c.Button.String()
	}
	return fmt.Sprintf("%s:%d", durationPrefix(c.Color), c.Duration.Milliseconds())
}

const maxCommandMillis = math.MaxInt64 / int64(time.Millisecond)

func durationPrefix(c Color) string {
	switch c {
	case Red:
		return "RED"
	case Yellow:
		return "YELLOW"
	}
	return "GREEN"
}

// ParseCommand parses one command line. Prefixes are case-sensitive; the
// line and the duration value are trimmed of surrounding whitespace.
// Duration values are milliseconds. Values that do not fit a time.Duration
// are rejected; limits are checked by Validate.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)

	switch line {
	case "BTN1":
		return Command{Kind: CommandButton, Button: Button1}, nil
	case "BTN2":
		return Command{Kind: CommandButton, Button: Button2}, nil
	case "BTN3":
		return Command{Kind: CommandButton, Button: Button3}, nil
	}

	for _, c := range Colors {
		rest, ok := strings.CutPrefix(line, durationPrefix(c)+":")
		if !ok {
			continue
		}
		ms, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil {
			return Command{}, fmt.Errorf("%w: %s value %q", ErrInvalidDuration, durationPrefix(c), rest)
		}
		if int64(ms) > maxCommandMillis || int64(ms) < -maxCommandMillis {
			return Command{}, fmt.Errorf("%w: %s value %d out of range", ErrInvalidDuration, durationPrefix(c), ms)
		}
		return Command{
			Kind:     CommandSetDuration,
			Color:    c,
			Duration: time.Duration(ms) * time.Millisecond,
		}, nil
	}

	return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
}

// Validate checks a duration command against limits. Button commands are
// always valid.
func (c Command) Validate(limits Limits) error {
	if c.Kind != CommandSetDuration {
		return nil
	}
	r := limits.For(c.Color)
	if !r.Contains(c.Duration) {
		return fmt.Errorf("%w: %s %v outside [%v, %v]", ErrInvalidDuration, c.Color, c.Duration, r.Min, r.Max)
	}
	return nil
}
