package logic

import (
	"errors"
	"testing"
)

func TestStatusString(t *testing.T) {
	s := Status{Mode: ModeBlinkAll, LED: LEDBlinking, Brightness: 42}
	want := "MODE:Blink Mode, LED:Blinking, Brightness:42"
	if s.String() != want {
		t.Errorf("got %q, want %q", s.String(), want)
	}
}

func TestLEDName(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{State{Mode: ModeNormal, Phase: PhaseNone}, "OFF"},
		{State{Mode: ModeNormal, Phase: PhaseRed}, "Red"},
		{State{Mode: ModeNormal, Phase: PhaseYellow}, "Yellow"},
		{State{Mode: ModeNormal, Phase: PhaseYellow2}, "Yellow"},
		{State{Mode: ModeNormal, Phase: PhaseGreen}, "Green"},
		{State{Mode: ModeNormal, Phase: PhaseBlinkGreen}, "Green"},
		{State{Mode: ModeNormal, Phase: PhaseFinishGreen}, "Green"},
		{State{Mode: ModeRedHold}, "Red"},
		{State{Mode: ModeBlinkAll}, "Blinking"},
		{State{Mode: ModePowerOff}, "OFF"},
	}

	for _, tt := range tests {
		if got := LEDName(tt.state); got != tt.want {
			t.Errorf("LEDName(%+v) = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestParseStatusLineRoundTrip(t *testing.T) {
	statuses := []Status{
		{Mode: ModeNormal, LED: "Red", Brightness: 0},
		{Mode: ModeRedHold, LED: "Red", Brightness: 127},
		{Mode: ModeBlinkAll, LED: LEDBlinking, Brightness: 255},
		{Mode: ModePowerOff, LED: LEDOff, Brightness: 9},
	}

	for _, want := range statuses {
		got, err := ParseStatusLine(want.String() + "\n")
		if err != nil {
			t.Fatalf("ParseStatusLine(%q): %v", want.String(), err)
		}
		if got != want {
			t.Errorf("got %+v, want %+v", got, want)
		}
	}
}

func TestParseStatusLineErrors(t *testing.T) {
	lines := []string{
		"",
		"MODE:NORMAL",
		"MODE:NORMAL, LED:Red",
		"MODE:Disco, LED:Red, Brightness:1",
		"STATE:NORMAL, LED:Red, Brightness:1",
		"MODE:NORMAL, LED:, Brightness:1",
		"MODE:NORMAL, LED:Red, Brightness:256",
		"MODE:NORMAL, LED:Red, Brightness:-1",
		"MODE:NORMAL, LED:Red, Level:1",
		"Red is running...",
	}

	for _, line := range lines {
		if _, err := ParseStatusLine(line); !errors.Is(err, ErrBadStatusLine) {
			t.Errorf("ParseStatusLine(%q): got %v, want ErrBadStatusLine", line, err)
		}
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeNormal, ModeRedHold, ModeBlinkAll, ModePowerOff} {
		got, ok := ParseMode(m.String())
		if !ok || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, ok)
		}
	}
	if _, ok := ParseMode("nope"); ok {
		t.Error("ParseMode accepted an unknown name")
	}
}
