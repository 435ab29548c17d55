package logic

import (
	"testing"
	"time"
)

func sample(at time.Time, b1, b2, b3 bool) ButtonSample {
	return ButtonSample{Pressed: [3]bool{b1, b2, b3}, Time: at}
}

// baselined returns a debouncer with all buttons released and stable.
func baselinedDebouncer(t *testing.T, now time.Time) *Debouncer {
	t.Helper()
	d := NewDebouncer(50 * time.Millisecond)
	d.Process(sample(now, false, false, false))
	d.Process(sample(now.Add(50*time.Millisecond), false, false, false))
	if !d.IsBaselined() {
		t.Fatal("expected baseline")
	}
	return d
}

func TestDebouncerBaseline(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(50 * time.Millisecond)

	if got := d.Process(sample(now, false, true, false)); len(got) != 0 {
		t.Errorf("expected no presses during baseline, got %v", got)
	}
	if d.IsBaselined() {
		t.Error("should not be baselined after first sample")
	}

	d.Process(sample(now.Add(40*time.Millisecond), false, true, false))
	if d.IsBaselined() {
		t.Error("should not be baselined before debounce period")
	}

	if got := d.Process(sample(now.Add(50*time.Millisecond), false, true, false)); len(got) != 0 {
		t.Errorf("held button at startup must not count as a press, got %v", got)
	}
	if !d.IsBaselined() {
		t.Error("should be baselined after debounce period")
	}

	want := [3]Level{LevelReleased, LevelPressed, LevelReleased}
	if d.Levels() != want {
		t.Errorf("levels: got %v, want %v", d.Levels(), want)
	}
}

func TestDebouncerBaselineResetOnChange(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(50 * time.Millisecond)

	d.Process(sample(now, true, false, false))
	d.Process(sample(now.Add(30*time.Millisecond), false, false, false))
	d.Process(sample(now.Add(50*time.Millisecond), false, false, false))
	if d.IsBaselined() {
		t.Error("should not be baselined, pending level restarted at 30ms")
	}

	d.Process(sample(now.Add(80*time.Millisecond), false, false, false))
	if !d.IsBaselined() {
		t.Error("should be baselined 50ms after the last change")
	}
}

func TestDebouncerPress(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := baselinedDebouncer(t, now)
	now = now.Add(100 * time.Millisecond)

	if got := d.Process(sample(now, true, false, false)); len(got) != 0 {
		t.Errorf("press reported before debounce: %v", got)
	}
	got := d.Process(sample(now.Add(50*time.Millisecond), true, false, false))
	if len(got) != 1 || got[0] != Button1 {
		t.Fatalf("expected [BTN1], got %v", got)
	}

	// Holding does not repeat.
	if got := d.Process(sample(now.Add(500*time.Millisecond), true, false, false)); len(got) != 0 {
		t.Errorf("held button repeated: %v", got)
	}
}

func TestDebouncerReleaseIsNotAPress(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := baselinedDebouncer(t, now)
	now = now.Add(100 * time.Millisecond)

	d.Process(sample(now, false, false, true))
	d.Process(sample(now.Add(50*time.Millisecond), false, false, true))
	d.Process(sample(now.Add(100*time.Millisecond), false, false, false))
	if got := d.Process(sample(now.Add(150*time.Millisecond), false, false, false)); len(got) != 0 {
		t.Errorf("release reported as press: %v", got)
	}
	if d.Levels()[2] != LevelReleased {
		t.Errorf("BTN3 level: got %s", d.Levels()[2])
	}
}

func TestDebouncerBounceShorterThanDebounce(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := baselinedDebouncer(t, now)
	now = now.Add(100 * time.Millisecond)

	d.Process(sample(now, false, true, false))
	d.Process(sample(now.Add(20*time.Millisecond), false, false, false))
	d.Process(sample(now.Add(40*time.Millisecond), false, true, false))
	if got := d.Process(sample(now.Add(80*time.Millisecond), false, true, false)); len(got) != 0 {
		t.Errorf("bounce should restart debounce, got %v", got)
	}
	got := d.Process(sample(now.Add(90*time.Millisecond), false, true, false))
	if len(got) != 1 || got[0] != Button2 {
		t.Errorf("expected [BTN2], got %v", got)
	}
}

func TestDebouncerSimultaneousPresses(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := baselinedDebouncer(t, now)
	now = now.Add(100 * time.Millisecond)

	d.Process(sample(now, true, false, true))
	got := d.Process(sample(now.Add(50*time.Millisecond), true, false, true))
	if len(got) != 2 || got[0] != Button1 || got[1] != Button3 {
		t.Errorf("expected [BTN1 BTN3] in order, got %v", got)
	}
}

func TestDebouncerZeroDuration(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	d := NewDebouncer(0)

	d.Process(sample(now, false, false, false))
	d.Process(sample(now, false, false, false))
	if !d.IsBaselined() {
		t.Fatal("zero debounce should baseline on the second sample")
	}

	d.Process(sample(now, true, false, false))
	got := d.Process(sample(now, true, false, false))
	if len(got) != 1 || got[0] != Button1 {
		t.Errorf("expected [BTN1], got %v", got)
	}
}
