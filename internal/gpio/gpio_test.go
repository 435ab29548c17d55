package gpio

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/sweeney/traffic-light/internal/logic"
)

var (
	_ Lights      = (*FakeLights)(nil)
	_ Lights      = (*PWMLights)(nil)
	_ Lights      = (*DigitalLights)(nil)
	_ Lights      = (*SimLights)(nil)
	_ Analog      = (*FakeAnalog)(nil)
	_ Analog      = (*IIOAnalog)(nil)
	_ Analog      = FixedAnalog(0)
	_ LevelReader = (*FakeButtons)(nil)
	_ LevelReader = (*ButtonReader)(nil)
)

// fakePWMChip lays out a sysfs PWM chip with the given channels already
// exported.
func fakePWMChip(t *testing.T, channels ...int) string {
	t.Helper()
	chip := t.TempDir()
	if err := os.WriteFile(filepath.Join(chip, "export"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	for _, ch := range channels {
		if err := os.Mkdir(filepath.Join(chip, "pwm"+strconv.Itoa(ch)), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return chip
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func TestPWMLightsSetup(t *testing.T) {
	chip := fakePWMChip(t, 0, 1, 2)

	p, err := NewPWMLights(chip, [3]int{0, 1, 2}, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, ch := range []string{"pwm0", "pwm1", "pwm2"} {
		if got := readFile(t, filepath.Join(chip, ch, "period")); got != "1000000" {
			t.Errorf("%s period: got %q, want 1000000", ch, got)
		}
		if got := readFile(t, filepath.Join(chip, ch, "enable")); got != "1" {
			t.Errorf("%s enable: got %q, want 1", ch, got)
		}
	}

	p.SetDuty(logic.Yellow, 255)
	if got := readFile(t, filepath.Join(chip, "pwm1", "duty_cycle")); got != "1000000" {
		t.Errorf("yellow duty: got %q, want 1000000", got)
	}
	p.SetDuty(logic.Green, 51)
	if got := readFile(t, filepath.Join(chip, "pwm2", "duty_cycle")); got != "200000" {
		t.Errorf("green duty: got %q, want 200000", got)
	}

	if err := p.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := readFile(t, filepath.Join(chip, "pwm1", "enable")); got != "0" {
		t.Errorf("enable after close: got %q, want 0", got)
	}
	if got := readFile(t, filepath.Join(chip, "pwm1", "duty_cycle")); got != "0" {
		t.Errorf("duty after close: got %q, want 0", got)
	}
}

func TestPWMLightsExportsMissingChannel(t *testing.T) {
	chip := fakePWMChip(t)

	// Nothing creates pwm0 after the export write, so setup must fail.
	_, err := NewPWMLights(chip, [3]int{0, 1, 2}, time.Millisecond)
	if err == nil {
		t.Fatal("expected error for a channel that never appears")
	}
	if got := readFile(t, filepath.Join(chip, "export")); got != "0" {
		t.Errorf("export: got %q, want 0", got)
	}
}

func TestDutyNanos(t *testing.T) {
	tests := []struct {
		duty   uint8
		period time.Duration
		want   int64
	}{
		{0, time.Millisecond, 0},
		{255, time.Millisecond, 1000000},
		{128, 20 * time.Millisecond, 10039215},
	}
	for _, tt := range tests {
		if got := DutyNanos(tt.duty, tt.period); got != tt.want {
			t.Errorf("DutyNanos(%d, %v) = %d, want %d", tt.duty, tt.period, got, tt.want)
		}
	}
}

func TestIIOAnalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in_voltage0_raw")
	if err := os.WriteFile(path, []byte("512\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	a, err := NewIIOAnalog(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := a.Read()
	if err != nil || v != 512 {
		t.Errorf("Read() = %d, %v; want 512", v, err)
	}

	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Read(); err == nil {
		t.Error("expected parse error")
	}
}

func TestIIOAnalogMissingFile(t *testing.T) {
	if _, err := NewIIOAnalog(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFakeLights(t *testing.T) {
	f := NewFakeLights()
	f.SetDuty(logic.Red, 200)
	f.SetDuty(logic.Green, 10)

	if f.Duties() != [3]uint8{200, 0, 10} {
		t.Errorf("duties: got %v", f.Duties())
	}
	if len(f.History()) != 2 {
		t.Errorf("history: got %d writes, want 2", len(f.History()))
	}

	f.Close()
	if !f.Closed || f.Duties() != [3]uint8{} {
		t.Error("close should mark closed and turn lamps off")
	}
}

func TestFakeAnalogRead(t *testing.T) {
	f := NewFakeAnalog(10, 20)

	for _, want := range []int{10, 20, 20} {
		got, err := f.Read()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("got %d, want %d", got, want)
		}
	}

	f.Set(99)
	if got, _ := f.Read(); got != 99 {
		t.Errorf("after Set: got %d, want 99", got)
	}
}

func TestFakeAnalogErrors(t *testing.T) {
	if _, err := NewFakeAnalog().Read(); err == nil {
		t.Error("expected error with no values")
	}

	f := NewFakeAnalog(1)
	f.ReadError = errors.New("simulated error")
	if _, err := f.Read(); err == nil || err.Error() != "simulated error" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestFakeButtons(t *testing.T) {
	f := NewFakeButtons([3]bool{true, false, false}, [3]bool{false, false, true})

	first, _ := f.Read()
	second, _ := f.Read()
	third, _ := f.Read()
	if first != [3]bool{true, false, false} || second != third {
		t.Errorf("unexpected samples: %v %v %v", first, second, third)
	}

	f.Close()
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
}

func TestFixedAnalog(t *testing.T) {
	a := FixedAnalog(512)
	for i := 0; i < 3; i++ {
		v, err := a.Read()
		if err != nil || v != 512 {
			t.Fatalf("Read() = %d, %v", v, err)
		}
	}
}

func TestSimLights(t *testing.T) {
	s := NewSimLights()
	s.SetDuty(logic.Green, 128)
	if got := s.Duties(); got != [3]uint8{0, 0, 128} {
		t.Errorf("Duties() = %v", got)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if got := s.Duties(); got != [3]uint8{} {
		t.Errorf("after Close: %v", got)
	}
}
