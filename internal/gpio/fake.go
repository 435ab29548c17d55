package gpio

import (
	"errors"
	"sync"

	"github.com/sweeney/traffic-light/internal/logic"
)

// FakeLights records lamp duties.
type FakeLights struct {
	mu      sync.Mutex
	duties  [3]uint8
	history []DutyWrite

	// Closed tracks if Close was called
	Closed bool
}

// DutyWrite is one recorded SetDuty call.
type DutyWrite struct {
	Color logic.Color
	Duty  uint8
}

func NewFakeLights() *FakeLights {
	return &FakeLights{}
}

func (f *FakeLights) SetDuty(c logic.Color, duty uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duties[c] = duty
	f.history = append(f.history, DutyWrite{Color: c, Duty: duty})
}

// Duties returns the current duty of each lamp.
func (f *FakeLights) Duties() [3]uint8 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duties
}

// History returns every write in order.
func (f *FakeLights) History() []DutyWrite {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]DutyWrite(nil), f.history...)
}

// Close turns everything off and marks the lights closed.
func (f *FakeLights) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.duties = [3]uint8{}
	f.Closed = true
	return nil
}

// FakeAnalog is a test double that returns scripted readings.
type FakeAnalog struct {
	mu sync.Mutex

	// Values contains scripted readings. Each call to Read() consumes the
	// next one; the last value repeats.
	Values []int
	index  int

	// ReadError, if set, will be returned by Read()
	ReadError error
}

func NewFakeAnalog(values ...int) *FakeAnalog {
	return &FakeAnalog{Values: values}
}

func (f *FakeAnalog) Read() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	if len(f.Values) == 0 {
		return 0, errors.New("no values configured")
	}
	v := f.Values[f.index]
	if f.index < len(f.Values)-1 {
		f.index++
	}
	return v, nil
}

// Set replaces the script with a single constant reading.
func (f *FakeAnalog) Set(v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Values = []int{v}
	f.index = 0
}

func (f *FakeAnalog) Close() error { return nil }

// FakeButtons is a LevelReader returning scripted button levels.
type FakeButtons struct {
	Samples   [][3]bool
	index     int
	ReadError error
	Closed    bool
}

func NewFakeButtons(samples ...[3]bool) *FakeButtons {
	return &FakeButtons{Samples: samples}
}

func (f *FakeButtons) Read() ([3]bool, error) {
	if f.ReadError != nil {
		return [3]bool{}, f.ReadError
	}
	if len(f.Samples) == 0 {
		return [3]bool{}, errors.New("no samples configured")
	}
	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

func (f *FakeButtons) Close() error {
	f.Closed = true
	return nil
}
