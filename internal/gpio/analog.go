package gpio

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DefaultAnalogPath is the first channel of the first IIO ADC.
const DefaultAnalogPath = "/sys/bus/iio/devices/iio:device0/in_voltage0_raw"

// IIOAnalog reads an ADC channel through its sysfs raw file.
type IIOAnalog struct {
	path string
}

// NewIIOAnalog checks that path is readable and returns a reader for it.
func NewIIOAnalog(path string) (*IIOAnalog, error) {
	a := &IIOAnalog{path: path}
	if _, err := a.Read(); err != nil {
		return nil, err
	}
	return a, nil
}

// Read returns the raw reading.
func (a *IIOAnalog) Read() (int, error) {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return 0, fmt.Errorf("read analog input: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse analog input %q: %w", strings.TrimSpace(string(data)), err)
	}
	return v, nil
}

// Close is a no-op; the file is reopened on every read.
func (a *IIOAnalog) Close() error { return nil }

// FixedAnalog always reads the same value. It stands in for the sensor in
// simulation and when no ADC is present.
type FixedAnalog int

// Read returns the fixed value.
func (a FixedAnalog) Read() (int, error) { return int(a), nil }

// Close is a no-op.
func (a FixedAnalog) Close() error { return nil }
