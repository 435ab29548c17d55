//go:build !linux

package gpio

import (
	"errors"
	"time"

	"github.com/sweeney/traffic-light/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// ButtonWatcher is not available on non-Linux platforms.
type ButtonWatcher struct{}

// WatchButtons returns an error on non-Linux platforms.
func WatchButtons(string, [3]int, time.Duration, func(logic.Button)) (*ButtonWatcher, error) {
	return nil, errUnsupported
}

func (w *ButtonWatcher) Close() error { return nil }

// ButtonReader is not available on non-Linux platforms.
type ButtonReader struct{}

// NewButtonReader returns an error on non-Linux platforms.
func NewButtonReader(string, [3]int) (*ButtonReader, error) {
	return nil, errUnsupported
}

func (r *ButtonReader) Read() ([3]bool, error) { return [3]bool{}, errUnsupported }
func (r *ButtonReader) Close() error           { return nil }

// DigitalLights is not available on non-Linux platforms.
type DigitalLights struct{}

// NewDigitalLights returns an error on non-Linux platforms.
func NewDigitalLights(string, [3]int) (*DigitalLights, error) {
	return nil, errUnsupported
}

func (d *DigitalLights) SetDuty(logic.Color, uint8) {}
func (d *DigitalLights) Close() error               { return nil }
