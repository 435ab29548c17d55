// Package gpio connects the controller to hardware: three push buttons, three
// lamps and an analog brightness input. Buttons and digital lamps use the
// Linux GPIO character device; dimmable lamps use sysfs PWM channels and the
// analog input is an IIO raw file. Fakes allow testing without hardware.
package gpio

import (
	"github.com/sweeney/traffic-light/internal/logging"
	"github.com/sweeney/traffic-light/internal/logic"
)

var log = logging.GetLogger("gpio")

// Lights drives the three lamps.
type Lights interface {
	// SetDuty sets a lamp's duty, 0 (off) to 255 (full).
	SetDuty(c logic.Color, duty uint8)

	// Close turns the lamps off and releases them.
	Close() error
}

// Analog reads the raw brightness input.
type Analog interface {
	Read() (int, error)
	Close() error
}

// LevelReader reads the logical button levels (true = pressed).
type LevelReader interface {
	Read() ([3]bool, error)
	Close() error
}

// Pin definitions (BCM numbering)
var (
	DefaultButtonPins = [3]int{5, 6, 13}  // BTN1, BTN2, BTN3
	DefaultLampPins   = [3]int{17, 27, 22} // red, yellow, green
)

// DefaultChip is the GPIO character device used unless configured otherwise.
const DefaultChip = "gpiochip0"
