//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/traffic-light/internal/logic"
)

// ButtonWatcher delivers button presses from kernel edge events. Buttons are
// active low with pull-ups, so a press is a falling edge.
type ButtonWatcher struct {
	lines   *gpiocdev.Lines
	offsets [3]int
}

// WatchButtons requests the three button lines with falling-edge detection and
// kernel debounce. post is called from the gpiocdev event goroutine and must
// not block; Controller.Post satisfies that.
func WatchButtons(chip string, offsets [3]int, debounce time.Duration, post func(logic.Button)) (*ButtonWatcher, error) {
	w := &ButtonWatcher{offsets: offsets}

	opts := []gpiocdev.LineReqOption{
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type != gpiocdev.LineEventFallingEdge {
				return
			}
			if b, ok := w.button(evt.Offset); ok {
				log.Debug("Button pressed", "button", b, "offset", evt.Offset, "seqno", evt.Seqno)
				post(b)
			}
		}),
	}
	if debounce > 0 {
		opts = append(opts, gpiocdev.WithDebounce(debounce))
	}

	lines, err := gpiocdev.RequestLines(chip, offsets[:], opts...)
	if err != nil {
		return nil, fmt.Errorf("request button lines %v: %w", offsets, err)
	}
	w.lines = lines
	return w, nil
}

func (w *ButtonWatcher) button(offset int) (logic.Button, bool) {
	for i, o := range w.offsets {
		if o == offset {
			return logic.Button(i + 1), true
		}
	}
	return 0, false
}

// Close stops event delivery and releases the lines.
func (w *ButtonWatcher) Close() error {
	if w.lines == nil {
		return nil
	}
	if err := w.lines.Close(); err != nil {
		return fmt.Errorf("close button lines: %w", err)
	}
	return nil
}

// ButtonReader polls the button levels. It is used by print-state and by the
// polled input mode, where presses come from logic.Debouncer instead of edge
// events.
type ButtonReader struct {
	lines *gpiocdev.Lines
}

// NewButtonReader requests the button lines as pulled-up inputs.
func NewButtonReader(chip string, offsets [3]int) (*ButtonReader, error) {
	lines, err := gpiocdev.RequestLines(chip, offsets[:], gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request button lines %v: %w", offsets, err)
	}
	return &ButtonReader{lines: lines}, nil
}

// Read returns the logical levels. Raw low (0) = pressed.
func (r *ButtonReader) Read() ([3]bool, error) {
	var pressed [3]bool
	raw := make([]int, 3)
	if err := r.lines.Values(raw); err != nil {
		return pressed, fmt.Errorf("read button lines: %w", err)
	}
	for i, v := range raw {
		pressed[i] = v == 0
	}
	return pressed, nil
}

// Close releases the lines.
func (r *ButtonReader) Close() error {
	return r.lines.Close()
}

// DigitalLights switches lamps fully on or off through GPIO outputs. Any
// non-zero duty lights the lamp.
type DigitalLights struct {
	lines [3]*gpiocdev.Line
}

// NewDigitalLights requests the three lamp lines as outputs, initially off.
func NewDigitalLights(chip string, offsets [3]int) (*DigitalLights, error) {
	d := &DigitalLights{}
	for i, off := range offsets {
		l, err := gpiocdev.RequestLine(chip, off, gpiocdev.AsOutput(0))
		if err != nil {
			d.Close()
			return nil, fmt.Errorf("request %s lamp pin %d: %w", logic.Colors[i], off, err)
		}
		d.lines[i] = l
	}
	return d, nil
}

// SetDuty implements Lights.
func (d *DigitalLights) SetDuty(c logic.Color, duty uint8) {
	v := 0
	if duty > 0 {
		v = 1
	}
	if err := d.lines[c].SetValue(v); err != nil {
		log.Warn("Failed to set lamp", "lamp", c, "error", err)
	}
}

// Close turns the lamps off and reconfigures the pins as inputs, matching
// the Pi boot defaults, before releasing them.
func (d *DigitalLights) Close() error {
	var errs []error
	for i, l := range d.lines {
		if l == nil {
			continue
		}
		if err := l.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("turn off %s: %w", logic.Colors[i], err))
		}
		if err := l.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", logic.Colors[i], err))
		}
		if err := l.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", logic.Colors[i], err))
		}
		d.lines[i] = nil
	}
	return errors.Join(errs...)
}
