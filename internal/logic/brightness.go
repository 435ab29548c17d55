package logic

import "github.com/sweeney/traffic-light/internal/scheduler"

// Scale maps a raw analog reading in [0, full] linearly onto [0, 255].
// Readings outside the range are clamped.
func Scale(raw, full int) uint8 {
	if full <= 0 {
		return 255
	}
	if raw <= 0 {
		return 0
	}
	if raw >= full {
		return 255
	}
	return uint8(raw * 255 / full)
}

// runSample reads the analog input and rescales whichever lamps are lit:
// red in Red-Hold, all three while Blink-All is on, none in Power-Off and the
// phase's own lamp otherwise. A failed read keeps the previous brightness.
func (c *Controller) runSample(*scheduler.Task) {
	if c.analog != nil {
		raw, err := c.analog.Read()
		if err != nil {
			c.counts.SampleErrors++
			c.obs.SampleFailed(err)
		} else {
			c.brightness = Scale(raw, c.analogMax)
		}
	}
	c.apply()
	c.emitStatus()
}
