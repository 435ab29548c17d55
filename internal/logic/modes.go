package logic

import "github.com/sweeney/traffic-light/internal/scheduler"

// Toggle applies one button event: it enters the button's mode, or leaves it
// when already active. Entering a mode replaces any other mode. Leaving
// returns to the ring at Red, which fires on the next pass.
func (c *Controller) Toggle(b Button) {
	target := b.Mode()
	if target == ModeNormal {
		return
	}

	from := c.state.Mode
	if from == target {
		c.exitMode(target)
	} else {
		c.enterMode(target)
	}

	c.counts.ModeChanges++
	c.obs.ModeChanged(from, c.state.Mode)
	c.emitStatus()
}

func (c *Controller) enterMode(m Mode) {
	c.state = State{Mode: m}

	switch m {
	case ModeRedHold:
		c.tBlinkAll.Disable()
		c.sink.Notice("Red Mode: ON")
		c.light(Red)
	case ModeBlinkAll:
		c.tRed.Disable()
		c.sink.Notice("Blink Mode: ON")
		c.light()
		c.blinkOn = false
		c.tBlinkAll.Restart()
	case ModePowerOff:
		c.tRed.Disable()
		c.tBlinkAll.Disable()
		c.sink.Notice("Power OFF")
		c.light()
	}
}

func (c *Controller) exitMode(m Mode) {
	c.state = State{Mode: ModeNormal, Phase: PhaseNone}

	switch m {
	case ModeRedHold:
		c.sink.Notice("Red Mode: OFF")
	case ModeBlinkAll:
		c.tBlinkAll.Disable()
		c.sink.Notice("Blink Mode: OFF")
	case ModePowerOff:
		c.sink.Notice("Power ON")
	}

	c.discardRing()
	c.tRed.Restart()
}

func (c *Controller) runBlinkAll(*scheduler.Task) {
	if c.state.Mode != ModeBlinkAll {
		return
	}
	c.blinkOn = !c.blinkOn
	if c.blinkOn {
		c.light(Red, Yellow, Green)
		c.sink.Notice("Blink Mode: ON")
	} else {
		c.light()
		c.sink.Notice("Blink Mode: OFF")
	}
}
