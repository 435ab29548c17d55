package logic

import "github.com/sweeney/traffic-light/internal/scheduler"

// The phase ring. Each stage arms exactly one successor, so while no mode is
// active the ring neither stalls nor forks. Every stage is a no-op under an
// override; whatever it had armed stays armed and fires as a no-op too.

func (c *Controller) overridden() bool {
	return c.state.Mode != ModeNormal
}

func (c *Controller) enterPhase(p Phase) {
	if p == PhaseRed && c.state.Phase == PhaseYellow2 {
		c.counts.Cycles++
	}
	c.state.Phase = p
	c.obs.PhaseEntered(p)
}

func (c *Controller) runRed(*scheduler.Task) {
	if c.overridden() {
		return
	}
	c.enterPhase(PhaseRed)
	c.light(Red)
	c.tYellow.RestartDelayed(c.tRed.Interval() - redLead)
	c.sink.Notice("Red is running...")
}

func (c *Controller) runYellow(*scheduler.Task) {
	if c.overridden() {
		return
	}
	c.enterPhase(PhaseYellow)
	c.light(Yellow)
	c.tGreen.RestartDelayed(c.tYellow.Interval() - yellowLead)
	c.sink.Notice("Yellow is running...")
}

func (c *Controller) runGreen(*scheduler.Task) {
	if c.overridden() {
		return
	}
	c.enterPhase(PhaseGreen)
	c.greenOn = true
	c.light(Green)
	c.tBlinkGreen.RestartDelayed(c.tGreen.Interval() - greenLead)
	c.sink.Notice("Green is running...")
}

func (c *Controller) runBlinkGreen(t *scheduler.Task) {
	if c.overridden() {
		return
	}
	if c.state.Phase != PhaseBlinkGreen {
		c.enterPhase(PhaseBlinkGreen)
	}
	c.greenOn = !c.greenOn
	if c.greenOn {
		c.light(Green)
		c.sink.Notice("Green Blinking: ON")
	} else {
		c.light()
		c.sink.Notice("Green Blinking: OFF")
	}
	if t.IsLastIteration() {
		c.tFinishGreen.RestartDelayed(finishDelay)
	}
}

func (c *Controller) runFinishGreen(*scheduler.Task) {
	if c.overridden() {
		return
	}
	c.enterPhase(PhaseFinishGreen)
	c.sink.Notice("Green OFF, switching to Red")
	c.light()
	c.tYellow2.RestartDelayed(yellow2Delay)
}

func (c *Controller) runYellow2(*scheduler.Task) {
	if c.overridden() {
		return
	}
	c.enterPhase(PhaseYellow2)
	c.light(Yellow)
	c.tRed.RestartDelayed(c.tYellow2.Interval() - yellowLead)
	c.sink.Notice("Yellow2 is running...")
}

// discardRing disarms every phase task so a restarted Red is the only chain.
func (c *Controller) discardRing() {
	for _, t := range []*scheduler.Task{c.tRed, c.tYellow, c.tGreen, c.tBlinkGreen, c.tFinishGreen, c.tYellow2} {
		t.Disable()
	}
}
