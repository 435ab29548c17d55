package logic

import "time"

// HandleLine parses and applies one command line. Unknown and invalid lines
// change nothing; the returned error says why, and callers reading a serial
// line normally ignore it.
func (c *Controller) HandleLine(line string) error {
	cmd, err := ParseCommand(line)
	if err == nil {
		err = cmd.Validate(c.limits)
	}
	if err != nil {
		c.counts.CommandsRejected++
		c.obs.CommandRejected(line, err)
		return err
	}
	c.Apply(cmd)
	return nil
}

// Apply executes a parsed command without validating it.
func (c *Controller) Apply(cmd Command) {
	switch cmd.Kind {
	case CommandButton:
		c.Toggle(cmd.Button)
	case CommandSetDuration:
		c.setDuration(cmd.Color, cmd.Duration)
	default:
		return
	}
	c.counts.CommandsApplied++
	c.obs.CommandApplied(cmd)
}

// setDuration reprograms the phase task(s) that hold a color. The new value
// sizes the next hand-off out of that color; nothing already armed moves and
// no extra chain is started.
func (c *Controller) setDuration(col Color, d time.Duration) {
	switch col {
	case Red:
		c.tRed.SetInterval(d)
	case Yellow:
		c.tYellow.SetInterval(d)
		c.tYellow2.SetInterval(d)
	case Green:
		c.tGreen.SetInterval(d)
	}
}
