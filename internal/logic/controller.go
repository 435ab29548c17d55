package logic

import (
	"sync/atomic"
	"time"

	"github.com/sweeney/traffic-light/internal/scheduler"
)

// Fixed timings of the ring and the periodic tasks.
const (
	redLead        = 100 * time.Millisecond // Red hands off this long before its duration ends
	yellowLead     = 10 * time.Millisecond
	greenLead      = 100 * time.Millisecond
	blinkCount     = 6
	blinkPeriod    = 300 * time.Millisecond
	finishDelay    = 90 * time.Millisecond
	yellow2Delay   = 90 * time.Millisecond
	blinkAllPeriod = 500 * time.Millisecond
	samplePeriod   = 200 * time.Millisecond
	statusPeriod   = 500 * time.Millisecond
)

// DefaultAnalogMax is the full-scale reading of a 10-bit ADC.
const DefaultAnalogMax = 1023

// Output drives the lamps. Implementations log their own I/O errors; the
// controller never waits on hardware.
type Output interface {
	SetDuty(c Color, duty uint8)
}

// Analog reads the raw brightness input.
type Analog interface {
	Read() (int, error)
}

// Sink receives the controller's line output.
type Sink interface {
	// Status receives every status emission.
	Status(s Status)
	// Notice receives the human-readable stage and mode messages.
	Notice(msg string)
}

// Observer is told about controller activity. Calls happen on the loop
// goroutine and must not block.
type Observer interface {
	PhaseEntered(p Phase)
	ModeChanged(from, to Mode)
	CommandApplied(cmd Command)
	CommandRejected(line string, err error)
	SampleFailed(err error)
}

// NopObserver ignores everything.
type NopObserver struct{}

func (NopObserver) PhaseEntered(Phase) {}
func (NopObserver) ModeChanged(Mode, Mode) {}
func (NopObserver) CommandApplied(Command) {}
func (NopObserver) CommandRejected(string, error) {}
func (NopObserver) SampleFailed(error) {}

type nopSink struct{}

func (nopSink) Status(Status) {}
func (nopSink) Notice(string) {}

// Config configures a Controller. Zero fields take defaults.
type Config struct {
	Durations        Durations
	Limits           Limits
	AnalogMax        int
	ButtonQueueSize  int
	CommandQueueSize int
	Observer         Observer
}

// Controller runs the phase ring, the override modes, the brightness sampler
// and the status/command glue on a cooperative scheduler.
//
// Everything except Post and Submit must be called from the loop goroutine.
type Controller struct {
	sched     *scheduler.Scheduler
	out       Output
	analog    Analog
	sink      Sink
	obs       Observer
	limits    Limits
	analogMax int

	state      State
	lit        [3]bool
	duties     [3]uint8
	written    [3]bool
	brightness uint8
	greenOn    bool
	blinkOn    bool
	counts     Counts

	buttons  chan Button
	commands chan string
	dropped  atomic.Uint64

	tRed         *scheduler.Task
	tYellow      *scheduler.Task
	tGreen       *scheduler.Task
	tBlinkGreen  *scheduler.Task
	tFinishGreen *scheduler.Task
	tYellow2     *scheduler.Task
	tBlinkAll    *scheduler.Task
	tSample      *scheduler.Task
	tStatus      *scheduler.Task
}

// NewController creates a stopped controller. Call Start before the first Tick.
func NewController(clock func() time.Time, out Output, analog Analog, sink Sink, cfg Config) *Controller {
	if cfg.Durations == (Durations{}) {
		cfg.Durations = DefaultDurations()
	}
	if cfg.Limits == (Limits{}) {
		cfg.Limits = DefaultLimits()
	}
	if cfg.AnalogMax <= 0 {
		cfg.AnalogMax = DefaultAnalogMax
	}
	if cfg.ButtonQueueSize <= 0 {
		cfg.ButtonQueueSize = 16
	}
	if cfg.CommandQueueSize <= 0 {
		cfg.CommandQueueSize = 32
	}
	if cfg.Observer == nil {
		cfg.Observer = NopObserver{}
	}
	if sink == nil {
		sink = nopSink{}
	}

	c := &Controller{
		sched:      scheduler.New(clock),
		out:        out,
		analog:     analog,
		sink:       sink,
		obs:        cfg.Observer,
		limits:     cfg.Limits,
		analogMax:  cfg.AnalogMax,
		brightness: 255,
		buttons:    make(chan Button, cfg.ButtonQueueSize),
		commands:   make(chan string, cfg.CommandQueueSize),
	}

	// Registration order is execution order within a pass.
	c.tRed = c.sched.Add("red", cfg.Durations.Red, scheduler.Once, c.runRed)
	c.tYellow = c.sched.Add("yellow", cfg.Durations.Yellow, scheduler.Once, c.runYellow)
	c.tGreen = c.sched.Add("green", cfg.Durations.Green, scheduler.Once, c.runGreen)
	c.tBlinkGreen = c.sched.Add("blink-green", blinkPeriod, blinkCount, c.runBlinkGreen)
	c.tFinishGreen = c.sched.Add("finish-green", finishDelay, scheduler.Once, c.runFinishGreen)
	c.tYellow2 = c.sched.Add("yellow2", cfg.Durations.Yellow, scheduler.Once, c.runYellow2)
	c.tBlinkAll = c.sched.Add("blink-all", blinkAllPeriod, scheduler.Forever, c.runBlinkAll)
	c.tSample = c.sched.Add("brightness", samplePeriod, scheduler.Forever, c.runSample)
	c.tStatus = c.sched.Add("status", statusPeriod, scheduler.Forever, c.runStatus)

	return c
}

// Start turns all lamps off and arms Red, the sampler and the status task to
// fire on the first tick.
func (c *Controller) Start() {
	c.apply()
	c.tRed.Enable()
	c.tSample.Enable()
	c.tStatus.Enable()
}

// Tick is one loop iteration: drain queued button events, handle at most one
// command line, then run every due task. It returns the number of tasks fired.
func (c *Controller) Tick() int {
	for drained := false; !drained; {
		select {
		case b := <-c.buttons:
			c.Toggle(b)
		default:
			drained = true
		}
	}

	select {
	case line := <-c.commands:
		_ = c.HandleLine(line)
	default:
	}

	return c.sched.Execute()
}

// Post queues a button event. It never blocks and is safe to call from any
// goroutine, including GPIO event handlers. It reports false when the queue
// is full and the event was dropped.
func (c *Controller) Post(b Button) bool {
	select {
	case c.buttons <- b:
		return true
	default:
		c.dropped.Add(1)
		return false
	}
}

// Submit queues a command line for a later Tick. Safe from any goroutine;
// reports false when the queue is full.
func (c *Controller) Submit(line string) bool {
	select {
	case c.commands <- line:
		return true
	default:
		return false
	}
}

// NextDeadline returns when the next task is due.
func (c *Controller) NextDeadline() (time.Time, bool) {
	return c.sched.Next()
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// Brightness returns the last sampled brightness.
func (c *Controller) Brightness() uint8 { return c.brightness }

// Duties returns the duty last written to each lamp.
func (c *Controller) Duties() [3]uint8 { return c.duties }

// Durations returns the current hold times.
func (c *Controller) Durations() Durations {
	return Durations{
		Red:    c.tRed.Interval(),
		Yellow: c.tYellow.Interval(),
		Green:  c.tGreen.Interval(),
	}
}

// Status returns the current status line content.
func (c *Controller) Status() Status {
	return Status{
		Mode:       c.state.Mode,
		LED:        LEDName(c.state),
		Brightness: c.brightness,
	}
}

// Snapshot returns a copy of the controller state for display.
func (c *Controller) Snapshot() Snapshot {
	counts := c.counts
	counts.ButtonsDropped = c.dropped.Load()
	return Snapshot{
		State:      c.state,
		LED:        LEDName(c.state),
		Brightness: c.brightness,
		Duties:     c.duties,
		Durations:  c.Durations(),
		Counts:     counts,
	}
}

func (c *Controller) emitStatus() {
	c.sink.Status(c.Status())
}

func (c *Controller) runStatus(*scheduler.Task) {
	c.emitStatus()
}

// light makes exactly the given lamps lit.
func (c *Controller) light(colors ...Color) {
	c.lit = [3]bool{}
	for _, col := range colors {
		c.lit[col] = true
	}
	c.apply()
}

// apply writes brightness to lit lamps and zero to the rest, skipping lamps
// whose duty is unchanged.
func (c *Controller) apply() {
	for _, col := range Colors {
		var duty uint8
		if c.lit[col] {
			duty = c.brightness
		}
		if c.written[col] && c.duties[col] == duty {
			continue
		}
		c.duties[col] = duty
		c.written[col] = true
		if c.out != nil {
			c.out.SetDuty(col, duty)
		}
	}
}
