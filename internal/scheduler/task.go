package scheduler

import "time"

// Task is a unit of deferred or periodic work.
type Task struct {
	name  string
	sched *Scheduler
	fn    func(*Task)

	interval   time.Duration
	iterations int // configured: Forever or N > 0
	remaining  int // Forever never reaches 0
	enabled    bool
	deadline   time.Time
	runs       int

	// armSeq changes on every (re)arm so fire can tell whether the
	// callback re-armed its own task.
	armSeq uint64
}

// Name returns the task's name.
func (t *Task) Name() string { return t.name }

// Interval returns the period between iterations.
func (t *Task) Interval() time.Duration { return t.interval }

// Enabled reports whether the task is armed.
func (t *Task) Enabled() bool { return t.enabled }

// Deadline returns the time of the next fire. Meaningless when disabled.
func (t *Task) Deadline() time.Time { return t.deadline }

// RunCount returns the number of callbacks run since the last (re)arm.
func (t *Task) RunCount() int { return t.runs }

// Remaining returns the iterations left, or Forever.
func (t *Task) Remaining() int { return t.remaining }

// Enable arms a disabled task to fire on the next pass. Enabling an enabled
// task does nothing.
func (t *Task) Enable() {
	if t.enabled {
		return
	}
	t.arm(0)
}

// EnableDelayed arms the task to fire first after delay, then every interval.
func (t *Task) EnableDelayed(delay time.Duration) {
	t.arm(delay)
}

// Disable stops the task. Interval and iteration settings are kept.
func (t *Task) Disable() {
	t.enabled = false
}

// SetInterval changes the period used after the next fire. A pending deadline
// is left alone; the new value takes effect from the next arm or iteration.
func (t *Task) SetInterval(d time.Duration) {
	t.interval = d
}

// Restart resets the iteration counter and fires on the next pass.
func (t *Task) Restart() {
	t.arm(0)
}

// RestartDelayed resets the iteration counter and fires first after delay,
// regardless of the configured interval.
func (t *Task) RestartDelayed(delay time.Duration) {
	t.arm(delay)
}

// IsLastIteration reports whether the running callback is the final one of a
// finite task.
func (t *Task) IsLastIteration() bool {
	return t.iterations != Forever && t.remaining == 0
}

func (t *Task) arm(delay time.Duration) {
	t.enabled = true
	t.remaining = t.iterations
	t.runs = 0
	t.deadline = t.sched.Now().Add(delay)
	t.armSeq++
}

func (t *Task) fire(now time.Time) {
	seq := t.armSeq
	if t.remaining > 0 {
		t.remaining--
	}
	t.runs++
	// Periodic tasks keep their phase when a pass runs late. After a stall
	// longer than a period they restart from now instead of bursting.
	t.deadline = t.deadline.Add(t.interval)
	if !t.deadline.After(now) {
		t.deadline = now.Add(t.interval)
	}
	if t.fn != nil {
		t.fn(t)
	}
	if t.armSeq == seq && t.remaining == 0 {
		t.enabled = false
	}
}
