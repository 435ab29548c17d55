// Package scheduler is a cooperative task scheduler.
//
// Tasks are plain callbacks with a deadline. Nothing here starts goroutines or
// sleeps: the owner calls Execute from its loop and every task whose deadline
// has elapsed runs to completion on the caller's goroutine. Time comes from an
// injected clock so tests can step it.
package scheduler

import "time"

// Iteration counts accepted by Add.
const (
	Forever = -1
	Once    = 1
)

// Scheduler owns a fixed, ordered set of tasks.
// Not safe for concurrent use; all calls must come from the loop goroutine.
type Scheduler struct {
	clock func() time.Time
	tasks []*Task

	// Set during Execute so every task armed in a pass is measured from the
	// same instant.
	inPass  bool
	passNow time.Time
}

// New creates a Scheduler reading time from clock.
func New(clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{clock: clock}
}

// Now returns the scheduler's current time. Inside Execute it is the time
// the pass started.
func (s *Scheduler) Now() time.Time {
	if s.inPass {
		return s.passNow
	}
	return s.clock()
}

// Add registers a disabled task. iterations is Once, Forever or any N > 0.
// Registration order is the order Execute examines tasks in.
func (s *Scheduler) Add(name string, interval time.Duration, iterations int, fn func(*Task)) *Task {
	if iterations == 0 || iterations < Forever {
		iterations = Once
	}
	t := &Task{
		name:       name,
		sched:      s,
		fn:         fn,
		interval:   interval,
		iterations: iterations,
		remaining:  iterations,
	}
	s.tasks = append(s.tasks, t)
	return t
}

// Execute makes one pass over all tasks in registration order and fires every
// enabled task whose deadline is not after now. It returns the number of
// callbacks run.
//
// A callback may arm other tasks. Arming inside a pass measures delays from
// the pass's start time, so a task armed with no delay that sits later in the
// order fires in this same pass; one earlier in the order waits for the next
// pass.
func (s *Scheduler) Execute() int {
	now := s.clock()
	s.inPass, s.passNow = true, now
	defer func() { s.inPass = false }()

	fired := 0
	for _, t := range s.tasks {
		if !t.enabled || now.Before(t.deadline) {
			continue
		}
		t.fire(now)
		fired++
	}
	return fired
}

// Next returns the earliest pending deadline, or false when nothing is armed.
func (s *Scheduler) Next() (time.Time, bool) {
	var next time.Time
	found := false
	for _, t := range s.tasks {
		if !t.enabled {
			continue
		}
		if !found || t.deadline.Before(next) {
			next = t.deadline
			found = true
		}
	}
	return next, found
}
