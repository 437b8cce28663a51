package game

import "time"

// SpawnTask is a cancellable recurring task polled by the frame loop.
// It never runs on its own goroutine: Due is called once per frame and
// reports whether the task fired.
type SpawnTask struct {
	interval time.Duration
	next     time.Time
	armed    bool
	fired    uint64
}

// Arm cancels any pending schedule and starts a new one at the given cadence.
// The first fire happens one interval after now.
func (t *SpawnTask) Arm(now time.Time, interval time.Duration) {
	t.Cancel()
	if interval <= 0 {
		return
	}
	t.interval = interval
	t.next = now.Add(interval)
	t.armed = true
}

// Cancel stops the task. Due reports false until the next Arm.
func (t *SpawnTask) Cancel() {
	t.armed = false
}

// Armed reports whether the task is scheduled.
func (t *SpawnTask) Armed() bool {
	return t.armed
}

// Interval returns the cadence of the current schedule.
func (t *SpawnTask) Interval() time.Duration {
	return t.interval
}

// Fired returns how many times the task has fired since creation.
func (t *SpawnTask) Fired() uint64 {
	return t.fired
}

// Due reports whether the task should run at now. It fires at most once per
// call; a loop that fell behind skips the missed fires instead of bursting.
func (t *SpawnTask) Due(now time.Time) bool {
	if !t.armed || now.Before(t.next) {
		return false
	}

	// Drift-free advance
	t.next = t.next.Add(t.interval)
	if t.next.Before(now) {
		// Catch up if we're behind
		t.next = now.Add(t.interval)
	}
	t.fired++
	return true
}
