// Package reminder nags the user to log time while the stopwatch is idle.
package reminder

import "time"

// Message is the banner text shown when the reminder fires.
const Message = "Reminder: don't forget to log the time you're working"

// DefaultInterval is how long the stopwatch may sit idle between reminders.
const DefaultInterval = 30 * time.Minute

// Reminder is a fixed-interval alarm that only counts down while the
// stopwatch is not running. It is driven by the shell's one-second tick.
type Reminder struct {
	interval time.Duration
	running  bool
	deadline time.Time
	visible  bool
}

// New returns a reminder armed at now. A non-positive interval disables it.
func New(interval time.Duration, now time.Time) *Reminder {
	r := &Reminder{interval: interval}
	r.arm(now)
	return r
}

func (r *Reminder) arm(now time.Time) {
	if r.interval <= 0 || r.running {
		r.deadline = time.Time{}
		return
	}
	r.deadline = now.Add(r.interval)
}

// SetRunning tells the reminder whether the stopwatch is running. Any change
// restarts the interval; starting the stopwatch also hides the banner.
func (r *Reminder) SetRunning(running bool, now time.Time) {
	if running == r.running {
		return
	}
	r.running = running
	if running {
		r.visible = false
	}
	r.arm(now)
}

// Tick fires the reminder once the deadline passes and re-arms it for the
// next interval. It reports whether the reminder fired.
func (r *Reminder) Tick(now time.Time) bool {
	if r.running || r.deadline.IsZero() || now.Before(r.deadline) {
		return false
	}
	r.visible = true
	r.arm(now)
	return true
}

// Visible reports whether the banner should be shown.
func (r *Reminder) Visible() bool { return r.visible }

// Dismiss hides the banner without touching the countdown.
func (r *Reminder) Dismiss() { r.visible = false }

// Remaining is the time until the next reminder, or zero when disarmed.
func (r *Reminder) Remaining(now time.Time) time.Duration {
	if r.deadline.IsZero() {
		return 0
	}
	return max(r.deadline.Sub(now), 0)
}
