// Package stopwatch implements the elapsed-time state machine behind the
// timer view. It counts whole seconds by polling: the caller drives Tick once
// per second while the stopwatch runs.
package stopwatch

import "time"

// State is the derived state of a Stopwatch.
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Paused:
		return "paused"
	default:
		return "idle"
	}
}

// Report is a completed measurement handed to the caller on stop.
type Report struct {
	Elapsed int64
	Anchor  time.Time
}

// Stopwatch holds the elapsed seconds, the running flag and the anchor
// instant from which a running measurement is counted. The zero value is an
// idle stopwatch using the wall clock.
type Stopwatch struct {
	elapsed int64
	running bool
	anchor  *time.Time

	// Now is the clock. nil means time.Now.
	Now func() time.Time
}

// New returns an idle stopwatch reading the given clock.
func New(now func() time.Time) *Stopwatch {
	return &Stopwatch{Now: now}
}

func (w *Stopwatch) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

// Elapsed returns the accumulated seconds.
func (w *Stopwatch) Elapsed() int64 { return w.elapsed }

// Running reports whether ticks advance the stopwatch.
func (w *Stopwatch) Running() bool { return w.running }

// Anchor returns the anchor instant, if any.
func (w *Stopwatch) Anchor() (time.Time, bool) {
	if w.anchor == nil {
		return time.Time{}, false
	}
	return *w.anchor, true
}

// State derives Idle, Running or Paused from the current fields.
func (w *Stopwatch) State() State {
	switch {
	case w.running:
		return Running
	case w.elapsed > 0 || w.anchor != nil:
		return Paused
	default:
		return Idle
	}
}

// Start begins or resumes counting. A running stopwatch is left alone. An
// existing anchor is kept; otherwise the anchor is set to now minus elapsed.
func (w *Stopwatch) Start() {
	if w.running {
		return
	}
	if w.anchor == nil {
		a := w.now().Add(-time.Duration(w.elapsed) * time.Second)
		w.anchor = &a
	}
	w.running = true
}

// Tick advances a running stopwatch by one second.
func (w *Stopwatch) Tick() {
	if w.running {
		w.elapsed++
	}
}

// Pause stops counting and keeps elapsed and anchor.
func (w *Stopwatch) Pause() {
	w.running = false
}

// Finalize stops the stopwatch, returns the elapsed seconds and resets it.
func (w *Stopwatch) Finalize() int64 {
	w.running = false
	elapsed := w.elapsed
	w.Reset()
	return elapsed
}

// Reset returns the stopwatch to idle.
func (w *Stopwatch) Reset() {
	w.running = false
	w.elapsed = 0
	w.anchor = nil
}

// AddManual adds h hours, m minutes and s seconds. Negative parts count as
// zero and an all-zero addition is ignored. While running the anchor is moved
// so that now minus anchor still equals elapsed. It reports whether any time
// was added.
func (w *Stopwatch) AddManual(h, m, s int64) bool {
	h, m, s = max(h, 0), max(m, 0), max(s, 0)
	add := h*3600 + m*60 + s
	if add == 0 {
		return false
	}
	w.elapsed += add
	if w.running {
		a := w.now().Add(-time.Duration(w.elapsed) * time.Second)
		w.anchor = &a
	}
	return true
}

// StopAndSave stops the stopwatch and, when there is something to save,
// returns the elapsed seconds and anchor. The stopwatch is reset either way.
func (w *Stopwatch) StopAndSave() (Report, bool) {
	w.running = false
	var (
		r  Report
		ok bool
	)
	if w.elapsed > 0 && w.anchor != nil {
		r = Report{Elapsed: w.elapsed, Anchor: *w.anchor}
		ok = true
	}
	w.Reset()
	return r, ok
}
