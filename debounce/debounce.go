// Package debounce coalesces bursts of change notifications into a single
// trailing-edge firing. Schedule is the pure form used to reason about a
// sequence of notification times; Timer is the runtime form driven from a
// select loop.
package debounce

import "time"

// Schedule returns the instants at which a trailing-edge debounce with the
// given quiet period fires for notifications arriving at times, which must be
// ascending. A notification followed by another less than quiet later is
// absorbed; each burst fires once, quiet after its last notification.
func Schedule(times []time.Time, quiet time.Duration) []time.Time {
	var fires []time.Time
	for i, t := range times {
		if i+1 < len(times) && times[i+1].Sub(t) < quiet {
			continue
		}
		fires = append(fires, t.Add(quiet))
	}
	return fires
}

// Timer is a restartable trailing-edge timer. It is owned by one goroutine:
// call Notify for every change, select on C, and call Fired after receiving.
type Timer struct {
	quiet time.Duration
	t     *time.Timer
	armed bool
}

// New returns an idle timer with the given quiet period.
func New(quiet time.Duration) *Timer {
	return &Timer{quiet: quiet}
}

// Quiet returns the quiet period.
func (d *Timer) Quiet() time.Duration {
	return d.quiet
}

// Notify records a change, cancelling any pending firing and scheduling a
// new one quiet from now.
func (d *Timer) Notify() {
	if d.t == nil {
		d.t = time.NewTimer(d.quiet)
	} else {
		// Since Go 1.23 Reset discards a value the old timer already sent.
		d.t.Reset(d.quiet)
	}
	d.armed = true
}

// C returns the firing channel, or nil while nothing is pending so a select
// case on it blocks forever.
func (d *Timer) C() <-chan time.Time {
	if !d.armed {
		return nil
	}
	return d.t.C
}

// Fired marks the pending firing as consumed.
func (d *Timer) Fired() {
	d.armed = false
}

// Pending reports whether a firing is scheduled.
func (d *Timer) Pending() bool {
	return d.armed
}

// Stop cancels any pending firing.
func (d *Timer) Stop() {
	if d.t != nil {
		d.t.Stop()
	}
	d.armed = false
}
