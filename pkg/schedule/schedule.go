// Package schedule paces a loop at a fixed rate using absolute deadlines.
//
// Waiting "until deadline" rather than "for period" keeps the long-run rate at
// exactly 1/period no matter how long each iteration's work takes, provided the
// work finishes before the deadline. A late iteration does not reset the phase:
// the next deadline is still the previous one plus period, so the loop catches
// up by running back-to-back.
package schedule

import (
	"context"
	"time"
)

// Clock is the monotonic time source of a Scheduler.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// System is the process monotonic clock.
type System struct{}

func (System) Now() time.Time                         { return time.Now() }
func (System) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Period converts a frequency in Hz to a period.
func Period(hz float64) time.Duration {
	if hz <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / hz)
}

// WaitUntil blocks until clock reaches deadline and returns deadline+period.
// A deadline already in the past returns immediately with the same result.
// On cancellation it returns deadline unchanged and ctx.Err().
func WaitUntil(ctx context.Context, clock Clock, deadline time.Time, period time.Duration) (time.Time, error) {
	next := deadline.Add(period)

	d := deadline.Sub(clock.Now())
	if d <= 0 {
		return next, nil
	}

	select {
	case <-ctx.Done():
		return deadline, ctx.Err()
	case <-clock.After(d):
		return next, nil
	}
}

// Scheduler owns the deadline of a periodic loop.
type Scheduler struct {
	clock    Clock
	period   time.Duration
	deadline time.Time
	overruns int
}

// New creates a Scheduler whose first deadline is now+period.
func New(clock Clock, period time.Duration) *Scheduler {
	if clock == nil {
		clock = System{}
	}
	return &Scheduler{
		clock:    clock,
		period:   period,
		deadline: clock.Now().Add(period),
	}
}

// Wait blocks until the current deadline and advances it by one period.
func (s *Scheduler) Wait(ctx context.Context) error {
	if s.clock.Now().After(s.deadline) {
		s.overruns++
	}

	next, err := WaitUntil(ctx, s.clock, s.deadline, s.period)
	if err != nil {
		return err
	}
	s.deadline = next
	return nil
}

// Deadline returns the instant the next Wait returns at (or after).
func (s *Scheduler) Deadline() time.Time {
	return s.deadline
}

// Period returns the fixed period.
func (s *Scheduler) Period() time.Duration {
	return s.period
}

// Overruns returns how many Wait calls started after their deadline.
func (s *Scheduler) Overruns() int {
	return s.overruns
}
