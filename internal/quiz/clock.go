package quiz

import (
	"errors"
	"fmt"
)

var ErrAlreadyStarted = errors.New("quiz: clock already started")

// Clock is the countdown for one attempt: an explicit state machine value
// advanced by an externally driven Tick, with no wall-clock dependency.
// It signals expiry exactly once and never performs scoring itself.
//
// A Clock is a plain value and is not safe for concurrent use; Session
// serializes access to it.
type Clock struct {
	state     State
	remaining int
	expired   bool // expiry already signalled
}

// Start activates the clock with a positive number of time units.
func (c *Clock) Start(totalUnits int) error {
	if c.state != NotStarted {
		return ErrAlreadyStarted
	}
	if totalUnits <= 0 {
		return fmt.Errorf("quiz: total time must be positive, got %d", totalUnits)
	}
	c.state = Active
	c.remaining = totalUnits
	return nil
}

// Tick consumes one time unit. It reports true exactly once, on the tick
// that drives the remaining time to zero. Ticks delivered before Start or
// after the clock left Active are ignored; remaining never goes negative.
func (c *Clock) Tick() bool {
	if c.state != Active || c.expired {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.expired = true
		return true
	}
	return false
}

// IsExpired reports whether the clock has run out.
func (c *Clock) IsExpired() bool {
	return c.state != NotStarted && c.remaining <= 0
}

// Stop takes the clock out of Active. Idempotent: stopping a clock that
// is not running is a no-op.
func (c *Clock) Stop() {
	if c.state == Active {
		c.state = Finalized
	}
}

// Remaining returns the units left, clamped at zero.
func (c *Clock) Remaining() int { return c.remaining }

// State returns the clock's lifecycle state.
func (c *Clock) State() State { return c.state }
