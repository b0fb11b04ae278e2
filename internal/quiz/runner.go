package quiz

import (
	"context"
	"time"
)

// Drive feeds real-time ticks to a session at the given cadence (one unit
// per second in production; tests pass something shorter). It returns when
// the context is cancelled, the session leaves Active, or the clock runs
// out, in which case onExpire is invoked once before returning.
//
// Cancellation is checked on every tick: a tick scheduled before the
// session was stopped but delivered after is a state-checked no-op inside
// Session.Tick, so Drive never finalizes a session twice.
func Drive(ctx context.Context, s *Session, interval time.Duration, onExpire func()) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if s.State() != Active {
				return
			}
			if s.Tick() {
				if onExpire != nil {
					onExpire()
				}
				return
			}
		}
	}
}
