// Package clock provides the wall-clock time source injected everywhere
// the current time matters, so tests can substitute their own.
package clock

import "time"

// System reads the wall clock. Implements harvest.Clock.
type System struct{}

func (System) Now() time.Time { return time.Now() }
