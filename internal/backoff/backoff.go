// Package backoff provides the poll-interval schedule used by callers
// waiting on another caller's computation.
package backoff

import "time"

// Backoff yields a monotonically non-decreasing sequence of delays growing
// by an integer factor up to a hard ceiling. Not safe for concurrent use;
// each waiter owns its own instance.
type Backoff struct {
	next   time.Duration
	max    time.Duration
	factor int
}

func New(initial, max time.Duration, factor int) *Backoff {
	if initial <= 0 {
		initial = time.Millisecond
	}
	if max < initial {
		max = initial
	}
	if factor < 1 {
		factor = 1
	}
	return &Backoff{next: initial, max: max, factor: factor}
}

// Next returns the current delay and advances the schedule.
func (b *Backoff) Next() time.Duration {
	d := b.next
	grown := d * time.Duration(b.factor)
	if grown > b.max {
		grown = b.max
	}
	b.next = grown
	return d
}
