// Package search turns a date window into bounded flight-offer queries and
// reduces the results to the single cheapest candidate.
package search

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// ErrInvalidWindow reports a misconfigured date window.
var ErrInvalidWindow = errors.New("invalid date window")

// DateRange returns a lazy sequence of departure dates: start, start+1d, ...
// Both bounds are inclusive. Enumeration stops after max dates even when the
// window is longer, which bounds external API call volume no matter how wide
// a range is configured. The sequence is restartable.
func DateRange(start, end time.Time, max int) (iter.Seq[time.Time], error) {
	if max < 1 {
		return nil, fmt.Errorf("%w: max dates must be positive, got %d", ErrInvalidWindow, max)
	}
	first := truncateToDay(start)
	last := truncateToDay(end)
	if first.After(last) {
		return nil, fmt.Errorf("%w: start %s is after end %s",
			ErrInvalidWindow, first.Format("2006-01-02"), last.Format("2006-01-02"))
	}

	return func(yield func(time.Time) bool) {
		d := first
		for n := 0; n < max && !d.After(last); n++ {
			if !yield(d) {
				return
			}
			d = d.AddDate(0, 0, 1)
		}
	}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
