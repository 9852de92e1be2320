package timeutil

import (
	"context"
	"iter"
	"time"
)

// StartTimeLayout is the human-facing format for scheduled start times,
// always interpreted as UTC.
const StartTimeLayout = "2006-01-02 15:04"

// StampLayout is the compact run-stamp form derived from a start time. It
// names report directories and ties per-host reports to one fleet run.
const StampLayout = "20060102-1504"

// ParseStartTime parses a scheduled start time in UTC.
func ParseStartTime(s string) (time.Time, error) {
	return time.ParseInLocation(StartTimeLayout, s, time.UTC)
}

// Stamp derives the run stamp for a start time, truncated to the minute.
func Stamp(t time.Time) string {
	return t.UTC().Truncate(time.Minute).Format(StampLayout)
}

func Sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func IterTick(ctx context.Context, period time.Duration) iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		now := time.Now()
		next := now.Add(period)

		ticker := time.NewTicker(period)
		defer ticker.Stop()

		for ctx.Err() == nil {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				if t.After(next) {
					next = t.Add(period)
					if !yield(t) {
						return
					}
				}
			}
		}
	}
}
