package query

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirbrooks/logbook/internal/record"
)

var ErrNegativeDuration = errors.New("negative duration")

// DurationError reports an entry that finished before it was logged.
// It satisfies errors.Is(err, ErrNegativeDuration).
type DurationError struct {
	Desc       string
	LoggedAt   time.Time
	FinishedAt time.Time
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("%q finished at %s, before it was logged at %s",
		e.Desc, record.FormatStamp(e.FinishedAt), record.FormatStamp(e.LoggedAt))
}

func (e *DurationError) Is(target error) bool {
	return target == ErrNegativeDuration
}

// ClockSummary totals the time clocked on a set of log entries.
type ClockSummary struct {
	Minutes int
	Entries int
	Timed   int
	// Untimed counts entries with neither tclock nor a closed tstamp/tfinish pair.
	Untimed int
}

func (s ClockSummary) Total() time.Duration {
	return time.Duration(s.Minutes) * time.Minute
}

// Contribution returns the whole minutes one entry adds to a clock total.
// An explicit tclock wins over tstamp/tfinish. timed is false when the
// entry carries no duration data at all.
func Contribution(r record.Record) (minutes int, timed bool, err error) {
	if r.ClockMinutes != nil {
		if *r.ClockMinutes < 0 {
			return 0, true, fmt.Errorf("%w: %q has tclock %d", ErrNegativeDuration, r.Desc, *r.ClockMinutes)
		}
		return *r.ClockMinutes, true, nil
	}
	if r.LoggedAt != nil && r.FinishedAt != nil {
		d := r.FinishedAt.Sub(*r.LoggedAt)
		if d < 0 {
			return 0, true, &DurationError{Desc: r.Desc, LoggedAt: *r.LoggedAt, FinishedAt: *r.FinishedAt}
		}
		return int(d / time.Minute), true, nil
	}
	return 0, false, nil
}

// Clock sums the contributions of recs. It fails on the first entry with a
// negative duration instead of subtracting it.
func Clock(recs []record.Record) (ClockSummary, error) {
	var s ClockSummary
	for _, r := range recs {
		m, timed, err := Contribution(r)
		if err != nil {
			return ClockSummary{}, err
		}
		s.Entries++
		if timed {
			s.Timed++
		} else {
			s.Untimed++
		}
		s.Minutes += m
	}
	return s, nil
}

// OpenFor returns how long an entry stamped but never closed has been running.
func OpenFor(r record.Record, now time.Time) (time.Duration, bool) {
	if !r.Open() {
		return 0, false
	}
	d := now.Sub(*r.LoggedAt).Truncate(time.Second)
	if d < 0 {
		d = 0
	}
	return d, true
}
