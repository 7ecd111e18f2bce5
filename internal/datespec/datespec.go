// Package datespec resolves the date inputs a command accepts (an explicit
// date, "today", "N days ago", range bounds) into calendar days and ranges.
package datespec

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/amirbrooks/logbook/internal/record"
)

var ErrInvalid = errors.New("invalid date specification")

// SpecError names the input that could not be resolved.
// It satisfies errors.Is(err, ErrInvalid).
type SpecError struct {
	Input  string
	Reason string
}

func (e *SpecError) Error() string {
	if e.Input == "" {
		return "invalid date specification: " + e.Reason
	}
	return fmt.Sprintf("invalid date specification %q: %s", e.Input, e.Reason)
}

func (e *SpecError) Is(target error) bool {
	return target == ErrInvalid
}

// Spec is the set of date inputs a command was given. Zero values mean absent.
type Spec struct {
	Date    string
	Today   bool
	DaysAgo *int
	After   string
	Before  string
}

// HasDay reports whether the spec names a single day.
func (s Spec) HasDay() bool {
	return strings.TrimSpace(s.Date) != "" || s.Today || s.DaysAgo != nil
}

// Range is a closed interval of days. A zero bound is unbounded.
type Range struct {
	Start time.Time
	End   time.Time
}

// All is the unbounded range.
var All = Range{}

// Day is the range holding exactly d.
func Day(d time.Time) Range {
	d = record.Day(d)
	return Range{Start: d, End: d}
}

func (r Range) Contains(d time.Time) bool {
	d = record.Day(d)
	if !r.Start.IsZero() && d.Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && d.After(r.End) {
		return false
	}
	return true
}

func (r Range) Unbounded() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

func (r Range) String() string {
	start, end := "...", "..."
	if !r.Start.IsZero() {
		start = record.FormatDate(r.Start)
	}
	if !r.End.IsZero() {
		end = record.FormatDate(r.End)
	}
	return "[" + start + ", " + end + "]"
}

// Resolver turns a Spec into days. It reads nothing but the clock.
type Resolver struct {
	Now func() time.Time
}

func (r Resolver) today() time.Time {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return record.Day(now())
}

// Single resolves the one day a command operates on. Precedence is the
// explicit date, then the today flag, then days-ago; no input means today.
func (r Resolver) Single(s Spec) (time.Time, error) {
	if lit := strings.TrimSpace(s.Date); lit != "" {
		return parse(lit)
	}
	if s.Today {
		return r.today(), nil
	}
	if s.DaysAgo != nil {
		if *s.DaysAgo < 0 {
			return time.Time{}, &SpecError{Input: fmt.Sprint(*s.DaysAgo), Reason: "days ago must not be negative"}
		}
		return r.today().AddDate(0, 0, -*s.DaysAgo), nil
	}
	return r.today(), nil
}

// Range resolves the interval a query covers. Without any input it is
// unbounded. A start without an end runs to today; an end without a start
// is open towards the past. A single-day input narrows the bounds to that day.
func (r Resolver) Range(s Spec) (Range, error) {
	var out Range
	after, before := strings.TrimSpace(s.After), strings.TrimSpace(s.Before)
	if after != "" {
		d, err := parse(after)
		if err != nil {
			return Range{}, err
		}
		out.Start = d
		out.End = r.today()
	}
	if before != "" {
		d, err := parse(before)
		if err != nil {
			return Range{}, err
		}
		out.End = d
	}
	if after != "" && before != "" && out.Start.After(out.End) {
		return Range{}, &SpecError{
			Input:  after + ".." + before,
			Reason: "start date is after end date",
		}
	}
	if !s.HasDay() {
		return out, nil
	}
	day, err := r.Single(s)
	if err != nil {
		return Range{}, err
	}
	return out.Intersect(Day(day)), nil
}

// Intersect narrows r to the days also in o. The result may be empty.
func (r Range) Intersect(o Range) Range {
	out := r
	if !o.Start.IsZero() && (out.Start.IsZero() || o.Start.After(out.Start)) {
		out.Start = o.Start
	}
	if !o.End.IsZero() && (out.End.IsZero() || o.End.Before(out.End)) {
		out.End = o.End
	}
	return out
}

// Empty reports whether no day can satisfy the range.
func (r Range) Empty() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && r.Start.After(r.End)
}

func parse(lit string) (time.Time, error) {
	d, err := record.ParseDate(lit)
	if err != nil {
		return time.Time{}, &SpecError{Input: lit, Reason: "expected YYYY-MM-DD"}
	}
	return d, nil
}
