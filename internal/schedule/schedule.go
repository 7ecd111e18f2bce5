// Package schedule promotes due scheduled tasks into the active list and
// regenerates recurring ones.
//
// A scheduled task is pending while its date is after today and due once
// the date is reached. Promotion copies the task, unchanged, to the end of
// the active list. A task with a repeat interval is replaced in the
// scheduled list by its successor dated today + interval; any other task is
// removed. Promote is pure, so persisting its result in one atomic replace
// is what makes repeated runs on the same day idempotent: the promoted
// entry is gone from the stored list before anyone reads it again.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/amirbrooks/logbook/internal/record"
)

var ErrAmbiguous = errors.New("ambiguous schedule state")

// StateError reports a recurring task whose next date cannot be computed.
// It satisfies errors.Is(err, ErrAmbiguous).
type StateError struct {
	Desc   string
	Date   time.Time
	Repeat int
}

func (e *StateError) Error() string {
	return fmt.Sprintf("scheduled task %q on %s has repeat %d; interval must be a positive number of days",
		e.Desc, record.FormatDate(e.Date), e.Repeat)
}

func (e *StateError) Is(target error) bool {
	return target == ErrAmbiguous
}

// Promotion records one due task that moved to the active list.
type Promotion struct {
	Task record.Record
	// Next is the regenerated scheduled task, nil when the task does not repeat.
	Next *record.Record
}

type Result struct {
	Active    []record.Record
	Scheduled []record.Record
	Promoted  []Promotion
}

// Due reports whether a scheduled task should be promoted on today.
func Due(task record.Record, today time.Time) bool {
	return !record.Day(task.Date).After(record.Day(today))
}

// Next returns the successor of a recurring task promoted on today.
func Next(task record.Record, today time.Time) (record.Record, error) {
	if task.RepeatDays == nil || *task.RepeatDays <= 0 {
		repeat := 0
		if task.RepeatDays != nil {
			repeat = *task.RepeatDays
		}
		return record.Record{}, &StateError{Desc: task.Desc, Date: task.Date, Repeat: repeat}
	}
	next := task.Clone()
	next.Kind = record.KindTask
	next.Date = record.Day(today).AddDate(0, 0, *task.RepeatDays)
	return next, nil
}

// Promote moves every due task from scheduled to active. The inputs are not
// modified. On error nothing is promoted.
func Promote(active, scheduled []record.Record, today time.Time) (Result, error) {
	res := Result{
		Active:    append([]record.Record(nil), active...),
		Scheduled: make([]record.Record, 0, len(scheduled)),
	}
	for _, task := range scheduled {
		if !Due(task, today) {
			res.Scheduled = append(res.Scheduled, task)
			continue
		}
		promoted := task.WithoutRepeat()
		promoted.Kind = record.KindTask
		p := Promotion{Task: promoted}
		if task.RepeatDays != nil {
			next, err := Next(task, today)
			if err != nil {
				return Result{}, err
			}
			res.Scheduled = append(res.Scheduled, next)
			p.Next = &next
		}
		res.Active = append(res.Active, promoted)
		res.Promoted = append(res.Promoted, p)
	}
	return res, nil
}

// Route reports whether a newly added task belongs in the scheduled list
// rather than the active one: it is dated after today or it repeats.
func Route(task record.Record, today time.Time) bool {
	return task.RepeatDays != nil || task.Date.After(record.Day(today))
}
