package logbook

import (
	"time"

	"go.uber.org/zap"

	"github.com/amirbrooks/logbook/internal/query"
	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/store"
	"github.com/amirbrooks/logbook/internal/title"
)

func (b *Book) appendLog(opts Options, entry record.Record) ([]record.Record, error) {
	path := b.logPath(opts)
	b.log.Debug("appending log entry", zap.String("path", path), zap.String("desc", entry.Desc))
	return store.Update(path, record.KindLog, func(recs []record.Record) ([]record.Record, error) {
		return append(recs, entry), nil
	})
}

// Log appends a new entry stamped now.
func (b *Book) Log(text string, opts Options) (record.Record, error) {
	now := b.now()
	entry, err := b.newRecord(text, opts, func(date time.Time) record.Record {
		return record.NewLogEntry(date, "", nil, now)
	})
	if err != nil {
		return record.Record{}, err
	}
	b.applyClock(&entry, opts, now, false)
	if _, err := b.appendLog(opts, entry); err != nil {
		b.dropNote(opts, entry.Note)
		return record.Record{}, err
	}
	return entry, nil
}

// Done amends the last log entry with whatever the title gives and closes
// it: with the clock modifiers when present, otherwise finished now.
func (b *Book) Done(text string, opts Options) (record.Record, error) {
	t, err := title.Parse(text)
	if err != nil {
		return record.Record{}, err
	}
	spec := t.DateSpec(opts.Dates)
	var date *time.Time
	if spec.HasDay() {
		d, err := b.resolver().Single(spec)
		if err != nil {
			return record.Record{}, err
		}
		date = &d
	}
	note, err := b.note(opts)
	if err != nil {
		return record.Record{}, err
	}
	now := b.now()
	var last record.Record
	_, err = store.Update(b.logPath(opts), record.KindLog, func(recs []record.Record) ([]record.Record, error) {
		if len(recs) == 0 {
			return nil, &store.NotFoundError{List: "log", ID: 0, Len: 0}
		}
		last = recs[len(recs)-1].Clone()
		if date != nil {
			last.Date = *date
		}
		if err := t.Apply(&last); err != nil {
			return nil, err
		}
		if note != "" {
			last.Note = note
		}
		b.applyClock(&last, opts, now, true)
		if err := last.Validate(); err != nil {
			return nil, err
		}
		recs[len(recs)-1] = last
		return recs, nil
	})
	if err != nil {
		b.dropNote(opts, note)
		return record.Record{}, err
	}
	return last, nil
}

// Entries returns the log entries matching the title's tags and the date
// modifiers, in file order.
func (b *Book) Entries(text string, opts Options) ([]record.Record, error) {
	q, err := b.query(text, opts)
	if err != nil {
		return nil, err
	}
	path := b.logPath(opts)
	recs, err := store.LoadRecords(path, record.KindLog)
	if err != nil {
		return nil, err
	}
	out := query.Filter(recs, q)
	b.log.Debug("queried log", zap.String("path", path), zap.Stringer("range", q.Range), zap.Stringer("tags", q.Tags), zap.Int("matched", len(out)))
	return out, nil
}

// Calendar groups the matching log entries by day.
func (b *Book) Calendar(text string, opts Options) ([]query.DayGroup, error) {
	recs, err := b.Entries(text, opts)
	if err != nil {
		return nil, err
	}
	return query.Calendar(recs), nil
}

// Clock totals the time spent on the matching log entries.
func (b *Book) Clock(text string, opts Options) ([]record.Record, query.ClockSummary, error) {
	recs, err := b.Entries(text, opts)
	if err != nil {
		return nil, query.ClockSummary{}, err
	}
	sum, err := query.Clock(recs)
	if err != nil {
		return nil, query.ClockSummary{}, err
	}
	return recs, sum, nil
}

// Overview is what the default command shows.
type Overview struct {
	Todo      []record.Record
	Scheduled []record.Record
	Recent    []record.Record
	OpenFor   *time.Duration
}

// View promotes due tasks and returns the active list with the tail of the log.
func (b *Book) View(opts Options) (Overview, error) {
	tf, err := b.Todo()
	if err != nil {
		return Overview{}, err
	}
	recs, err := store.LoadRecords(b.logPath(opts), record.KindLog)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{Todo: tf.Active, Scheduled: tf.Scheduled}
	if n := len(recs); n > 0 {
		start := n - recentCount
		if start < 0 {
			start = 0
		}
		ov.Recent = recs[start:]
		if d, ok := query.OpenFor(recs[n-1], b.now()); ok {
			ov.OpenFor = &d
		}
	}
	return ov, nil
}

const recentCount = 5
