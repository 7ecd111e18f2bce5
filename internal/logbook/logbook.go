// Package logbook implements the commands: each one loads the files it
// needs, runs the query or scheduling engine and writes back with an atomic
// replace.
package logbook

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/amirbrooks/logbook/internal/config"
	"github.com/amirbrooks/logbook/internal/datespec"
	"github.com/amirbrooks/logbook/internal/query"
	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/store"
	"github.com/amirbrooks/logbook/internal/title"
)

// ErrNoNote is returned when a command that takes no note is given one.
var ErrNoNote = errors.New("command does not take a note")

// Options are the resolved command modifiers.
type Options struct {
	Dates datespec.Spec
	// Clock overrides the entry's duration in minutes.
	Clock *int
	// Prev marks the entry as started Prev minutes ago and finished now.
	Prev *int
	Note string
	// LongNote stores Note in its own file under the notes directory.
	LongNote bool
	// File replaces the configured log file.
	File string
}

type Book struct {
	cfg *config.Config
	log *zap.Logger
	now func() time.Time
}

func New(cfg *config.Config, log *zap.Logger) *Book {
	if log == nil {
		log = zap.NewNop()
	}
	return &Book{cfg: cfg, log: log, now: time.Now}
}

// WithClock replaces the wall clock, for tests.
func (b *Book) WithClock(now func() time.Time) *Book {
	b.now = now
	return b
}

func (b *Book) Config() *config.Config { return b.cfg }

func (b *Book) today() time.Time {
	return record.Day(b.now())
}

func (b *Book) resolver() datespec.Resolver {
	return datespec.Resolver{Now: b.now}
}

func (b *Book) logPath(opts Options) string {
	if f := strings.TrimSpace(opts.File); f != "" {
		return store.ExpandHome(f)
	}
	return b.cfg.Log
}

// note resolves the note text to store on a record, writing a long note
// file when asked to.
func (b *Book) note(opts Options) (string, error) {
	if opts.Note == "" {
		return "", nil
	}
	if !opts.LongNote {
		return strings.TrimRight(opts.Note, "\n"), nil
	}
	ref, err := store.WriteLongNote(b.cfg.NotesDir, opts.Note)
	if err != nil {
		return "", err
	}
	b.log.Debug("stored long note", zap.String("ref", ref), zap.String("dir", b.cfg.NotesDir))
	return ref, nil
}

// dropNote removes the long note file written for a record that was never
// saved. Inline notes are never touched.
func (b *Book) dropNote(opts Options, note string) {
	if !opts.LongNote {
		return
	}
	if err := store.RemoveNote(b.cfg.NotesDir, record.Record{Note: note}); err != nil {
		b.log.Warn("failed to remove unsaved note", zap.String("note", note), zap.Error(err))
	}
}

// newRecord parses text into a fresh record dated by the title or the date
// modifiers.
func (b *Book) newRecord(text string, opts Options, build func(date time.Time) record.Record) (record.Record, error) {
	t, err := title.Parse(text)
	if err != nil {
		return record.Record{}, err
	}
	if strings.TrimSpace(t.Desc) == "" {
		return record.Record{}, fmt.Errorf("%w: a description is required", record.ErrInvalid)
	}
	date, err := b.resolver().Single(t.DateSpec(opts.Dates))
	if err != nil {
		return record.Record{}, err
	}
	r := build(date)
	if err := t.Apply(&r); err != nil {
		return record.Record{}, err
	}
	if err := r.Validate(); err != nil {
		return record.Record{}, err
	}
	if r.Note, err = b.note(opts); err != nil {
		return record.Record{}, err
	}
	return r, nil
}

// query builds the filter from a title and the date modifiers. Words that
// are not tags are ignored.
func (b *Book) query(text string, opts Options) (query.Query, error) {
	t, err := title.Parse(text)
	if err != nil {
		return query.Query{}, err
	}
	if t.Desc != "" {
		b.log.Debug("ignoring query words", zap.String("words", t.Desc))
	}
	rng, err := b.resolver().Range(t.DateSpec(opts.Dates))
	if err != nil {
		return query.Query{}, err
	}
	return query.Query{Range: rng, Tags: t.Tags}, nil
}

// applyClock sets the duration modifiers on the entry. finish closes an
// entry given no explicit duration.
func (b *Book) applyClock(r *record.Record, opts Options, now time.Time, finish bool) {
	switch {
	case opts.Prev != nil:
		start := title.Elapsed(now, *opts.Prev)
		end := now
		r.LoggedAt = &start
		r.FinishedAt = &end
	case opts.Clock != nil:
		m := *opts.Clock
		r.ClockMinutes = &m
	case finish:
		end := now
		r.FinishedAt = &end
	}
}
