package logbook

import (
	"time"

	"go.uber.org/zap"

	"github.com/amirbrooks/logbook/internal/config"
	"github.com/amirbrooks/logbook/internal/query"
	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/store"
)

// Catch appends an entry to the named collection, or the default one.
// Entries carry a date but no timestamps.
func (b *Book) Catch(name, text string, opts Options) (string, record.Record, error) {
	name, col, err := b.cfg.Collection(name)
	if err != nil {
		return "", record.Record{}, err
	}
	entry, err := b.newRecord(text, opts, func(date time.Time) record.Record {
		return record.NewEntry(date, "", nil)
	})
	if err != nil {
		return "", record.Record{}, err
	}
	_, err = store.Update(col.File, record.KindEntry, func(recs []record.Record) ([]record.Record, error) {
		return append(recs, entry), nil
	})
	if err != nil {
		b.dropNote(opts, entry.Note)
		return "", record.Record{}, err
	}
	b.log.Debug("caught entry", zap.String("collection", name), zap.String("path", col.File))
	return name, entry, nil
}

// Notes lists the entries of a collection matching the title's tags and the
// date modifiers, ordered by the collection's sort key.
func (b *Book) Notes(name, text string, opts Options) ([]record.Record, config.Collection, error) {
	name, col, err := b.cfg.Collection(name)
	if err != nil {
		return nil, config.Collection{}, err
	}
	q, err := b.query(text, opts)
	if err != nil {
		return nil, config.Collection{}, err
	}
	recs, err := store.LoadRecords(col.File, record.KindEntry)
	if err != nil {
		return nil, config.Collection{}, err
	}
	out := query.Run(recs, q, col.Sort)
	b.log.Debug("listed collection", zap.String("collection", name), zap.String("sort", col.Sort), zap.Int("matched", len(out)))
	return out, col, nil
}
