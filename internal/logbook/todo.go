package logbook

import (
	"time"

	"go.uber.org/zap"

	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/schedule"
	"github.com/amirbrooks/logbook/internal/store"
)

// updateTodo runs fn between two scheduler passes in one todo file
// transaction: the first settles the list ids refer to, the second promotes
// anything fn added that is already due. fn may be nil. A failure leaves the
// file as it was.
func (b *Book) updateTodo(fn func(tf *store.TodoFile) error) (*store.TodoFile, error) {
	today := b.today()
	var promoted int
	promote := func(tf *store.TodoFile) error {
		res, err := schedule.Promote(tf.Active, tf.Scheduled, today)
		if err != nil {
			return err
		}
		tf.Active, tf.Scheduled = res.Active, res.Scheduled
		promoted += len(res.Promoted)
		return nil
	}
	tf, err := store.UpdateTodo(b.cfg.Todo, func(tf *store.TodoFile) (bool, error) {
		if err := promote(tf); err != nil {
			return false, err
		}
		if fn == nil {
			return promoted > 0, nil
		}
		if err := fn(tf); err != nil {
			return false, err
		}
		return true, promote(tf)
	})
	if err != nil {
		return nil, err
	}
	if promoted > 0 {
		b.log.Info("promoted scheduled tasks", zap.Int("promoted", promoted), zap.String("path", b.cfg.Todo))
	}
	return tf, nil
}

// Todo returns the todo file after promoting every due scheduled task.
func (b *Book) Todo() (*store.TodoFile, error) {
	return b.updateTodo(nil)
}

// Add creates a task. A task dated after today goes to the scheduled list.
func (b *Book) Add(text string, opts Options) (record.Record, bool, error) {
	task, err := b.newRecord(text, opts, func(date time.Time) record.Record {
		return record.NewTask(date, "", nil)
	})
	if err != nil {
		return record.Record{}, false, err
	}
	scheduled := schedule.Route(task, b.today())
	_, err = b.updateTodo(func(tf *store.TodoFile) error {
		if scheduled {
			tf.Scheduled = append(tf.Scheduled, task)
		} else {
			tf.Active = append(tf.Active, task)
		}
		return nil
	})
	if err != nil {
		b.dropNote(opts, task.Note)
		return record.Record{}, false, err
	}
	b.log.Debug("added task", zap.String("desc", task.Desc), zap.Bool("scheduled", scheduled))
	return task, scheduled, nil
}

// Del removes active task id.
func (b *Book) Del(id int) (record.Record, error) {
	var removed record.Record
	_, err := b.updateTodo(func(tf *store.TodoFile) error {
		var err error
		removed, tf.Active, err = store.Take("todo", tf.Active, id)
		return err
	})
	if err != nil {
		return record.Record{}, err
	}
	return removed, nil
}

// Do moves active task id to the log, dated today and stamped now. The log
// is written inside the todo transaction, so a failed log write leaves the
// task in place.
func (b *Book) Do(id int, opts Options) (record.Record, error) {
	note, err := b.note(opts)
	if err != nil {
		return record.Record{}, err
	}
	now := b.now()
	var entry record.Record
	_, err = b.updateTodo(func(tf *store.TodoFile) error {
		task, rest, err := store.Take("todo", tf.Active, id)
		if err != nil {
			return err
		}
		entry = task.AsLogEntry(now)
		if note != "" {
			entry.Note = note
		}
		b.applyClock(&entry, opts, now, false)
		if _, err := b.appendLog(opts, entry); err != nil {
			return err
		}
		tf.Active = rest
		return nil
	})
	if err != nil {
		b.dropNote(opts, note)
		return record.Record{}, err
	}
	return entry, nil
}
