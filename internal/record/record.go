// Package record defines the shared shape of tasks, log entries and
// collection entries, and how they are written to and read from YAML.
package record

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Kind tags which variant a Record is. The file format does not store it;
// it follows from the list the record was loaded from.
type Kind int

const (
	KindEntry Kind = iota
	KindTask
	KindLog
)

func (k Kind) String() string {
	switch k {
	case KindTask:
		return "task"
	case KindLog:
		return "log"
	default:
		return "entry"
	}
}

const (
	DateLayout = "2006-01-02"

	// NotePrefix marks a note that points at a long note stored in its own file.
	NotePrefix = "file:"
)

var ErrInvalid = errors.New("invalid record")

// Record is the base entity. Log-only fields are LoggedAt, FinishedAt and
// ClockMinutes; task-only fields are Due and RepeatDays.
type Record struct {
	Kind   Kind
	Date   time.Time
	Desc   string
	Tags   []string
	Note   string
	Fields map[string]string

	LoggedAt     *time.Time
	FinishedAt   *time.Time
	ClockMinutes *int

	Due        *time.Time
	RepeatDays *int

	// raw holds every node as it was read so unmodified values are written
	// back with their original tag and style.
	raw map[string]*yaml.Node
}

// Day truncates t to its calendar day, expressed as UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD literal.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func NewTask(date time.Time, desc string, tags []string) Record {
	return Record{Kind: KindTask, Date: Day(date), Desc: strings.TrimSpace(desc), Tags: dedupeTags(tags)}
}

// NewLogEntry creates a log entry stamped at now.
func NewLogEntry(date time.Time, desc string, tags []string, now time.Time) Record {
	stamp := now
	return Record{Kind: KindLog, Date: Day(date), Desc: strings.TrimSpace(desc), Tags: dedupeTags(tags), LoggedAt: &stamp}
}

func NewEntry(date time.Time, desc string, tags []string) Record {
	return Record{Kind: KindEntry, Date: Day(date), Desc: strings.TrimSpace(desc), Tags: dedupeTags(tags)}
}

// Validate checks the invariants every stored record must satisfy. The
// repeat interval is left to the scheduler, which reports a bad one when the
// task comes due.
func (r Record) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalid)
	}
	if strings.TrimSpace(r.Desc) == "" {
		return fmt.Errorf("%w: description is required", ErrInvalid)
	}
	if r.Kind == KindLog && r.LoggedAt == nil {
		return fmt.Errorf("%w: log entry %q has no tstamp", ErrInvalid, r.Desc)
	}
	for _, t := range r.Tags {
		if t == "" || strings.HasPrefix(t, "~") {
			return fmt.Errorf("%w: bad stored tag %q", ErrInvalid, t)
		}
	}
	return nil
}

// NoteRef returns the path of an externally stored note, if the note is a reference.
func (r Record) NoteRef() (string, bool) {
	if !strings.HasPrefix(r.Note, NotePrefix) {
		return "", false
	}
	ref := strings.TrimSpace(strings.TrimPrefix(r.Note, NotePrefix))
	return ref, ref != ""
}

// Open reports whether the entry was stamped but never closed.
func (r Record) Open() bool {
	return r.LoggedAt != nil && r.FinishedAt == nil && r.ClockMinutes == nil
}

// Clone returns a deep copy.
func (r Record) Clone() Record {
	out := r
	if r.Tags != nil {
		out.Tags = append([]string(nil), r.Tags...)
	}
	if r.Fields != nil {
		out.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	if r.raw != nil {
		out.raw = make(map[string]*yaml.Node, len(r.raw))
		for k, v := range r.raw {
			out.raw[k] = v
		}
	}
	out.LoggedAt = cloneTime(r.LoggedAt)
	out.FinishedAt = cloneTime(r.FinishedAt)
	out.Due = cloneTime(r.Due)
	out.ClockMinutes = cloneInt(r.ClockMinutes)
	out.RepeatDays = cloneInt(r.RepeatDays)
	return out
}

// AsLogEntry turns a task into the log entry recorded when it is done.
func (r Record) AsLogEntry(now time.Time) Record {
	out := r.Clone()
	out.Kind = KindLog
	out.Date = Day(now)
	stamp := now
	out.LoggedAt = &stamp
	out.FinishedAt = nil
	out.ClockMinutes = nil
	return out.WithoutRepeat()
}

// WithoutRepeat returns a copy with no repeat interval.
func (r Record) WithoutRepeat() Record {
	out := r.Clone()
	out.RepeatDays = nil
	delete(out.raw, keyRepeat)
	return out
}

// SetField sets an open field. Reserved names are rejected.
func (r *Record) SetField(key, value string) error {
	if IsReserved(key) {
		return fmt.Errorf("%w: %q is a reserved field", ErrInvalid, key)
	}
	if r.Fields == nil {
		r.Fields = map[string]string{}
	}
	r.Fields[key] = value
	return nil
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}

func dedupeTags(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
