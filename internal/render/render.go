// Package render prints records for the terminal.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/amirbrooks/logbook/internal/config"
	"github.com/amirbrooks/logbook/internal/query"
	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/store"
)

type paint func(string) string

type styles struct {
	date    paint
	tag     paint
	clock   paint
	heading paint
	muted   paint
}

func plainStyles() styles {
	id := func(s string) string { return s }
	return styles{date: id, tag: id, clock: id, heading: id, muted: id}
}

func colorStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		date:    painter(r.NewStyle().Foreground(lipgloss.Color("6"))),
		tag:     painter(r.NewStyle().Foreground(lipgloss.Color("3"))),
		clock:   painter(r.NewStyle().Foreground(lipgloss.Color("#a0785a"))),
		heading: painter(r.NewStyle().Bold(true)),
		muted:   painter(r.NewStyle().Faint(true)),
	}
}

func painter(st lipgloss.Style) paint {
	return func(s string) string { return st.Render(s) }
}

// Printer writes listings to w. Long notes are read from NotesDir.
type Printer struct {
	w        io.Writer
	notesDir string
	st       styles
}

func New(w io.Writer, notesDir string, plain bool) *Printer {
	st := plainStyles()
	if !plain {
		st = colorStyles(w)
	}
	return &Printer{w: w, notesDir: notesDir, st: st}
}

func (p *Printer) tags(r record.Record) string {
	if len(r.Tags) == 0 {
		return ""
	}
	parts := make([]string, len(r.Tags))
	for i, t := range r.Tags {
		parts[i] = p.st.tag("+" + t)
	}
	return " " + strings.Join(parts, " ")
}

// Line renders the one-line form: date, description and tags.
func (p *Printer) Line(r record.Record) string {
	return p.st.date(record.FormatDate(r.Date)) + " " + r.Desc + p.tags(r)
}

// Full renders the line plus the clock and the note, one indented line per
// note line.
func (p *Printer) Full(r record.Record) (string, error) {
	return p.full(p.Line(r), r)
}

func (p *Printer) full(line string, r record.Record) (string, error) {
	var b strings.Builder
	b.WriteString(line)
	if m, timed, err := query.Contribution(r); err == nil && timed {
		b.WriteString(" " + p.st.clock("["+FormatDuration(time.Duration(m)*time.Minute)+"]"))
	}
	if r.Note != "" {
		note, err := store.ReadNote(p.notesDir, r)
		if err != nil {
			return "", err
		}
		for _, l := range strings.Split(note, "\n") {
			b.WriteString("\n  " + l)
		}
	}
	return b.String(), nil
}

// List prints recs one per line; full adds clocks and notes.
func (p *Printer) List(recs []record.Record, full bool) error {
	for _, r := range recs {
		line := p.Line(r)
		if full {
			var err error
			if line, err = p.Full(r); err != nil {
				return err
			}
		}
		fmt.Fprintln(p.w, line)
	}
	return nil
}

// Calendar prints each day as a heading followed by its entries.
func (p *Printer) Calendar(groups []query.DayGroup) {
	for _, g := range groups {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.st.heading(g.Date.Format("2006-01-02 Mon")))
		fmt.Fprintln(p.w, "--------------")
		for _, r := range g.Records {
			fmt.Fprintln(p.w, "  "+r.Desc+p.tags(r))
		}
	}
	if len(groups) > 0 {
		fmt.Fprintln(p.w)
	}
}

// Todo prints the active list numbered by the ids del and do accept.
func (p *Printer) Todo(recs []record.Record) {
	if len(recs) == 0 {
		fmt.Fprintln(p.w, p.st.muted("(nothing to do)"))
		return
	}
	for i, r := range recs {
		line := fmt.Sprintf("%d. %s%s", i, r.Desc, p.tags(r))
		if r.Due != nil {
			line += " " + p.st.muted("(due "+record.FormatDate(*r.Due)+")")
		}
		fmt.Fprintln(p.w, line)
	}
}

// Scheduled prints tasks waiting in the scheduled list.
func (p *Printer) Scheduled(recs []record.Record) {
	for _, r := range recs {
		line := p.Line(r)
		if r.RepeatDays != nil {
			line += " " + p.st.muted(fmt.Sprintf("(every %d days)", *r.RepeatDays))
		}
		fmt.Fprintln(p.w, line)
	}
}

func (p *Printer) Clock(sum query.ClockSummary) {
	fmt.Fprintf(p.w, "Total elapsed time: %s\n", FormatDuration(sum.Total()))
	if sum.Untimed > 0 {
		fmt.Fprintln(p.w, p.st.muted(fmt.Sprintf("%d of %d entries have no clock", sum.Untimed, sum.Entries)))
	}
}

// View is the default screen. Recent is printed as given; Scheduled is
// shown only when set.
type View struct {
	Todo      []record.Record
	Scheduled []record.Record
	Recent    []record.Record
	OpenFor   *time.Duration
}

func (p *Printer) View(v View) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.st.heading("To-do items"))
	fmt.Fprintln(p.w, "-------------")
	p.Todo(v.Todo)
	if len(v.Scheduled) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.st.heading("Scheduled"))
		fmt.Fprintln(p.w, "---------")
		p.Scheduled(v.Scheduled)
	}
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.st.heading("Recent log items"))
	fmt.Fprintln(p.w, "----------------")
	for _, r := range v.Recent {
		fmt.Fprintln(p.w, p.Line(r))
	}
	if v.OpenFor != nil {
		fmt.Fprintf(p.w, "\nLast task open for: %s\n", FormatDuration(*v.OpenFor))
	}
	fmt.Fprintln(p.w)
}

// Collections prints the configured collections as a table.
func (p *Printer) Collections(cfg *config.Config) {
	w := tabwriter.NewWriter(p.w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSORT\tFILE\tDESCRIPTION")
	for _, name := range cfg.CollectionNames() {
		c := cfg.Collections[name]
		sortKey := "-"
		if c.Sort != "" {
			sortKey = c.Sort
		}
		if name == cfg.DefaultCollection {
			name += "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, sortKey, c.File, c.Description)
	}
	_ = w.Flush()
}

// FormatDuration renders d as H:MM:SS, prefixed with whole days when d
// spans more than one.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int64(d / time.Second)
	days := secs / 86400
	secs %= 86400
	clock := fmt.Sprintf("%d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
	switch {
	case days == 1:
		return "1 day, " + clock
	case days > 1:
		return fmt.Sprintf("%d days, %s", days, clock)
	}
	return clock
}
