// Package title splits a command-line title into its parts:
//
//	2016-07-04 Draft the report +work +~home due:2016-07-08 client:acme
//
// An optional leading date, the description, tag tokens and key:value fields.
package title

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amirbrooks/logbook/internal/datespec"
	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/tagexpr"
)

var (
	leadingDate = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})(\s+|$)`)
	fieldToken  = regexp.MustCompile(`^([A-Za-z][A-Za-z0-9_-]*):(\S+)$`)
)

// Title is a parsed title. Date is empty when the title did not start with one.
type Title struct {
	Date   string
	Desc   string
	Tags   tagexpr.Expr
	Fields map[string]string
}

// Parse splits text. Tag syntax errors come back as tagexpr.ErrMalformed.
func Parse(text string) (Title, error) {
	var t Title
	text = strings.TrimSpace(text)
	if m := leadingDate.FindStringSubmatch(text); m != nil {
		t.Date = m[1]
		text = text[len(m[0]):]
	}
	rest, expr, err := tagexpr.Parse(text)
	if err != nil {
		return Title{}, err
	}
	t.Tags = expr
	var words []string
	for _, w := range strings.Fields(rest) {
		m := fieldToken.FindStringSubmatch(w)
		if m == nil || strings.HasPrefix(m[2], "//") {
			words = append(words, w)
			continue
		}
		if t.Fields == nil {
			t.Fields = map[string]string{}
		}
		t.Fields[m[1]] = m[2]
	}
	t.Desc = strings.Join(words, " ")
	return t, nil
}

// Apply copies the title's description, tags and fields onto r. Negated
// tags are refused: they only exist in queries. Reserved fields due and
// repeat are typed; other reserved names are refused.
func (t Title) Apply(r *record.Record) error {
	if len(t.Tags.Excluded) > 0 {
		return &tagexpr.TokenError{Token: "+~" + t.Tags.Excluded[0], Reason: "negated tags can only be used in queries"}
	}
	if t.Desc != "" {
		r.Desc = t.Desc
	}
	if len(t.Tags.Required) > 0 {
		r.Tags = append([]string(nil), t.Tags.Required...)
	}
	for k, v := range t.Fields {
		switch k {
		case "due":
			d, err := record.ParseDate(v)
			if err != nil {
				return &datespec.SpecError{Input: v, Reason: "due must be YYYY-MM-DD"}
			}
			r.Due = &d
		case "repeat":
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				return fmt.Errorf("%w: repeat must be a positive number of days, got %q", record.ErrInvalid, v)
			}
			r.RepeatDays = &n
		default:
			if err := r.SetField(k, v); err != nil {
				return err
			}
		}
	}
	return nil
}

// DateSpec merges the title's leading date into the command's date flags.
func (t Title) DateSpec(s datespec.Spec) datespec.Spec {
	if t.Date != "" {
		s.Date = t.Date
	}
	return s
}

// ParseClock parses a duration given as minutes ("90") or hours and
// minutes ("1:30").
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	bad := fmt.Errorf("%w: clock %q must be MINUTES or H:MM", record.ErrInvalid, s)
	switch len(parts) {
	case 1:
		n, err := strconv.Atoi(parts[0])
		if err != nil || n < 0 {
			return 0, bad
		}
		return n, nil
	case 2:
		h, err1 := strconv.Atoi(parts[0])
		m, err2 := strconv.Atoi(parts[1])
		if err1 != nil || err2 != nil || h < 0 || m < 0 || m >= 60 {
			return 0, bad
		}
		return h*60 + m, nil
	default:
		return 0, bad
	}
}

// Elapsed returns the start of an activity that began minutes before now.
func Elapsed(now time.Time, minutes int) time.Time {
	return now.Add(-time.Duration(minutes) * time.Minute)
}
