// Package query filters record collections by date range and tag
// expression, orders them, groups them by day and totals their clocks.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/amirbrooks/logbook/internal/datespec"
	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/tagexpr"
)

// Query is a date range plus a tag expression. The zero Query matches everything.
type Query struct {
	Range datespec.Range
	Tags  tagexpr.Expr
}

func (q Query) Match(r record.Record) bool {
	return q.Range.Contains(r.Date) && q.Tags.Match(r.Tags)
}

// Filter returns the records matching q in their original order. The input
// slice is not modified.
func Filter(recs []record.Record, q Query) []record.Record {
	if q.Range.Empty() {
		return []record.Record{}
	}
	out := make([]record.Record, 0, len(recs))
	for _, r := range recs {
		if q.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Sort returns a copy of recs ordered ascending by key. An empty key keeps
// file order. Ties and records missing the key keep their relative order;
// records missing the key sort first.
func Sort(recs []record.Record, key string) []record.Record {
	out := append([]record.Record(nil), recs...)
	key = strings.TrimSpace(key)
	if key == "" {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(sortValue(out[i], key), sortValue(out[j], key))
	})
	return out
}

// Run filters recs with q and orders the result by sortKey.
func Run(recs []record.Record, q Query, sortKey string) []record.Record {
	return Sort(Filter(recs, q), sortKey)
}

type value struct {
	ok   bool
	t    time.Time
	s    string
	isTm bool
}

func less(a, b value) bool {
	if !a.ok || !b.ok {
		return !a.ok && b.ok
	}
	if a.isTm && b.isTm {
		return a.t.Before(b.t)
	}
	return a.s < b.s
}

func sortValue(r record.Record, key string) value {
	switch key {
	case "date":
		return value{ok: !r.Date.IsZero(), t: r.Date, isTm: true}
	case "due":
		if r.Due == nil {
			return value{}
		}
		return value{ok: true, t: *r.Due, isTm: true}
	case "tstamp":
		if r.LoggedAt == nil {
			return value{}
		}
		return value{ok: true, t: *r.LoggedAt, isTm: true}
	case "tfinish":
		if r.FinishedAt == nil {
			return value{}
		}
		return value{ok: true, t: *r.FinishedAt, isTm: true}
	case "desc":
		return value{ok: r.Desc != "", s: strings.ToLower(r.Desc)}
	}
	v, ok := r.Fields[key]
	return value{ok: ok, s: v}
}

// DayGroup is the records of one calendar day.
type DayGroup struct {
	Date    time.Time
	Records []record.Record
}

// Calendar partitions recs into one group per distinct date, ascending by
// date, keeping the input order inside each group.
func Calendar(recs []record.Record) []DayGroup {
	index := map[time.Time]int{}
	var groups []DayGroup
	for _, r := range recs {
		d := record.Day(r.Date)
		i, ok := index[d]
		if !ok {
			i = len(groups)
			index[d] = i
			groups = append(groups, DayGroup{Date: d})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Date.Before(groups[j].Date) })
	return groups
}
