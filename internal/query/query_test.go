package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirbrooks/logbook/internal/datespec"
	"github.com/amirbrooks/logbook/internal/record"
	"github.com/amirbrooks/logbook/internal/tagexpr"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func rec(d int, desc string, tags ...string) record.Record {
	return record.NewEntry(day(d), desc, tags)
}

func descs(recs []record.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Desc)
	}
	return out
}

func sample() []record.Record {
	return []record.Record{
		rec(3, "c", "work"),
		rec(1, "a1", "home"),
		rec(1, "a2", "work", "urgent"),
		rec(2, "b"),
	}
}

func TestEmptyQueryReturnsEverythingInOrder(t *testing.T) {
	in := sample()
	got := Filter(in, Query{})
	assert.Equal(t, descs(in), descs(got))
}

func TestFilterByTags(t *testing.T) {
	in := sample()
	work := Filter(in, Query{Tags: tagexpr.Expr{Required: []string{"work"}}})
	assert.Equal(t, []string{"c", "a2"}, descs(work))

	notUrgent := Filter(work, Query{Tags: tagexpr.Expr{Excluded: []string{"urgent"}}})
	assert.Equal(t, []string{"c"}, descs(notUrgent))

	for _, tag := range []string{"work", "home", "urgent", "missing"} {
		inc := Filter(in, Query{Tags: tagexpr.Expr{Required: []string{tag}}})
		both := Filter(inc, Query{Tags: tagexpr.Expr{Excluded: []string{tag}}})
		assert.Empty(t, both, tag)
	}
}

func TestFilterRangeBoundaries(t *testing.T) {
	var in []record.Record
	for d := 1; d <= 10; d++ {
		in = append(in, rec(d, time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC).Format("02")))
	}
	got := Filter(in, Query{Range: datespec.Range{Start: day(4), End: day(6)}})
	assert.Equal(t, []string{"04", "05", "06"}, descs(got))
}

func TestFilterEmptyRange(t *testing.T) {
	got := Filter(sample(), Query{Range: datespec.Range{Start: day(6), End: day(4)}})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	in := sample()
	before := descs(in)
	_ = Run(in, Query{Tags: tagexpr.Expr{Required: []string{"work"}}}, "date")
	assert.Equal(t, before, descs(in))
}

func TestSortIsStable(t *testing.T) {
	got := Sort(sample(), "date")
	assert.Equal(t, []string{"a1", "a2", "b", "c"}, descs(got))

	assert.Equal(t, descs(sample()), descs(Sort(sample(), "")))
}

func TestSortByOpenField(t *testing.T) {
	in := sample()
	require.NoError(t, in[0].SetField("author", "Le Guin"))
	require.NoError(t, in[2].SetField("author", "Austen"))
	got := Sort(in, "author")
	assert.Equal(t, []string{"a1", "b", "a2", "c"}, descs(got), "records without the field come first")
}

func TestCalendar(t *testing.T) {
	groups := Calendar(sample())
	require.Len(t, groups, 3)
	assert.Equal(t, day(1), groups[0].Date)
	assert.Equal(t, []string{"a1", "a2"}, descs(groups[0].Records))
	assert.Equal(t, day(2), groups[1].Date)
	assert.Equal(t, day(3), groups[2].Date)

	sorted := Calendar(Sort(sample(), "desc"))
	assert.Equal(t, day(1), sorted[0].Date)
}

func TestCalendarEmpty(t *testing.T) {
	assert.Empty(t, Calendar(nil))
}
