package datespec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func fixed() Resolver {
	return Resolver{Now: func() time.Time { return time.Date(2024, 1, 10, 17, 45, 0, 0, time.UTC) }}
}

func intp(n int) *int { return &n }

func TestSingle(t *testing.T) {
	r := fixed()
	cases := []struct {
		name string
		spec Spec
		want time.Time
	}{
		{"absent is today", Spec{}, day(2024, 1, 10)},
		{"today flag", Spec{Today: true}, day(2024, 1, 10)},
		{"days ago", Spec{DaysAgo: intp(3)}, day(2024, 1, 7)},
		{"explicit", Spec{Date: "2023-12-31"}, day(2023, 12, 31)},
		{"explicit wins over flags", Spec{Date: "2023-12-31", Today: true, DaysAgo: intp(1)}, day(2023, 12, 31)},
		{"today wins over days ago", Spec{Today: true, DaysAgo: intp(1)}, day(2024, 1, 10)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := r.Single(tc.spec)
			require.NoError(t, err)
			assert.True(t, tc.want.Equal(got), "want %s got %s", tc.want, got)
		})
	}
}

func TestSingleErrors(t *testing.T) {
	r := fixed()
	_, err := r.Single(Spec{Date: "10/01/2024"})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "10/01/2024")

	_, err = r.Single(Spec{DaysAgo: intp(-2)})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestRange(t *testing.T) {
	r := fixed()

	got, err := r.Range(Spec{})
	require.NoError(t, err)
	assert.True(t, got.Unbounded())

	got, err = r.Range(Spec{After: "2024-01-01"})
	require.NoError(t, err)
	assert.Equal(t, day(2024, 1, 1), got.Start)
	assert.Equal(t, day(2024, 1, 10), got.End, "start-only range ends today")

	got, err = r.Range(Spec{Before: "2024-01-05"})
	require.NoError(t, err)
	assert.True(t, got.Start.IsZero(), "end-only range is open towards the past")
	assert.True(t, got.Contains(day(1970, 1, 1)))

	got, err = r.Range(Spec{After: "2024-01-03", Before: "2024-01-03"})
	require.NoError(t, err)
	assert.True(t, got.Contains(day(2024, 1, 3)))

	got, err = r.Range(Spec{Today: true})
	require.NoError(t, err)
	assert.Equal(t, Day(day(2024, 1, 10)), got)

	got, err = r.Range(Spec{Date: "2023-06-01", After: "2024-01-01"})
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestRangeErrors(t *testing.T) {
	r := fixed()
	_, err := r.Range(Spec{After: "2024-02-01", Before: "2024-01-01"})
	require.ErrorIs(t, err, ErrInvalid)
	var se *SpecError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "2024-02-01..2024-01-01", se.Input)

	_, err = r.Range(Spec{Before: "yesterday"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestContainsBoundaries(t *testing.T) {
	rg := Range{Start: day(2024, 3, 1), End: day(2024, 3, 31)}
	assert.True(t, rg.Contains(day(2024, 3, 1)))
	assert.True(t, rg.Contains(day(2024, 3, 31)))
	assert.False(t, rg.Contains(day(2024, 2, 29)))
	assert.False(t, rg.Contains(day(2024, 4, 1)))
	assert.True(t, rg.Contains(time.Date(2024, 3, 31, 23, 59, 0, 0, time.UTC)))
}
