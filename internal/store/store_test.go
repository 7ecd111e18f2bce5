package store

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/logbook/internal/record"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	recs, err := LoadRecords(filepath.Join(t.TempDir(), "nope.yml"), record.KindLog)
	require.NoError(t, err)
	assert.Empty(t, recs)

	tf, err := LoadTodo(filepath.Join(t.TempDir(), "todo.yml"))
	require.NoError(t, err)
	assert.Empty(t, tf.Active)
	assert.Empty(t, tf.Scheduled)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "log.yml")
	now := time.Date(2024, 1, 2, 10, 0, 0, 0, time.Local)
	a := record.NewLogEntry(day(2), "first", []string{"x"}, now)
	require.NoError(t, a.SetField("project", "apollo"))
	b := record.NewLogEntry(day(3), "second", nil, now.Add(time.Hour))
	in := []record.Record{a, b}

	require.NoError(t, SaveRecords(path, in))
	out, err := LoadRecords(path, record.KindLog)
	require.NoError(t, err)
	if diff := cmp.Diff(in, out, cmpopts.IgnoreUnexported(record.Record{})); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, SaveRecords(path, out))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second), "unmodified save reproduces the file")
}

func TestUnknownFieldsSurviveRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.yml")
	content := `- author: Ursula K. Le Guin
  date: 2023-05-01
  desc: The Dispossessed
  rating: 5
  shelf:
    - sci-fi
    - favourites
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	recs, err := LoadRecords(path, record.KindEntry)
	require.NoError(t, err)
	require.NoError(t, SaveRecords(path, recs))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	var generic []map[string]any
	require.NoError(t, yaml.Unmarshal(first, &generic))
	require.Len(t, generic, 1)
	assert.Equal(t, "Ursula K. Le Guin", generic[0]["author"])
	assert.Equal(t, 5, generic[0]["rating"])
	assert.Equal(t, []any{"sci-fi", "favourites"}, generic[0]["shelf"])

	recs, err = LoadRecords(path, record.KindEntry)
	require.NoError(t, err)
	require.NoError(t, SaveRecords(path, recs))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestLoadRejectsInvalidRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.yml")
	require.NoError(t, os.WriteFile(path, []byte("- desc: no date here\n"), 0o644))
	_, err := LoadRecords(path, record.KindEntry)
	require.ErrorIs(t, err, ErrRead)
	assert.ErrorIs(t, err, record.ErrInvalid)
	assert.Contains(t, err.Error(), path)

	require.NoError(t, os.WriteFile(path, []byte("date: [unclosed\n"), 0o644))
	_, err = LoadRecords(path, record.KindEntry)
	assert.ErrorIs(t, err, ErrRead)
}

func TestUpdateLeavesFileOnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.yml")
	require.NoError(t, SaveRecords(path, []record.Record{record.NewEntry(day(1), "keep me", nil)}))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = Update(path, record.KindEntry, func(recs []record.Record) ([]record.Record, error) {
		return nil, boom
	})
	require.ErrorIs(t, err, boom)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTodoFilePreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.yml")
	content := `owner: me
scheduled:
  - date: 2024-01-05
    desc: pay rent
    repeat: 30
todo:
  - date: 2024-01-01
    desc: call mum
    tags:
      - family
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	tf, err := LoadTodo(path)
	require.NoError(t, err)
	require.Len(t, tf.Active, 1)
	require.Len(t, tf.Scheduled, 1)
	assert.Equal(t, record.KindTask, tf.Scheduled[0].Kind)
	require.NotNil(t, tf.Scheduled[0].RepeatDays)
	assert.Equal(t, 30, *tf.Scheduled[0].RepeatDays)

	require.NoError(t, SaveTodo(path, tf))
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, yaml.Unmarshal(got, &generic))
	assert.Equal(t, "me", generic["owner"])
	assert.Len(t, generic["todo"], 1)
	assert.Len(t, generic["scheduled"], 1)

	again, err := LoadTodo(path)
	require.NoError(t, err)
	require.NoError(t, SaveTodo(path, again))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(got), string(second))
}

func TestUpdateTodo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "todo.yml")
	_, err := UpdateTodo(path, func(tf *TodoFile) (bool, error) {
		tf.Active = append(tf.Active, record.NewTask(day(1), "one", nil))
		return true, nil
	})
	require.NoError(t, err)

	_, err = UpdateTodo(path, func(tf *TodoFile) (bool, error) {
		tf.Active = nil
		return false, errors.New("abort")
	})
	require.Error(t, err)

	tf, err := LoadTodo(path)
	require.NoError(t, err)
	require.Len(t, tf.Active, 1)
	assert.Equal(t, "one", tf.Active[0].Desc)
}

func TestTake(t *testing.T) {
	recs := []record.Record{
		record.NewTask(day(1), "a", nil),
		record.NewTask(day(1), "b", nil),
		record.NewTask(day(1), "c", nil),
	}
	got, rest, err := Take("todo", recs, 1)
	require.NoError(t, err)
	assert.Equal(t, "b", got.Desc)
	require.Len(t, rest, 2)
	assert.Equal(t, "c", rest[1].Desc)
	assert.Equal(t, "b", recs[1].Desc, "input is not modified")

	_, _, err = Take("todo", recs, 3)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "0 to 2")
}

func TestLongNotes(t *testing.T) {
	dir := t.TempDir()
	ref, err := WriteLongNote(dir, "line one\nline two\n")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(ref, record.NotePrefix+"note_"))

	text, err := ReadNote(dir, record.Record{Note: ref})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", text)

	text, err = ReadNote(dir, record.Record{Note: "inline"})
	require.NoError(t, err)
	assert.Equal(t, "inline", text)

	_, err = ReadNote(dir, record.Record{Note: record.NotePrefix + "missing.md"})
	assert.ErrorIs(t, err, ErrRead)

	_, err = WriteLongNote(dir, "  \n")
	assert.ErrorIs(t, err, record.ErrInvalid)
}

func TestRemoveNote(t *testing.T) {
	dir := t.TempDir()
	ref, err := WriteLongNote(dir, "scratch")
	require.NoError(t, err)

	require.NoError(t, RemoveNote(dir, record.Record{Note: ref}))
	_, err = ReadNote(dir, record.Record{Note: ref})
	assert.ErrorIs(t, err, ErrRead)

	assert.NoError(t, RemoveNote(dir, record.Record{Note: ref}), "already gone")
	assert.NoError(t, RemoveNote(dir, record.Record{Note: "inline"}))
}
