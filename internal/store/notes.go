package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/amirbrooks/logbook/internal/record"
)

// WriteLongNote stores text in its own file under dir and returns the note
// value that references it.
func WriteLongNote(dir, text string) (string, error) {
	text = strings.TrimRight(text, "\n")
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: note is empty", record.ErrInvalid)
	}
	name := "note_" + newULID() + ".md"
	path := filepath.Join(dir, name)
	if err := atomicWriteFile(path, []byte(text+"\n"), 0o644); err != nil {
		return "", &PathError{Op: "write", Path: path, Err: err}
	}
	return record.NotePrefix + name, nil
}

// ReadNote returns the note text of r, following a reference into dir.
func ReadNote(dir string, r record.Record) (string, error) {
	path, ok := notePath(dir, r)
	if !ok {
		return r.Note, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", &PathError{Op: "read", Path: path, Err: err}
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// RemoveNote deletes the file a long note of r refers to. Inline notes and
// already missing files are not an error.
func RemoveNote(dir string, r record.Record) error {
	path, ok := notePath(dir, r)
	if !ok {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func notePath(dir string, r record.Record) (string, bool) {
	ref, ok := r.NoteRef()
	if !ok {
		return "", false
	}
	path := ExpandHome(ref)
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	return path, true
}
