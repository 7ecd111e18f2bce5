// Package store reads and writes record lists as YAML files. Every write
// replaces the whole file atomically; a failed transformation never reaches
// the disk.
package store

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/logbook/internal/record"
)

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

var (
	ErrNotFound = errors.New("not found")
	ErrRead     = errors.New("storage read failed")
	ErrWrite    = errors.New("storage write failed")
	timeNow     = func() time.Time { return time.Now() }
)

// PathError wraps a failure touching a backing file. It satisfies
// errors.Is(err, ErrRead) or errors.Is(err, ErrWrite) depending on Op.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

func (e *PathError) Is(target error) bool {
	switch target {
	case ErrRead:
		return e.Op == "read"
	case ErrWrite:
		return e.Op == "write"
	}
	return false
}

// NotFoundError reports an id outside a list. It satisfies errors.Is(err, ErrNotFound).
type NotFoundError struct {
	List string
	ID   int
	Len  int
}

func (e *NotFoundError) Error() string {
	if e.Len == 0 {
		return fmt.Sprintf("no %s item %d: list is empty", e.List, e.ID)
	}
	return fmt.Sprintf("no %s item %d: ids run from 0 to %d", e.List, e.ID, e.Len-1)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Take removes item id from recs and returns it with the remaining list.
func Take(list string, recs []record.Record, id int) (record.Record, []record.Record, error) {
	if id < 0 || id >= len(recs) {
		return record.Record{}, recs, &NotFoundError{List: list, ID: id, Len: len(recs)}
	}
	out := make([]record.Record, 0, len(recs)-1)
	out = append(out, recs[:id]...)
	out = append(out, recs[id+1:]...)
	return recs[id], out, nil
}

// LoadRecords reads a YAML list of records. A missing or empty file is an
// empty list. Every record is tagged with kind and validated.
func LoadRecords(path string, kind record.Kind) ([]record.Record, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []record.Record{}, nil
		}
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}
	var recs []record.Record
	if err := yaml.Unmarshal(b, &recs); err != nil {
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}
	if err := prepare(recs, kind); err != nil {
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}
	if recs == nil {
		recs = []record.Record{}
	}
	return recs, nil
}

// SaveRecords writes recs as a YAML list.
func SaveRecords(path string, recs []record.Record) error {
	b, err := encode(recs)
	if err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	if err := atomicWriteFile(path, b, 0o644); err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// Update loads the list at path, applies fn and writes the result back.
// When fn fails the file is left untouched.
func Update(path string, kind record.Kind, fn func([]record.Record) ([]record.Record, error)) ([]record.Record, error) {
	recs, err := LoadRecords(path, kind)
	if err != nil {
		return nil, err
	}
	out, err := fn(recs)
	if err != nil {
		return nil, err
	}
	if err := SaveRecords(path, out); err != nil {
		return nil, err
	}
	return out, nil
}

func prepare(recs []record.Record, kind record.Kind) error {
	for i := range recs {
		recs[i].Kind = kind
		if err := recs[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newULID() string {
	t := ulid.Timestamp(timeNow())
	entropy := ulid.Monotonic(randReader{}, 0)
	id, err := ulid.New(t, entropy)
	if err != nil {
		return fmt.Sprintf("%d", timeNow().UnixNano())
	}
	return strings.ToUpper(id.String())
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, perm); err != nil {
		_ = os.Remove(name)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(name, path); err != nil {
		_ = os.Remove(name)
		return err
	}
	return nil
}
