package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/amirbrooks/logbook/internal/record"
)

const (
	todoKey      = "todo"
	scheduledKey = "scheduled"
)

// TodoFile is the todo document: the active list under "todo" and the
// scheduled list under "scheduled". Other top-level keys survive a rewrite.
type TodoFile struct {
	Active    []record.Record
	Scheduled []record.Record

	doc *yaml.Node
}

// LoadTodo reads the todo file. A missing file is an empty document.
func LoadTodo(path string) (*TodoFile, error) {
	tf := &TodoFile{Active: []record.Record{}, Scheduled: []record.Record{}}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return tf, nil
		}
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, &PathError{Op: "read", Path: path, Err: err}
	}
	if len(doc.Content) == 0 {
		return tf, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &PathError{Op: "read", Path: path, Err: fmt.Errorf("todo file must be a mapping with %q and %q lists", todoKey, scheduledKey)}
	}
	tf.doc = &doc
	for i := 0; i+1 < len(root.Content); i += 2 {
		var (
			dst  *[]record.Record
			kind = record.KindTask
		)
		switch root.Content[i].Value {
		case todoKey:
			dst = &tf.Active
		case scheduledKey:
			dst = &tf.Scheduled
		default:
			continue
		}
		var recs []record.Record
		if err := root.Content[i+1].Decode(&recs); err != nil {
			return nil, &PathError{Op: "read", Path: path, Err: fmt.Errorf("%s: %w", root.Content[i].Value, err)}
		}
		if err := prepare(recs, kind); err != nil {
			return nil, &PathError{Op: "read", Path: path, Err: fmt.Errorf("%s: %w", root.Content[i].Value, err)}
		}
		if recs != nil {
			*dst = recs
		}
	}
	return tf, nil
}

// SaveTodo writes tf back to path.
func SaveTodo(path string, tf *TodoFile) error {
	root, err := tf.node()
	if err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	b, err := encode(root)
	if err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	if err := atomicWriteFile(path, b, 0o644); err != nil {
		return &PathError{Op: "write", Path: path, Err: err}
	}
	return nil
}

// UpdateTodo runs fn against the freshly loaded todo file and saves the
// result as one atomic replace. When fn fails the file is not written.
// fn reports whether it changed anything; an unchanged file is not rewritten.
func UpdateTodo(path string, fn func(*TodoFile) (bool, error)) (*TodoFile, error) {
	tf, err := LoadTodo(path)
	if err != nil {
		return nil, err
	}
	changed, err := fn(tf)
	if err != nil {
		return nil, err
	}
	if !changed {
		return tf, nil
	}
	if err := SaveTodo(path, tf); err != nil {
		return nil, err
	}
	return tf, nil
}

func (tf *TodoFile) node() (*yaml.Node, error) {
	var active, scheduled yaml.Node
	if err := active.Encode(nonNil(tf.Active)); err != nil {
		return nil, err
	}
	if err := scheduled.Encode(nonNil(tf.Scheduled)); err != nil {
		return nil, err
	}
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if tf.doc != nil && len(tf.doc.Content) > 0 {
		root = tf.doc.Content[0]
	}
	set := func(key string, val *yaml.Node) {
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == key {
				root.Content[i+1] = val
				return
			}
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, val)
	}
	set(scheduledKey, &scheduled)
	set(todoKey, &active)
	return root, nil
}

func nonNil(recs []record.Record) []record.Record {
	if recs == nil {
		return []record.Record{}
	}
	return recs
}
