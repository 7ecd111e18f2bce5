// Package config loads the logbook configuration: where the log, todo and
// named collection files live.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownCollection is returned for a collection name the config does not define.
var ErrUnknownCollection = errors.New("unknown collection")

const (
	DefaultFile       = ".logbook.yml"
	DefaultCollection = "catch"

	EnvConfig = "LOGBOOK_CONFIG"
	EnvLog    = "LOGBOOK_LOG"
	EnvTodo   = "LOGBOOK_TODO"
)

// Collection is a named, non-chronological list such as books or quotes.
type Collection struct {
	Description string `yaml:"description"`
	File        string `yaml:"file"`
	// Sort names the field the collection is listed by; empty keeps file order.
	Sort string `yaml:"sort,omitempty"`
}

type Config struct {
	Log               string                `yaml:"log"`
	Todo              string                `yaml:"todo"`
	NotesDir          string                `yaml:"notes_dir"`
	DefaultCollection string                `yaml:"default_collection"`
	Collections       map[string]Collection `yaml:"collections"`

	// Path is the file the config was read from, empty when defaults are used.
	Path string `yaml:"-"`
}

// Default returns the configuration used when no file exists. Paths are
// relative to dir.
func Default(dir string) *Config {
	return &Config{
		Log:               filepath.Join(dir, "log.yml"),
		Todo:              filepath.Join(dir, "todo.yml"),
		NotesDir:          filepath.Join(dir, "notes"),
		DefaultCollection: DefaultCollection,
		Collections: map[string]Collection{
			DefaultCollection: {Description: "Captured notes", File: filepath.Join(dir, "catch.yml")},
		},
	}
}

// DefaultPath returns the config path from LOGBOOK_CONFIG or ~/.logbook.yml.
func DefaultPath() string {
	if p := strings.TrimSpace(os.Getenv(EnvConfig)); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	if home == "" {
		return DefaultFile
	}
	return filepath.Join(home, DefaultFile)
}

// Load reads the config at path. A missing file yields defaults rooted in
// the file's directory. Relative paths in the file resolve against that
// directory too.
func Load(path string) (*Config, error) {
	path = expandHome(path)
	dir := filepath.Dir(path)
	cfg := Default(dir)

	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		var fileCfg Config
		if err := yaml.Unmarshal(b, &fileCfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		cfg.merge(fileCfg)
		cfg.Path = path
	}
	cfg.applyEnvOverrides()
	cfg.resolve(dir)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if strings.TrimSpace(o.Log) != "" {
		c.Log = o.Log
	}
	if strings.TrimSpace(o.Todo) != "" {
		c.Todo = o.Todo
	}
	if strings.TrimSpace(o.NotesDir) != "" {
		c.NotesDir = o.NotesDir
	}
	if strings.TrimSpace(o.DefaultCollection) != "" {
		c.DefaultCollection = o.DefaultCollection
	}
	for name, col := range o.Collections {
		c.Collections[name] = col
	}
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv(EnvLog)); v != "" {
		c.Log = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTodo)); v != "" {
		c.Todo = v
	}
}

func (c *Config) resolve(dir string) {
	c.Log = resolvePath(dir, c.Log)
	c.Todo = resolvePath(dir, c.Todo)
	c.NotesDir = resolvePath(dir, c.NotesDir)
	for name, col := range c.Collections {
		col.File = resolvePath(dir, col.File)
		c.Collections[name] = col
	}
}

func (c *Config) Validate() error {
	for name, col := range c.Collections {
		if strings.TrimSpace(col.File) == "" {
			return fmt.Errorf("config: collection %q has no file", name)
		}
	}
	return nil
}

// Collection looks up a collection by name; an empty name means the default.
func (c *Config) Collection(name string) (string, Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = c.DefaultCollection
	}
	col, ok := c.Collections[name]
	if !ok {
		return "", Collection{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownCollection, name, strings.Join(c.CollectionNames(), ", "))
	}
	return name, col, nil
}

func (c *Config) CollectionNames() []string {
	names := make([]string, 0, len(c.Collections))
	for n := range c.Collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func resolvePath(dir, p string) string {
	p = expandHome(strings.TrimSpace(p))
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
