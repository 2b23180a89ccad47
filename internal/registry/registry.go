// Package registry loads schema definitions from a directory of YAML/JSON
// files, compiles their constraints, and serves them by name. It can watch
// the directory and hot-reload definitions as files change.
package registry

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/phrazzld/synthgen/internal/constraint"
	"github.com/phrazzld/synthgen/internal/domain"
)

// Entry is one registered schema together with its compiled constraints.
type Entry struct {
	Schema      *domain.Schema
	Constraints *constraint.Engine
}

// Registry holds the loaded schemas. Reads are safe for concurrent use;
// Reload swaps the whole set atomically.
type Registry struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]Entry
}

// New creates a Registry over dir and performs the initial load.
// If logger is nil, the default logger is used.
func New(dir string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		dir:     dir,
		logger:  logger.With(slog.String("component", "schema_registry")),
		entries: make(map[string]Entry),
	}

	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload rescans the directory and replaces the registered schema set.
// A file that fails to parse, validate, or compile aborts the reload and
// leaves the previous set in place.
func (r *Registry) Reload() error {
	files, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading schema directory %s: %w", r.dir, err)
	}

	next := make(map[string]Entry)
	for _, f := range files {
		if f.IsDir() || !schemaFile(f.Name()) {
			continue
		}

		path := filepath.Join(r.dir, f.Name())
		schema, err := loadSchemaFile(path)
		if err != nil {
			return err
		}

		if _, dup := next[schema.Name]; dup {
			return fmt.Errorf("schema %q declared by more than one file", schema.Name)
		}

		engine, err := constraint.NewEngine(schema)
		if err != nil {
			return fmt.Errorf("schema %q: %w", schema.Name, err)
		}

		next[schema.Name] = Entry{Schema: schema, Constraints: engine}
	}

	r.mu.Lock()
	r.entries = next
	r.mu.Unlock()

	r.logger.Info("schema registry loaded", "dir", r.dir, "schemas", len(next))
	return nil
}

// Get returns the entry for the named schema.
func (r *Registry) Get(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %q", domain.ErrSchemaNotFound, name)
	}
	return e, nil
}

// List returns the registered schemas sorted by name.
func (r *Registry) List() []*domain.Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schemas := make([]*domain.Schema, 0, len(r.entries))
	for _, e := range r.entries {
		schemas = append(schemas, e.Schema)
	}
	sort.Slice(schemas, func(i, j int) bool { return schemas[i].Name < schemas[j].Name })
	return schemas
}

// Watch reloads the registry whenever a schema file changes, until ctx is
// cancelled. Reload failures are logged and the previous schema set stays
// active.
func (r *Registry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	if err := watcher.Add(r.dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching %s: %w", r.dir, err)
	}

	go func() {
		defer func() {
			if cerr := watcher.Close(); cerr != nil {
				r.logger.Warn("failed to close watcher", "error", cerr)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !schemaFile(event.Name) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}

				r.logger.Debug("schema file changed", "file", event.Name, "op", event.Op.String())
				if err := r.Reload(); err != nil {
					r.logger.Error("schema reload failed, keeping previous set", "error", err)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				r.logger.Error("schema watcher error", "error", err)
			}
		}
	}()

	return nil
}

func schemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// loadSchemaFile parses one schema definition file and validates it.
func loadSchemaFile(path string) (*domain.Schema, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading schema file %s: %w", path, err)
	}

	var schema domain.Schema
	if err := v.Unmarshal(&schema); err != nil {
		return nil, fmt.Errorf("parsing schema file %s: %w", path, err)
	}

	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("schema file %s: %w", path, err)
	}

	return &schema, nil
}
