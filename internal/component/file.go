package component

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/libhcl"
	"github.com/soc-pilot/drc/internal/logger"
)

// FileLibrary loads components from the .hcl, .json and .yaml files of a
// directory. Files are read in name order; on duplicate ids the first wins.
type FileLibrary struct {
	dir string
	log *slog.Logger

	mu     sync.RWMutex
	loaded bool
	comps  []diagram.ArchitecturalComponent

	// OnReload, when set, is called after every reload attempt.
	OnReload func(count int, err error)
}

// NewFileLibrary returns a library reading dir. Nothing is read until
// EnsureInitialized.
func NewFileLibrary(dir string, log *slog.Logger) *FileLibrary {
	if log == nil {
		log = logger.Default
	}
	return &FileLibrary{dir: dir, log: log}
}

// EnsureInitialized loads the directory once. A failed load is retried on
// the next call.
func (l *FileLibrary) EnsureInitialized(ctx context.Context) error {
	l.mu.RLock()
	loaded := l.loaded
	l.mu.RUnlock()
	if loaded {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded {
		return nil
	}
	comps, err := LoadDir(l.dir)
	if err != nil {
		return err
	}
	l.comps, l.loaded = comps, true
	l.log.Info("component library loaded", "dir", l.dir, "components", len(comps))
	return nil
}

// GetAllComponents returns the current component set.
func (l *FileLibrary) GetAllComponents() []diagram.ArchitecturalComponent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.comps)
}

// Reload re-reads the directory. On failure the previous set is kept.
func (l *FileLibrary) Reload() error {
	comps, err := LoadDir(l.dir)
	if err != nil {
		l.log.Warn("component library reload failed", "dir", l.dir, "error", err)
	} else {
		l.mu.Lock()
		l.comps, l.loaded = comps, true
		l.mu.Unlock()
		l.log.Info("component library reloaded", "dir", l.dir, "components", len(comps))
	}
	if l.OnReload != nil {
		l.OnReload(len(comps), err)
	}
	return err
}

// Watch reloads the library whenever a library file in the directory
// changes. It blocks until ctx is done.
func (l *FileLibrary) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}
	defer w.Close()
	if err := w.Add(l.dir); err != nil {
		return fmt.Errorf("watch %s: %w", l.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isLibraryFile(ev.Name) {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
				_ = l.Reload()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.log.Error("component library watcher error", "dir", l.dir, "error", err)
		}
	}
}

// LoadDir reads every library file in dir.
func LoadDir(dir string) ([]diagram.ArchitecturalComponent, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read library dir: %w", err)
	}
	var out []diagram.ArchitecturalComponent
	for _, e := range entries {
		if e.IsDir() || !isLibraryFile(e.Name()) {
			continue
		}
		comps, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, comps...)
	}
	return out, nil
}

// LoadFile decodes one library file by extension.
func LoadFile(path string) ([]diagram.ArchitecturalComponent, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read library file: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return libhcl.Decode(path, src)
	case ".json":
		return decodeJSON(path, src)
	case ".yaml", ".yml":
		return decodeYAML(path, src)
	}
	return nil, fmt.Errorf("%s: unsupported library file type", path)
}

func isLibraryFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".hcl", ".json", ".yaml", ".yml":
		return !strings.HasPrefix(filepath.Base(name), ".")
	}
	return false
}

// libraryDoc is the object form of a JSON/YAML library file; a bare list of
// components is accepted too.
type libraryDoc struct {
	Components []diagram.ArchitecturalComponent `json:"components" yaml:"components"`
}

func decodeJSON(path string, src []byte) ([]diagram.ArchitecturalComponent, error) {
	src = bytes.TrimSpace(src)
	if len(src) > 0 && src[0] == '[' {
		var list []diagram.ArchitecturalComponent
		if err := json.Unmarshal(src, &list); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return list, nil
	}
	var doc libraryDoc
	if err := json.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc.Components, nil
}

func decodeYAML(path string, src []byte) ([]diagram.ArchitecturalComponent, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(src, &node); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var list []diagram.ArchitecturalComponent
		if err := root.Decode(&list); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return list, nil
	}
	var doc libraryDoc
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc.Components, nil
}
