// Package component provides component library implementations: a static
// in-memory list, the embedded built-in catalog and a directory of library
// files that can be watched for changes.
package component

import (
	"context"
	"log/slog"
	"slices"

	"github.com/soc-pilot/drc/internal/diagram"
)

// Static is a fixed, always-ready component library.
type Static struct {
	comps []diagram.ArchitecturalComponent
}

// NewStatic returns a library serving comps.
func NewStatic(comps ...diagram.ArchitecturalComponent) *Static {
	return &Static{comps: slices.Clone(comps)}
}

// EnsureInitialized is a no-op.
func (s *Static) EnsureInitialized(context.Context) error { return nil }

// GetAllComponents returns a copy of the component list.
func (s *Static) GetAllComponents() []diagram.ArchitecturalComponent {
	return slices.Clone(s.comps)
}

// Library is the collaborator the checker consumes.
type Library interface {
	EnsureInitialized(ctx context.Context) error
	GetAllComponents() []diagram.ArchitecturalComponent
}

// Open returns a FileLibrary for dir, or the built-in catalog when dir is empty.
func Open(dir string, log *slog.Logger) (Library, error) {
	if dir == "" {
		return Builtin()
	}
	return NewFileLibrary(dir, log), nil
}
