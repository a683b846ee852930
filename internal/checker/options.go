package checker

import "github.com/soc-pilot/drc/internal/registry"

// Options is an alias for registry.Options so callers need not import registry.
// The actual type lives in registry to avoid import cycles with the rules.
type Options = registry.Options

// ReservedRegion is an alias for registry.ReservedRegion.
type ReservedRegion = registry.ReservedRegion

// DefaultOptions returns default evaluation options.
func DefaultOptions() Options {
	return registry.DefaultOptions()
}

// maxParallelCap bounds the rule worker pool.
const maxParallelCap = 32

// RuleMeta is an alias for registry.Meta.
type RuleMeta = registry.Meta
