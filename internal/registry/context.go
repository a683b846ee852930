package registry

import (
	"github.com/soc-pilot/drc/internal/graph"
)

// Context is what a rule sees during one check. Broken edges are only marked
// during the sequential connectivity phase and read afterwards.
type Context struct {
	Index   *graph.Index
	Options Options

	broken map[int]bool
}

// NewContext returns a context over idx.
func NewContext(idx *graph.Index, opts Options) *Context {
	return &Context{Index: idx, Options: opts, broken: make(map[int]bool)}
}

// MarkBroken records that an edge failed a critical connectivity rule.
func (c *Context) MarkBroken(edgeIndex int) { c.broken[edgeIndex] = true }

// Broken reports whether later rules should skip the edge.
func (c *Context) Broken(edgeIndex int) bool { return c.broken[edgeIndex] }
