// Package rules holds the design rule battery. Each rule registers itself with
// registry.Default from an init function.
package rules

import (
	"sort"
	"strings"

	"github.com/soc-pilot/drc/internal/graph"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

// Register adds the full battery to r. registry.Default is populated at init.
func Register(r *registry.Registry) {
	for _, rule := range All() {
		r.Register(rule)
	}
}

// All returns a fresh instance of every rule.
func All() []registry.Rule {
	return []registry.Rule{
		roleRule{}, busTypeRule{}, existenceRule{}, unconnectedMasterRule{},
		multiMasterRule{}, unconnectedSlaveRule{}, signalDirectionRule{},
		dataWidthRule{}, idWidthRule{}, addrWidthRule{}, clockFrequencyRule{},
		overlapRule{}, alignmentRule{}, coverageRule{}, reservedRule{},
		cycleRule{}, isolatedRule{}, fanOutRule{},
		bandwidthRule{}, clockDomainRule{}, longPathRule{},
		requiredParamRule{}, paramTypeRule{}, paramRangeRule{},
		uniqueNameRule{}, ifaceNameRule{},
	}
}

func init() {
	Register(registry.Default)
}

// edgeFinding tags a finding with the edge it concerns.
func edgeFinding(m registry.Meta, e *graph.EdgeRef, msg, fix string) result.Finding {
	f := m.Finding(msg, endpoints(e), fix)
	f.EdgeID = e.Edge.ID
	return f
}

func endpoints(e *graph.EdgeRef) []string {
	ids := []string{e.Edge.Source}
	if e.Edge.Target != e.Edge.Source {
		ids = append(ids, e.Edge.Target)
	}
	return ids
}

// busEdges returns resolved bus edges, skipping those a connectivity rule broke.
func busEdges(ctx *registry.Context) []*graph.EdgeRef {
	var out []*graph.EdgeRef
	for _, e := range ctx.Index.Edges {
		if e.Dangling() || !e.IsBus() || ctx.Broken(e.Index) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// uniqueNodes returns the first occurrence of each node id in diagram order.
func uniqueNodes(idx *graph.Index) []*graph.Resolved {
	ids := idx.NodeIDs()
	out := make([]*graph.Resolved, len(ids))
	for i, id := range ids {
		out[i] = idx.Node(id)
	}
	return out
}

func isAXI(busType string) bool {
	return strings.HasPrefix(strings.ToUpper(strings.TrimSpace(busType)), "AXI")
}

// isFullAXI4 matches AXI4 proper; AXI4-Lite and AXI4-Stream carry no IDs.
func isFullAXI4(busType string) bool {
	return strings.EqualFold(strings.TrimSpace(busType), "AXI4")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
