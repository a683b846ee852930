package rules

import (
	"fmt"
	"strings"

	"github.com/soc-pilot/drc/internal/dependency"
	"github.com/soc-pilot/drc/internal/graph"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

var (
	metaCycle = registry.Meta{
		ID: "DRC-TOPO-001", Name: "Circular dependency", Severity: result.Critical, Category: result.Topology,
		Description: "Bus requests must not loop back to their initiator.",
	}
	metaIsolated = registry.Meta{
		ID: "DRC-TOPO-002", Name: "Isolated component", Severity: result.Warning, Category: result.Topology,
		Description: "Every component should be connected to the rest of the design.",
	}
	metaFanOut = registry.Meta{
		ID: "DRC-TOPO-003", Name: "Interconnect fan-out", Severity: result.Warning, Category: result.Topology,
		Description: "An interconnect should not be shared by more masters than configured.",
	}
)

// requestGraph builds the master -> slave graph over resolved bus edges.
func requestGraph(ctx *registry.Context) *dependency.Graph {
	g := dependency.New(ctx.Index.NodeIDs()...)
	for _, e := range busEdges(ctx) {
		g.AddEdge(e.Initiator.ID(), e.Responder.ID())
	}
	return g
}

type cycleRule struct{}

func (cycleRule) Meta() registry.Meta { return metaCycle }

func (cycleRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, c := range requestGraph(ctx).Cycles() {
		members := c.Path[:len(c.Path)-1]
		labels := make([]string, len(c.Path))
		for i, id := range c.Path {
			labels[i] = nodeLabel(ctx.Index, id)
		}
		out = append(out, metaCycle.Finding(
			fmt.Sprintf("circular bus dependency: %s", strings.Join(labels, " -> ")),
			append([]string(nil), members...),
			fmt.Sprintf("Break the loop by removing the connection from %s to %s",
				nodeLabel(ctx.Index, c.From), nodeLabel(ctx.Index, c.To))))
	}
	return out
}

type isolatedRule struct{}

func (isolatedRule) Meta() registry.Meta { return metaIsolated }

func (isolatedRule) Check(ctx *registry.Context) []result.Finding {
	nodes := uniqueNodes(ctx.Index)
	if len(nodes) < 2 {
		return nil
	}
	var out []result.Finding
	for _, n := range nodes {
		if len(ctx.Index.Incident(n.ID())) > 0 {
			continue
		}
		out = append(out, metaIsolated.Finding(
			fmt.Sprintf("%s has no connections", n.Label()),
			[]string{n.ID()}, "Connect the component or remove it from the design"))
	}
	return out
}

type fanOutRule struct{}

func (fanOutRule) Meta() registry.Meta { return metaFanOut }

func (fanOutRule) Check(ctx *registry.Context) []result.Finding {
	limit := ctx.Options.MaxFanOut
	if limit <= 0 {
		return nil
	}
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		if !n.IsInterconnect() {
			continue
		}
		var masters []string
		for _, e := range busEdgesInto(ctx, n.ID()) {
			masters = append(masters, e.Initiator.ID())
		}
		masters = dedupe(masters)
		if len(masters) <= limit {
			continue
		}
		out = append(out, metaFanOut.Finding(
			fmt.Sprintf("%s is shared by %d masters (limit %d)", n.Label(), len(masters), limit),
			append([]string{n.ID()}, masters...),
			"Split the masters across several interconnects or cascade the interconnect"))
	}
	return out
}

func busEdgesInto(ctx *registry.Context, nodeID string) []*graph.EdgeRef {
	var out []*graph.EdgeRef
	for _, e := range busEdges(ctx) {
		if e.Responder.ID() == nodeID && e.Initiator.ID() != nodeID {
			out = append(out, e)
		}
	}
	return out
}

func nodeLabel(idx *graph.Index, id string) string {
	if n := idx.Node(id); n != nil {
		return n.Label()
	}
	return id
}
