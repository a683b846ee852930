package rules

import (
	"fmt"
	"strings"

	"fortio.org/safecast"

	"github.com/soc-pilot/drc/internal/graph"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

var (
	metaBandwidth = registry.Meta{
		ID: "DRC-PERF-001", Name: "Bandwidth bottleneck", Severity: result.Warning, Category: result.Performance,
		Description: "Aggregate master demand into a component should not exceed its declared bandwidth.",
	}
	metaClockDomain = registry.Meta{
		ID: "DRC-PERF-002", Name: "Clock domain crossing", Severity: result.Info, Category: result.Performance,
		Description: "Connections between clock domains need synchronizers.",
	}
	metaLongPath = registry.Meta{
		ID: "DRC-PERF-003", Name: "Long connection path", Severity: result.Info, Category: result.Performance,
		Description: "Deep master-to-slave chains add latency.",
	}
)

// demand estimates the bandwidth an initiator pushes over one edge in MB/s:
// the interface's declared bandwidth, else dataWidth/8 bytes per cycle at the
// initiator's clock (MHz).
func demand(e *graph.EdgeRef) float64 {
	if bw := e.InitiatorIface.Bandwidth; bw > 0 {
		return bw
	}
	bits, err := safecast.Conv[uint64](e.InitiatorIface.DataWidth)
	if err != nil || bits == 0 {
		return 0
	}
	return float64(bits/8) * e.Initiator.Component.ClockFrequency
}

type bandwidthRule struct{}

func (bandwidthRule) Meta() registry.Meta { return metaBandwidth }

func (bandwidthRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		capacity := n.Component.Bandwidth
		if capacity <= 0 {
			continue
		}
		var total float64
		var contenders []string
		for _, e := range busEdgesInto(ctx, n.ID()) {
			d := demand(e)
			if d == 0 {
				continue
			}
			total += d
			contenders = append(contenders, e.Initiator.ID())
		}
		if total <= capacity {
			continue
		}
		out = append(out, metaBandwidth.Finding(
			fmt.Sprintf("%s is a bandwidth bottleneck: demand %.0f MB/s exceeds capacity %.0f MB/s",
				n.Label(), total, capacity),
			append([]string{n.ID()}, dedupe(contenders)...),
			"Widen the datapath, raise the clock, or spread traffic over more slaves"))
	}
	return out
}

type clockDomainRule struct{}

func (clockDomainRule) Meta() registry.Meta { return metaClockDomain }

func (clockDomainRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, e := range busEdges(ctx) {
		if !crossesDomain(e) {
			continue
		}
		out = append(out, edgeFinding(metaClockDomain, e,
			fmt.Sprintf("%s crosses from clock domain %s to %s", e.Label(),
				strings.TrimSpace(e.Initiator.Component.ClockDomain),
				strings.TrimSpace(e.Responder.Component.ClockDomain)),
			"Insert a clock domain crossing bridge or asynchronous FIFO"))
	}
	return out
}

type longPathRule struct{}

func (longPathRule) Meta() registry.Meta { return metaLongPath }

func (longPathRule) Check(ctx *registry.Context) []result.Finding {
	limit := ctx.Options.MaxPathLength
	if limit <= 0 {
		return nil
	}
	g := requestGraph(ctx)
	depth, err := g.LongestPaths()
	if err != nil {
		// cycles are reported by DRC-TOPO-001
		return nil
	}

	preds := make(map[string][]string)
	for _, u := range g.Nodes() {
		for _, v := range g.Successors(u) {
			preds[v] = append(preds[v], u)
		}
	}

	var out []result.Finding
	for _, id := range g.Nodes() {
		if len(g.Successors(id)) > 0 || depth[id] <= limit {
			continue
		}
		path := []string{id}
		for cur := id; depth[cur] > 0; {
			for _, p := range preds[cur] {
				if depth[p] == depth[cur]-1 {
					cur = p
					break
				}
			}
			path = append([]string{cur}, path...)
		}
		labels := make([]string, len(path))
		for i, p := range path {
			labels[i] = nodeLabel(ctx.Index, p)
		}
		out = append(out, metaLongPath.Finding(
			fmt.Sprintf("%s is %d hops from %s (limit %d): %s",
				nodeLabel(ctx.Index, id), depth[id], labels[0], limit, strings.Join(labels, " -> ")),
			path, "Flatten the hierarchy or connect the slave closer to its masters"))
	}
	return out
}
