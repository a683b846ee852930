package rules

import (
	"errors"
	"fmt"

	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/graph"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

var (
	metaOverlap = registry.Meta{
		ID: "DRC-ADDR-001", Name: "Address space overlap", Severity: result.Critical, Category: result.Address,
		Description: "Two components cannot claim the same physical address range.",
	}
	metaAlignment = registry.Meta{
		ID: "DRC-ADDR-002", Name: "Address alignment", Severity: result.Warning, Category: result.Address,
		Description: "Base addresses should be aligned to the configured boundary.",
	}
	metaCoverage = registry.Meta{
		ID: "DRC-ADDR-003", Name: "Address coverage", Severity: result.Warning, Category: result.Address,
		Description: "Every bus slave needs a valid address mapping.",
	}
	metaReserved = registry.Meta{
		ID: "DRC-ADDR-004", Name: "Reserved address space", Severity: result.Info, Category: result.Address,
		Description: "Components should stay out of reserved address regions.",
	}
)

type mapped struct {
	node *graph.Resolved
	rng  diagram.AddressRange
}

// mappedNodes returns every unique node with a parseable address mapping.
func mappedNodes(idx *graph.Index) []mapped {
	var out []mapped
	for _, n := range uniqueNodes(idx) {
		r, err := n.Component.AddressMapping.Range()
		if err != nil {
			continue
		}
		out = append(out, mapped{node: n, rng: r})
	}
	return out
}

type overlapRule struct{}

func (overlapRule) Meta() registry.Meta { return metaOverlap }

func (overlapRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	nodes := mappedNodes(ctx.Index)
	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			if !a.rng.Overlaps(b.rng) {
				continue
			}
			out = append(out, metaOverlap.Finding(
				fmt.Sprintf("%s (%s) overlaps %s (%s)", a.node.Label(), a.rng, b.node.Label(), b.rng),
				[]string{a.node.ID(), b.node.ID()},
				fmt.Sprintf("Move %s to a free range starting at or above 0x%X", b.node.Label(), a.rng.Last+1)))
		}
	}
	return out
}

type alignmentRule struct{}

func (alignmentRule) Meta() registry.Meta { return metaAlignment }

func (alignmentRule) Check(ctx *registry.Context) []result.Finding {
	align := ctx.Options.AddressAlignment
	if align == 0 {
		return nil
	}
	var out []result.Finding
	for _, m := range mappedNodes(ctx.Index) {
		if m.rng.Start%align == 0 {
			continue
		}
		next := (m.rng.Start/align + 1) * align
		out = append(out, metaAlignment.Finding(
			fmt.Sprintf("%s base address 0x%X is not aligned to 0x%X", m.node.Label(), m.rng.Start, align),
			[]string{m.node.ID()},
			fmt.Sprintf("Use an aligned base address such as 0x%X", next)))
	}
	return out
}

type coverageRule struct{}

func (coverageRule) Meta() registry.Meta { return metaCoverage }

func (coverageRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		if n.IsInterconnect() || len(ctx.Index.IncomingRequests(n.ID())) == 0 {
			continue
		}
		_, err := n.Component.AddressMapping.Range()
		switch {
		case err == nil:
			continue
		case errors.Is(err, diagram.ErrNoMapping):
			out = append(out, metaCoverage.Finding(
				fmt.Sprintf("%s is reachable as a bus slave but has no address mapping", n.Label()),
				[]string{n.ID()}, "Assign a baseAddress and addressSpace"))
		default:
			out = append(out, metaCoverage.Finding(
				fmt.Sprintf("%s has an invalid address mapping: %v", n.Label(), err),
				[]string{n.ID()}, "Fix the baseAddress/addressSpace values"))
		}
	}
	return out
}

type reservedRule struct{}

func (reservedRule) Meta() registry.Meta { return metaReserved }

func (reservedRule) Check(ctx *registry.Context) []result.Finding {
	type region struct {
		name string
		rng  diagram.AddressRange
	}
	var regions []region
	for _, r := range ctx.Options.ReservedRegions {
		rng, err := r.Range()
		if err != nil {
			continue
		}
		name := r.Name
		if name == "" {
			name = "reserved"
		}
		regions = append(regions, region{name: name, rng: rng})
	}
	if len(regions) == 0 {
		return nil
	}

	var out []result.Finding
	for _, m := range mappedNodes(ctx.Index) {
		for _, r := range regions {
			if !m.rng.Overlaps(r.rng) {
				continue
			}
			out = append(out, metaReserved.Finding(
				fmt.Sprintf("%s (%s) intrudes on the %s region %s", m.node.Label(), m.rng, r.name, r.rng),
				[]string{m.node.ID()}, "Relocate the component outside reserved address space"))
		}
	}
	return out
}
