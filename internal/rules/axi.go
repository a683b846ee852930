package rules

import (
	"fmt"
	"strings"

	"github.com/soc-pilot/drc/internal/graph"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

var (
	metaDataWidth = registry.Meta{
		ID: "DRC-AXI-001", Name: "AXI data width matching", Severity: result.Critical, Category: result.Compliance,
		Description: "Connected AXI interfaces must agree on data width.",
	}
	metaIDWidth = registry.Meta{
		ID: "DRC-AXI-002", Name: "AXI ID width compatibility", Severity: result.Critical, Category: result.Compliance,
		Description: "Connected AXI4 interfaces must agree on transaction ID width.",
	}
	metaAddrWidth = registry.Meta{
		ID: "DRC-AXI-003", Name: "AXI address width consistency", Severity: result.Warning, Category: result.Compliance,
		Description: "Connected AXI interfaces should agree on address width.",
	}
	metaClockFrequency = registry.Meta{
		ID: "DRC-AXI-004", Name: "Clock frequency compatibility", Severity: result.Warning, Category: result.Clock,
		Description: "Components on one connection in the same clock domain should run at the same frequency.",
	}
)

type widthRule struct {
	meta  registry.Meta
	width func(*graph.EdgeRef) (int, int)
	axi4  bool
	what  string
	fix   string
}

func (r widthRule) check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, e := range busEdges(ctx) {
		a, b := e.InitiatorIface, e.ResponderIface
		if !isAXI(a.BusType) || !isAXI(b.BusType) {
			continue
		}
		if r.axi4 && (!isFullAXI4(a.BusType) || !isFullAXI4(b.BusType)) {
			continue
		}
		wa, wb := r.width(e)
		if wa == 0 || wb == 0 || wa == wb {
			continue
		}
		out = append(out, edgeFinding(r.meta, e,
			fmt.Sprintf("%s %s mismatch: %s is %d bits, %s is %d bits",
				e.Label(), r.what, e.Initiator.Label(), wa, e.Responder.Label(), wb),
			r.fix))
	}
	return out
}

type dataWidthRule struct{}

func (dataWidthRule) Meta() registry.Meta { return metaDataWidth }

func (dataWidthRule) Check(ctx *registry.Context) []result.Finding {
	return widthRule{
		meta:  metaDataWidth,
		width: func(e *graph.EdgeRef) (int, int) { return e.InitiatorIface.DataWidth, e.ResponderIface.DataWidth },
		what:  "data width",
		fix:   "Insert an AXI data width converter or align both interfaces' dataWidth",
	}.check(ctx)
}

type idWidthRule struct{}

func (idWidthRule) Meta() registry.Meta { return metaIDWidth }

func (idWidthRule) Check(ctx *registry.Context) []result.Finding {
	return widthRule{
		meta:  metaIDWidth,
		width: func(e *graph.EdgeRef) (int, int) { return e.InitiatorIface.IDWidth, e.ResponderIface.IDWidth },
		axi4:  true,
		what:  "ID width",
		fix:   "Align idWidth or route through an interconnect that remaps transaction IDs",
	}.check(ctx)
}

type addrWidthRule struct{}

func (addrWidthRule) Meta() registry.Meta { return metaAddrWidth }

func (addrWidthRule) Check(ctx *registry.Context) []result.Finding {
	return widthRule{
		meta:  metaAddrWidth,
		width: func(e *graph.EdgeRef) (int, int) { return e.InitiatorIface.AddrWidth, e.ResponderIface.AddrWidth },
		what:  "address width",
		fix:   "Confirm address decoding covers the difference or align addrWidth",
	}.check(ctx)
}

type clockFrequencyRule struct{}

func (clockFrequencyRule) Meta() registry.Meta { return metaClockFrequency }

func (clockFrequencyRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, e := range busEdges(ctx) {
		fa, fb := e.Initiator.Component.ClockFrequency, e.Responder.Component.ClockFrequency
		if fa == 0 || fb == 0 || fa == fb {
			continue
		}
		if crossesDomain(e) {
			continue
		}
		out = append(out, edgeFinding(metaClockFrequency, e,
			fmt.Sprintf("%s joins %s at %g MHz and %s at %g MHz without a clock domain boundary",
				e.Label(), e.Initiator.Label(), fa, e.Responder.Label(), fb),
			"Run both components from the same clock or declare separate clock domains with a clock converter"))
	}
	return out
}

// crossesDomain reports whether both ends declare different clock domains.
func crossesDomain(e *graph.EdgeRef) bool {
	a := strings.TrimSpace(e.Initiator.Component.ClockDomain)
	b := strings.TrimSpace(e.Responder.Component.ClockDomain)
	return a != "" && b != "" && !strings.EqualFold(a, b)
}
