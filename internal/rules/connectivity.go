package rules

import (
	"fmt"
	"strings"

	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

var (
	metaRole = registry.Meta{
		ID: "DRC-CONN-001", Name: "Master/slave role matching", Severity: result.Critical, Category: result.Connectivity,
		Description: "A bus connection needs exactly one master side and one slave side; master&slave satisfies either.",
	}
	metaBusType = registry.Meta{
		ID: "DRC-CONN-002", Name: "Bus type matching", Severity: result.Critical, Category: result.Connectivity,
		Description: "Both ends of a connection must use the same bus protocol unless one side is Custom.",
	}
	metaExistence = registry.Meta{
		ID: "DRC-CONN-003", Name: "Interface/instance existence", Severity: result.Critical, Category: result.Connectivity,
		Description: "Every connection must reference existing components and interfaces.",
	}
	metaUnconnectedMaster = registry.Meta{
		ID: "DRC-CONN-004", Name: "Unconnected master interface", Severity: result.Warning, Category: result.Connectivity,
		Description: "Master interfaces should drive at least one slave.",
	}
	metaMultiMaster = registry.Meta{
		ID: "DRC-CONN-005", Name: "Multiple masters on one slave interface", Severity: result.Critical, Category: result.Connectivity,
		Description: "A slave interface accepts a single master; sharing needs an interconnect.",
	}
	metaUnconnectedSlave = registry.Meta{
		ID: "DRC-CONN-006", Name: "Unconnected slave interface", Severity: result.Info, Category: result.Connectivity,
		Description: "Slave interfaces that no master reaches are unreachable.",
	}
	metaSignalDirection = registry.Meta{
		ID: "DRC-CONN-007", Name: "Signal direction compatibility", Severity: result.Critical, Category: result.Connectivity,
		Description: "Signal connections need exactly one driver and cannot mix with bus interfaces.",
	}
)

type roleRule struct{}

func (roleRule) Meta() registry.Meta { return metaRole }

func (roleRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, e := range ctx.Index.Edges {
		if e.Dangling() || !e.IsBus() {
			continue
		}
		src, tgt := e.SourceIface.Direction, e.TargetIface.Direction
		if (src.IsMaster() && tgt.IsSlave()) || (src.IsSlave() && tgt.IsMaster()) {
			continue
		}
		ctx.MarkBroken(e.Index)
		role := "master"
		if !src.IsMaster() {
			role = "slave"
		}
		out = append(out, edgeFinding(metaRole, e,
			fmt.Sprintf("%s connects two %s interfaces (%s to %s)", e.Label(), role, src, tgt),
			"Connect a master interface to a slave interface, or route through an interconnect"))
	}
	return out
}

type busTypeRule struct{}

func (busTypeRule) Meta() registry.Meta { return metaBusType }

func (busTypeRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, e := range ctx.Index.Edges {
		if e.Dangling() || e.SourceIface == nil || e.TargetIface == nil {
			continue
		}
		a, b := strings.TrimSpace(e.SourceIface.BusType), strings.TrimSpace(e.TargetIface.BusType)
		if a == "" || b == "" || strings.EqualFold(a, b) || isCustom(a) || isCustom(b) {
			continue
		}
		ctx.MarkBroken(e.Index)
		out = append(out, edgeFinding(metaBusType, e,
			fmt.Sprintf("%s connects %s to %s", e.Label(), a, b),
			fmt.Sprintf("Insert a %s-to-%s bridge or change one interface's bus type", a, b)))
	}
	return out
}

func isCustom(busType string) bool { return strings.EqualFold(busType, "custom") }

type existenceRule struct{}

func (existenceRule) Meta() registry.Meta { return metaExistence }

func (existenceRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, e := range ctx.Index.Edges {
		if !e.Dangling() {
			continue
		}
		ctx.MarkBroken(e.Index)
		var missing []string
		if e.Source == nil {
			missing = append(missing, "component "+e.Edge.Source)
		} else if e.Edge.SourceHandle != "" && e.SourceIface == nil {
			missing = append(missing, "interface "+e.Edge.Source+"."+e.Edge.SourceHandle)
		}
		if e.Target == nil {
			missing = append(missing, "component "+e.Edge.Target)
		} else if e.Edge.TargetHandle != "" && e.TargetIface == nil {
			missing = append(missing, "interface "+e.Edge.Target+"."+e.Edge.TargetHandle)
		}
		out = append(out, edgeFinding(metaExistence, e,
			fmt.Sprintf("connection %q references missing %s", e.Edge.ID, strings.Join(missing, " and ")),
			"Remove the connection or restore the missing component/interface"))
	}
	return out
}

type unconnectedMasterRule struct{}

func (unconnectedMasterRule) Meta() registry.Meta { return metaUnconnectedMaster }

func (unconnectedMasterRule) Check(ctx *registry.Context) []result.Finding {
	return unconnected(ctx, metaUnconnectedMaster, diagram.Direction.IsMaster,
		"Connect it to a slave or interconnect, or mark it optional")
}

type unconnectedSlaveRule struct{}

func (unconnectedSlaveRule) Meta() registry.Meta { return metaUnconnectedSlave }

func (unconnectedSlaveRule) Check(ctx *registry.Context) []result.Finding {
	slaveOnly := func(d diagram.Direction) bool { return d.IsSlave() && !d.IsMaster() }
	return unconnected(ctx, metaUnconnectedSlave, slaveOnly,
		"Connect a master to it or remove the interface")
}

func unconnected(ctx *registry.Context, m registry.Meta, match func(diagram.Direction) bool, fix string) []result.Finding {
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		for _, iface := range n.Interfaces() {
			if !match(iface.Direction) {
				continue
			}
			if iface.Optional && !ctx.Options.CheckOptionalPorts {
				continue
			}
			if len(ctx.Index.InterfaceEdges(n.ID(), iface.ID)) > 0 {
				continue
			}
			role := "master"
			if !iface.Direction.IsMaster() {
				role = "slave"
			}
			out = append(out, m.Finding(
				fmt.Sprintf("%s interface %s on %s is not connected", role, ifaceName(iface), n.Label()),
				[]string{n.ID()}, fix))
		}
	}
	return out
}

type multiMasterRule struct{}

func (multiMasterRule) Meta() registry.Meta { return metaMultiMaster }

func (multiMasterRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		for _, iface := range n.Interfaces() {
			if iface.Direction.Normalize() != diagram.DirSlave {
				continue
			}
			seen := make(map[string]bool)
			var masters []string
			for _, e := range ctx.Index.InterfaceEdges(n.ID(), iface.ID) {
				if e.Dangling() || !e.IsBus() || e.Responder != n || e.ResponderIface.ID != iface.ID {
					continue
				}
				key := e.Initiator.ID() + "." + e.InitiatorIface.ID
				if !seen[key] {
					seen[key] = true
					masters = append(masters, e.Initiator.ID())
				}
			}
			if len(masters) < 2 {
				continue
			}
			affected := append([]string{n.ID()}, dedupe(masters)...)
			out = append(out, metaMultiMaster.Finding(
				fmt.Sprintf("slave interface %s on %s is driven by %d masters (%s)",
					ifaceName(iface), n.Label(), len(masters), strings.Join(masters, ", ")),
				affected, "Insert an interconnect or arbiter between the masters and this slave"))
		}
	}
	return out
}

type signalDirectionRule struct{}

func (signalDirectionRule) Meta() registry.Meta { return metaSignalDirection }

func (signalDirectionRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, e := range ctx.Index.Edges {
		if e.Dangling() || e.SourceIface == nil || e.TargetIface == nil {
			continue
		}
		src, tgt := e.SourceIface.Direction.Normalize(), e.TargetIface.Direction.Normalize()
		if !src.IsSignal() && !tgt.IsSignal() {
			continue
		}
		var msg string
		switch {
		case src.IsBusRole() || tgt.IsBusRole():
			msg = fmt.Sprintf("%s mixes a bus interface with a plain signal (%s to %s)", e.Label(), src, tgt)
		case src == diagram.DirOutput && tgt == diagram.DirOutput:
			msg = fmt.Sprintf("%s connects two outputs; the net has two drivers", e.Label())
		case src == diagram.DirInput && tgt == diagram.DirInput:
			msg = fmt.Sprintf("%s connects two inputs; the net has no driver", e.Label())
		default:
			continue
		}
		ctx.MarkBroken(e.Index)
		out = append(out, edgeFinding(metaSignalDirection, e, msg,
			"Connect an output (or inout) to an input (or inout)"))
	}
	return out
}

func ifaceName(iface diagram.Interface) string {
	if iface.Name != "" {
		return iface.Name
	}
	return iface.ID
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
