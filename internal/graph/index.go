// Package graph indexes a diagram for rule evaluation: nodes are resolved
// against the component library and edges are oriented along the bus request
// direction (master to slave).
package graph

import (
	"strings"

	"github.com/soc-pilot/drc/internal/diagram"
)

// Resolved is a node merged with its library component definition.
type Resolved struct {
	Node      *diagram.Node
	Component diagram.ArchitecturalComponent
	// Known is false when no library component matched and only inline data was used.
	Known bool

	ifaceByID map[string]*diagram.Interface
}

// ID returns the node id.
func (r *Resolved) ID() string { return r.Node.ID }

// Label returns the display name used in messages.
func (r *Resolved) Label() string {
	if r.Node.Data.Label != "" {
		return r.Node.Data.Label
	}
	if r.Component.Name != "" {
		return r.Component.Name
	}
	return r.Node.ID
}

// Interfaces returns the resolved interface list.
func (r *Resolved) Interfaces() []diagram.Interface { return r.Component.Interfaces }

// Interface returns the interface with the given id, or nil.
func (r *Resolved) Interface(id string) *diagram.Interface { return r.ifaceByID[id] }

// Category returns the lower-cased component category.
func (r *Resolved) Category() string { return strings.ToLower(r.Component.Category) }

// IsInterconnect reports whether the component routes transactions between
// masters and slaves (crossbar, NoC, bus fabric).
func (r *Resolved) IsInterconnect() bool {
	if r.Category() == "interconnect" {
		return true
	}
	t := strings.ToLower(r.Component.Type + " " + r.Node.Type)
	for _, kw := range []string{"interconnect", "crossbar", "noc", "xbar"} {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// Parameters returns the node's explicit parameter values.
func (r *Resolved) Parameters() map[string]any { return r.Node.Data.Parameters }

// EdgeRef is an edge with its endpoints resolved.
type EdgeRef struct {
	Index int
	Edge  *diagram.Edge

	Source, Target           *Resolved
	SourceIface, TargetIface *diagram.Interface

	// Initiator and Responder orient the edge along the request direction.
	// For plain signal edges they follow source -> target.
	Initiator, Responder           *Resolved
	InitiatorIface, ResponderIface *diagram.Interface
}

// Dangling reports whether an endpoint node or handle could not be resolved.
func (e *EdgeRef) Dangling() bool {
	if e.Source == nil || e.Target == nil {
		return true
	}
	if e.Edge.SourceHandle != "" && e.SourceIface == nil {
		return true
	}
	return e.Edge.TargetHandle != "" && e.TargetIface == nil
}

// IsBus reports whether both endpoints are bus-role interfaces.
func (e *EdgeRef) IsBus() bool {
	return e.SourceIface != nil && e.TargetIface != nil &&
		e.SourceIface.Direction.IsBusRole() && e.TargetIface.Direction.IsBusRole()
}

// Label renders the edge for messages.
func (e *EdgeRef) Label() string {
	src, tgt := e.Edge.Source, e.Edge.Target
	if e.Source != nil {
		src = e.Source.Label()
	}
	if e.Target != nil {
		tgt = e.Target.Label()
	}
	if e.Edge.SourceHandle != "" {
		src += "." + e.Edge.SourceHandle
	}
	if e.Edge.TargetHandle != "" {
		tgt += "." + e.Edge.TargetHandle
	}
	return src + " -> " + tgt
}

// Index is the read-only lookup structure shared by all rules of one check.
type Index struct {
	Diagram *diagram.Diagram
	Nodes   []*Resolved
	Edges   []*EdgeRef

	byID     map[string]*Resolved
	incident map[string][]*EdgeRef
	ifaceUse map[string]map[string][]*EdgeRef
	requests map[string][]*EdgeRef
}

// Build resolves every node against components and indexes the edges.
// Duplicate node ids resolve to their first occurrence.
func Build(d *diagram.Diagram, components []diagram.ArchitecturalComponent) *Index {
	lib := NewCatalog(components)
	idx := &Index{
		Diagram:  d,
		byID:     make(map[string]*Resolved, len(d.Nodes)),
		incident: make(map[string][]*EdgeRef),
		ifaceUse: make(map[string]map[string][]*EdgeRef),
		requests: make(map[string][]*EdgeRef),
	}
	for i := range d.Nodes {
		r := lib.Resolve(&d.Nodes[i])
		idx.Nodes = append(idx.Nodes, r)
		if _, dup := idx.byID[r.ID()]; !dup {
			idx.byID[r.ID()] = r
		}
	}
	for i := range d.Edges {
		ref := idx.resolveEdge(i, &d.Edges[i])
		idx.Edges = append(idx.Edges, ref)
		if ref.Source != nil {
			idx.incident[ref.Source.ID()] = append(idx.incident[ref.Source.ID()], ref)
			idx.useIface(ref.Source.ID(), ref.Edge.SourceHandle, ref)
		}
		if ref.Target != nil && ref.Target != ref.Source {
			idx.incident[ref.Target.ID()] = append(idx.incident[ref.Target.ID()], ref)
		}
		if ref.Target != nil {
			idx.useIface(ref.Target.ID(), ref.Edge.TargetHandle, ref)
		}
		if ref.IsBus() && !ref.Dangling() {
			idx.requests[ref.Initiator.ID()] = append(idx.requests[ref.Initiator.ID()], ref)
		}
	}
	return idx
}

func (idx *Index) resolveEdge(i int, e *diagram.Edge) *EdgeRef {
	ref := &EdgeRef{Index: i, Edge: e, Source: idx.byID[e.Source], Target: idx.byID[e.Target]}
	if ref.Source != nil && e.SourceHandle != "" {
		ref.SourceIface = ref.Source.Interface(e.SourceHandle)
	}
	if ref.Target != nil && e.TargetHandle != "" {
		ref.TargetIface = ref.Target.Interface(e.TargetHandle)
	}

	ref.Initiator, ref.Responder = ref.Source, ref.Target
	ref.InitiatorIface, ref.ResponderIface = ref.SourceIface, ref.TargetIface
	if ref.SourceIface != nil && ref.TargetIface != nil {
		src, tgt := ref.SourceIface.Direction, ref.TargetIface.Direction
		forward := src.IsMaster() && tgt.IsSlave()
		if !forward && src.IsSlave() && tgt.IsMaster() {
			ref.Initiator, ref.Responder = ref.Target, ref.Source
			ref.InitiatorIface, ref.ResponderIface = ref.TargetIface, ref.SourceIface
		}
	}
	return ref
}

func (idx *Index) useIface(nodeID, handle string, ref *EdgeRef) {
	if handle == "" {
		return
	}
	m, ok := idx.ifaceUse[nodeID]
	if !ok {
		m = make(map[string][]*EdgeRef)
		idx.ifaceUse[nodeID] = m
	}
	m[handle] = append(m[handle], ref)
}

// Node returns the resolved node with the given id, or nil.
func (idx *Index) Node(id string) *Resolved { return idx.byID[id] }

// Incident returns every edge touching the node.
func (idx *Index) Incident(nodeID string) []*EdgeRef { return idx.incident[nodeID] }

// InterfaceEdges returns the edges attached to one interface of a node.
func (idx *Index) InterfaceEdges(nodeID, ifaceID string) []*EdgeRef {
	return idx.ifaceUse[nodeID][ifaceID]
}

// Requests returns the bus edges on which the node is the initiator.
func (idx *Index) Requests(nodeID string) []*EdgeRef { return idx.requests[nodeID] }

// IncomingRequests returns the bus edges on which the node is the responder.
func (idx *Index) IncomingRequests(nodeID string) []*EdgeRef {
	var out []*EdgeRef
	for _, e := range idx.Edges {
		if e.IsBus() && !e.Dangling() && e.Responder.ID() == nodeID {
			out = append(out, e)
		}
	}
	return out
}

// Successors returns the request-graph neighbours of a node in edge order.
func (idx *Index) Successors(nodeID string) []string {
	reqs := idx.requests[nodeID]
	out := make([]string, 0, len(reqs))
	for _, e := range reqs {
		out = append(out, e.Responder.ID())
	}
	return out
}

// NodeIDs returns the ids of the unique nodes in diagram order.
func (idx *Index) NodeIDs() []string {
	out := make([]string, 0, len(idx.byID))
	seen := make(map[string]bool, len(idx.byID))
	for _, n := range idx.Nodes {
		if !seen[n.ID()] {
			seen[n.ID()] = true
			out = append(out, n.ID())
		}
	}
	return out
}
