package diagram

import "slices"

// Clone returns a deep copy of the diagram. The normalizer only ever works on
// clones so callers sharing one Diagram value are never affected.
func (d *Diagram) Clone() *Diagram {
	if d == nil {
		return nil
	}
	out := &Diagram{}
	if d.Nodes != nil {
		out.Nodes = make([]Node, len(d.Nodes))
		for i := range d.Nodes {
			out.Nodes[i] = d.Nodes[i].Clone()
		}
	}
	if d.Edges != nil {
		out.Edges = make([]Edge, len(d.Edges))
		copy(out.Edges, d.Edges)
	}
	return out
}

// Clone returns a deep copy of the node.
func (n Node) Clone() Node {
	out := n
	out.Data.Interfaces = cloneInterfaces(n.Data.Interfaces)
	out.Data.AddressMapping = n.Data.AddressMapping.Clone()
	out.Data.Parameters = cloneMap(n.Data.Parameters)
	if n.Data.Component != nil {
		c := n.Data.Component.Clone()
		out.Data.Component = &c
	}
	return out
}

// Clone returns a deep copy of the component definition.
func (c ArchitecturalComponent) Clone() ArchitecturalComponent {
	out := c
	out.Interfaces = cloneInterfaces(c.Interfaces)
	out.AddressMapping = c.AddressMapping.Clone()
	if c.Parameters != nil {
		out.Parameters = make([]ParameterSpec, len(c.Parameters))
		for i, p := range c.Parameters {
			cp := p
			cp.Default = cloneValue(p.Default)
			if p.Min != nil {
				v := *p.Min
				cp.Min = &v
			}
			if p.Max != nil {
				v := *p.Max
				cp.Max = &v
			}
			if p.Allowed != nil {
				cp.Allowed = append([]string(nil), p.Allowed...)
			}
			out.Parameters[i] = cp
		}
	}
	return out
}

// Clone returns a copy of the mapping, or nil.
func (m *AddressMapping) Clone() *AddressMapping {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}

func cloneInterfaces(in []Interface) []Interface {
	if in == nil {
		return nil
	}
	out := make([]Interface, len(in))
	copy(out, in)
	return out
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// Clone returns a deep copy of the issue.
func (i ValidationIssue) Clone() ValidationIssue {
	out := i
	if i.Details.EdgeIndex != nil {
		idx := *i.Details.EdgeIndex
		out.Details.EdgeIndex = &idx
	}
	out.Details.MissingNodes = slices.Clone(i.Details.MissingNodes)
	out.Details.MissingHandles = slices.Clone(i.Details.MissingHandles)
	out.Details.Duplicates = slices.Clone(i.Details.Duplicates)
	return out
}
