package graph

import (
	"github.com/soc-pilot/drc/internal/diagram"
)

// Catalog looks up library components by id and by type.
type Catalog struct {
	byID   map[string]*diagram.ArchitecturalComponent
	byType map[string]*diagram.ArchitecturalComponent
}

// NewCatalog indexes components. The first component wins on id or type clashes.
func NewCatalog(components []diagram.ArchitecturalComponent) *Catalog {
	c := &Catalog{
		byID:   make(map[string]*diagram.ArchitecturalComponent, len(components)),
		byType: make(map[string]*diagram.ArchitecturalComponent, len(components)),
	}
	for i := range components {
		comp := &components[i]
		if _, ok := c.byID[comp.ID]; !ok && comp.ID != "" {
			c.byID[comp.ID] = comp
		}
		if _, ok := c.byType[comp.Type]; !ok && comp.Type != "" {
			c.byType[comp.Type] = comp
		}
	}
	return c
}

// Lookup finds the library component for a node: by componentId first, then
// by node type.
func (c *Catalog) Lookup(n *diagram.Node) *diagram.ArchitecturalComponent {
	if n.Data.ComponentID != "" {
		if comp, ok := c.byID[n.Data.ComponentID]; ok {
			return comp
		}
	}
	if n.Data.Component != nil && n.Data.Component.ID != "" {
		if comp, ok := c.byID[n.Data.Component.ID]; ok {
			return comp
		}
	}
	if comp, ok := c.byID[n.Type]; ok {
		return comp
	}
	return c.byType[n.Type]
}

// Interfaces resolves the interfaces of a node. It satisfies diagram.InterfaceLookup.
func (c *Catalog) Interfaces(n *diagram.Node) []diagram.Interface {
	return c.Resolve(n).Component.Interfaces
}

// Resolve merges a node's inline data over its library definition. The
// library is the base; any non-zero inline field wins.
func (c *Catalog) Resolve(n *diagram.Node) *Resolved {
	var comp diagram.ArchitecturalComponent
	lib := c.Lookup(n)
	if lib != nil {
		comp = lib.Clone()
	}
	if snap := n.Data.Component; snap != nil {
		overlay(&comp, snap)
	}
	overlayNodeData(&comp, &n.Data, lib)
	if comp.Type == "" {
		comp.Type = n.Type
	}

	r := &Resolved{Node: n, Component: comp, Known: lib != nil}
	r.ifaceByID = make(map[string]*diagram.Interface, len(comp.Interfaces))
	for i := range r.Component.Interfaces {
		iface := &r.Component.Interfaces[i]
		if _, ok := r.ifaceByID[iface.ID]; !ok {
			r.ifaceByID[iface.ID] = iface
		}
	}
	return r
}

func overlay(dst *diagram.ArchitecturalComponent, src *diagram.ArchitecturalComponent) {
	if src.ID != "" {
		dst.ID = src.ID
	}
	if src.Name != "" {
		dst.Name = src.Name
	}
	if src.Category != "" {
		dst.Category = src.Category
	}
	if src.Type != "" {
		dst.Type = src.Type
	}
	if src.Description != "" {
		dst.Description = src.Description
	}
	if len(src.Interfaces) > 0 {
		dst.Interfaces = inheritWidths(src.Interfaces, dst.Interfaces)
	}
	if src.AddressMapping != nil {
		dst.AddressMapping = src.AddressMapping.Clone()
	}
	if len(src.Parameters) > 0 {
		dst.Parameters = append([]diagram.ParameterSpec(nil), src.Parameters...)
	}
	if src.Bandwidth != 0 {
		dst.Bandwidth = src.Bandwidth
	}
	if src.ClockFrequency != 0 {
		dst.ClockFrequency = src.ClockFrequency
	}
	if src.ClockDomain != "" {
		dst.ClockDomain = src.ClockDomain
	}
}

func overlayNodeData(dst *diagram.ArchitecturalComponent, data *diagram.NodeData, lib *diagram.ArchitecturalComponent) {
	if data.Category != "" {
		dst.Category = data.Category
	}
	if len(data.Interfaces) > 0 {
		var base []diagram.Interface
		if lib != nil {
			base = lib.Interfaces
		}
		dst.Interfaces = inheritWidths(data.Interfaces, base)
	}
	if data.AddressMapping != nil {
		dst.AddressMapping = data.AddressMapping.Clone()
	}
	if data.Bandwidth != 0 {
		dst.Bandwidth = data.Bandwidth
	}
	if data.ClockFrequency != 0 {
		dst.ClockFrequency = data.ClockFrequency
	}
	if data.ClockDomain != "" {
		dst.ClockDomain = data.ClockDomain
	}
}

// inheritWidths copies inline interfaces and fills zero fields from the library
// interface with the same id.
func inheritWidths(inline, base []diagram.Interface) []diagram.Interface {
	byID := make(map[string]diagram.Interface, len(base))
	for _, b := range base {
		if _, ok := byID[b.ID]; !ok {
			byID[b.ID] = b
		}
	}
	out := make([]diagram.Interface, len(inline))
	for i, iface := range inline {
		if b, ok := byID[iface.ID]; ok {
			if iface.Name == "" {
				iface.Name = b.Name
			}
			if iface.BusType == "" {
				iface.BusType = b.BusType
			}
			if iface.Direction == "" {
				iface.Direction = b.Direction
			}
			if iface.DataWidth == 0 {
				iface.DataWidth = b.DataWidth
			}
			if iface.AddrWidth == 0 {
				iface.AddrWidth = b.AddrWidth
			}
			if iface.IDWidth == 0 {
				iface.IDWidth = b.IDWidth
			}
			if iface.Bandwidth == 0 {
				iface.Bandwidth = b.Bandwidth
			}
			iface.Optional = iface.Optional || b.Optional
		}
		out[i] = iface
	}
	return out
}
