// Package libhcl reads and writes component library files in HCL.
//
//	component "ddr4" {
//	  name     = "DDR4 Controller"
//	  category = "memory"
//
//	  address_mapping {
//	    base_address  = "0x80000000"
//	    address_space = "2GB"
//	  }
//
//	  interface "s0" {
//	    bus_type   = "AXI4"
//	    direction  = "slave"
//	    data_width = 128
//	  }
//
//	  parameter "ranks" {
//	    type    = "int"
//	    default = 1
//	    min     = 1
//	    max     = 4
//	  }
//	}
package libhcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"

	"github.com/soc-pilot/drc/internal/diagram"
)

type fileSchema struct {
	Components []componentBlock `hcl:"component,block"`
}

type componentBlock struct {
	ID             string           `hcl:"id,label"`
	Name           string           `hcl:"name,optional"`
	Category       string           `hcl:"category,optional"`
	Type           string           `hcl:"type,optional"`
	Description    string           `hcl:"description,optional"`
	Bandwidth      float64          `hcl:"bandwidth,optional"`
	ClockFrequency float64          `hcl:"clock_frequency,optional"`
	ClockDomain    string           `hcl:"clock_domain,optional"`
	AddressMapping *addressBlock    `hcl:"address_mapping,block"`
	Interfaces     []interfaceBlock `hcl:"interface,block"`
	Parameters     []parameterBlock `hcl:"parameter,block"`
}

type addressBlock struct {
	BaseAddress  string `hcl:"base_address"`
	AddressSpace string `hcl:"address_space"`
}

type interfaceBlock struct {
	ID        string  `hcl:"id,label"`
	Name      string  `hcl:"name,optional"`
	BusType   string  `hcl:"bus_type,optional"`
	Direction string  `hcl:"direction,optional"`
	DataWidth int     `hcl:"data_width,optional"`
	AddrWidth int     `hcl:"addr_width,optional"`
	IDWidth   int     `hcl:"id_width,optional"`
	Bandwidth float64 `hcl:"bandwidth,optional"`
	Optional  bool    `hcl:"optional,optional"`
}

type parameterBlock struct {
	Name     string    `hcl:"name,label"`
	Type     string    `hcl:"type,optional"`
	Required bool      `hcl:"required,optional"`
	Default  cty.Value `hcl:"default,optional"`
	Min      *float64  `hcl:"min,optional"`
	Max      *float64  `hcl:"max,optional"`
	Allowed  []string  `hcl:"allowed,optional"`
}

// Decode parses an HCL (or HCL JSON, by extension) library file.
func Decode(filename string, src []byte) ([]diagram.ArchitecturalComponent, error) {
	var f fileSchema
	if err := hclsimple.Decode(filename, src, nil, &f); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	out := make([]diagram.ArchitecturalComponent, 0, len(f.Components))
	for _, b := range f.Components {
		c, err := b.component()
		if err != nil {
			return nil, fmt.Errorf("decode %s: component %q: %w", filename, b.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (b componentBlock) component() (diagram.ArchitecturalComponent, error) {
	c := diagram.ArchitecturalComponent{
		ID:             b.ID,
		Name:           b.Name,
		Category:       b.Category,
		Type:           b.Type,
		Description:    b.Description,
		Bandwidth:      b.Bandwidth,
		ClockFrequency: b.ClockFrequency,
		ClockDomain:    b.ClockDomain,
	}
	if b.AddressMapping != nil {
		c.AddressMapping = &diagram.AddressMapping{
			BaseAddress:  diagram.Quantity(b.AddressMapping.BaseAddress),
			AddressSpace: diagram.Quantity(b.AddressMapping.AddressSpace),
		}
	}
	for _, ib := range b.Interfaces {
		dir := diagram.Direction(ib.Direction)
		if ib.Direction != "" && !dir.Known() {
			return c, fmt.Errorf("interface %q: unknown direction %q", ib.ID, ib.Direction)
		}
		c.Interfaces = append(c.Interfaces, diagram.Interface{
			ID: ib.ID, Name: ib.Name, BusType: ib.BusType, Direction: dir,
			DataWidth: ib.DataWidth, AddrWidth: ib.AddrWidth, IDWidth: ib.IDWidth,
			Bandwidth: ib.Bandwidth, Optional: ib.Optional,
		})
	}
	for _, pb := range b.Parameters {
		c.Parameters = append(c.Parameters, diagram.ParameterSpec{
			Name: pb.Name, Type: pb.Type, Required: pb.Required,
			Default: diagram.FromCty(pb.Default),
			Min:     pb.Min, Max: pb.Max, Allowed: pb.Allowed,
		})
	}
	return c, nil
}
