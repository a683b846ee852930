package libhcl

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclwrite"

	"github.com/soc-pilot/drc/internal/diagram"
)

// Builder collects component blocks for one library file.
type Builder struct {
	blocks [][]byte
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddComponent renders c as a component block.
func (b *Builder) AddComponent(c diagram.ArchitecturalComponent) error {
	block := hclwrite.NewBlock("component", []string{SanitizeLabel(c.ID)})
	body := block.Body()
	SetAttributeStr(body, "name", c.Name)
	SetAttributeStr(body, "category", c.Category)
	SetAttributeStr(body, "type", c.Type)
	SetAttributeStr(body, "description", c.Description)
	SetAttributeFloat(body, "bandwidth", c.Bandwidth)
	SetAttributeFloat(body, "clock_frequency", c.ClockFrequency)
	SetAttributeStr(body, "clock_domain", c.ClockDomain)

	if m := c.AddressMapping; m != nil {
		body.AppendNewline()
		am := body.AppendNewBlock("address_mapping", nil)
		gohcl.EncodeIntoBody(addressBlock{
			BaseAddress:  string(m.BaseAddress),
			AddressSpace: string(m.AddressSpace),
		}, am.Body())
	}

	for _, iface := range c.Interfaces {
		body.AppendNewline()
		ib := body.AppendNewBlock("interface", []string{SanitizeLabel(iface.ID)}).Body()
		SetAttributeStr(ib, "name", iface.Name)
		SetAttributeStr(ib, "bus_type", iface.BusType)
		SetAttributeStr(ib, "direction", string(iface.Direction))
		SetAttributeInt(ib, "data_width", iface.DataWidth)
		SetAttributeInt(ib, "addr_width", iface.AddrWidth)
		SetAttributeInt(ib, "id_width", iface.IDWidth)
		SetAttributeFloat(ib, "bandwidth", iface.Bandwidth)
		SetAttributeBool(ib, "optional", iface.Optional)
	}

	for _, p := range c.Parameters {
		body.AppendNewline()
		pb := body.AppendNewBlock("parameter", []string{SanitizeLabel(p.Name)}).Body()
		SetAttributeStr(pb, "type", p.Type)
		SetAttributeBool(pb, "required", p.Required)
		if p.Default != nil {
			v, err := diagram.ToCty(p.Default)
			if err != nil {
				return fmt.Errorf("component %q parameter %q default: %w", c.ID, p.Name, err)
			}
			pb.SetAttributeValue("default", v)
		}
		SetAttributeFloatPtr(pb, "min", p.Min)
		SetAttributeFloatPtr(pb, "max", p.Max)
		SetAttributeList(pb, "allowed", p.Allowed)
	}

	b.blocks = append(b.blocks, BlockToBytes(block))
	return nil
}

// Build returns the formatted library file.
func (b *Builder) Build() []byte {
	var buf bytes.Buffer
	for i, blk := range b.blocks {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.Write(blk)
	}
	return hclwrite.Format(buf.Bytes())
}

// Encode renders components as one HCL library file.
func Encode(components []diagram.ArchitecturalComponent) ([]byte, error) {
	b := NewBuilder()
	for _, c := range components {
		if err := b.AddComponent(c); err != nil {
			return nil, err
		}
	}
	return b.Build(), nil
}
