package diagram

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Diagram is the root structure of the SoC block diagram JSON.
type Diagram struct {
	Nodes []Node `json:"nodes" yaml:"nodes" validate:"required,dive"`
	Edges []Edge `json:"edges" yaml:"edges" validate:"required,dive"`
}

// Node is one component instance placed on the canvas.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"`
	Position Position `json:"position" yaml:"position"`
	Width    float64  `json:"width,omitempty" yaml:"width,omitempty"`
	Height   float64  `json:"height,omitempty" yaml:"height,omitempty"`
	Data     NodeData `json:"data" yaml:"data"`
}

// NodeData is the component snapshot carried by a node. Zero values mean
// "inherit from the component library".
type NodeData struct {
	Label          string                  `json:"label,omitempty" yaml:"label,omitempty"`
	ComponentID    string                  `json:"componentId,omitempty" yaml:"componentId,omitempty"`
	Category       string                  `json:"category,omitempty" yaml:"category,omitempty"`
	Interfaces     []Interface             `json:"interfaces,omitempty" yaml:"interfaces,omitempty" validate:"dive"`
	AddressMapping *AddressMapping         `json:"addressMapping,omitempty" yaml:"addressMapping,omitempty"`
	Parameters     map[string]any          `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Bandwidth      float64                 `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty" validate:"gte=0"`
	ClockFrequency float64                 `json:"clockFrequency,omitempty" yaml:"clockFrequency,omitempty" validate:"gte=0"`
	ClockDomain    string                  `json:"clockDomain,omitempty" yaml:"clockDomain,omitempty"`
	Component      *ArchitecturalComponent `json:"component,omitempty" yaml:"component,omitempty"`
}

// Position holds x,y canvas coordinates.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Interface is a named port on a node.
type Interface struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	BusType   string    `json:"busType,omitempty" yaml:"busType,omitempty"`
	Direction Direction `json:"direction,omitempty" yaml:"direction,omitempty" validate:"omitempty,direction"`
	DataWidth int       `json:"dataWidth,omitempty" yaml:"dataWidth,omitempty" validate:"gte=0"`
	AddrWidth int       `json:"addrWidth,omitempty" yaml:"addrWidth,omitempty" validate:"gte=0"`
	IDWidth   int       `json:"idWidth,omitempty" yaml:"idWidth,omitempty" validate:"gte=0"`
	Bandwidth float64   `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty" validate:"gte=0"`
	Optional  bool      `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// Edge is a single physical connection between two interfaces.
type Edge struct {
	ID           string `json:"id" yaml:"id"`
	Source       string `json:"source" yaml:"source"`
	Target       string `json:"target" yaml:"target"`
	SourceHandle string `json:"sourceHandle,omitempty" yaml:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty" yaml:"targetHandle,omitempty"`
}

// AddressMapping places a memory-mapped component in the physical address map.
type AddressMapping struct {
	BaseAddress  Quantity `json:"baseAddress,omitempty" yaml:"baseAddress,omitempty"`
	AddressSpace Quantity `json:"addressSpace,omitempty" yaml:"addressSpace,omitempty"`
}

// ArchitecturalComponent is a full component definition from the component library.
type ArchitecturalComponent struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name,omitempty" yaml:"name,omitempty"`
	Category       string          `json:"category,omitempty" yaml:"category,omitempty"`
	Type           string          `json:"type,omitempty" yaml:"type,omitempty"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	Interfaces     []Interface     `json:"interfaces,omitempty" yaml:"interfaces,omitempty" validate:"dive"`
	AddressMapping *AddressMapping `json:"addressMapping,omitempty" yaml:"addressMapping,omitempty"`
	Parameters     []ParameterSpec `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Bandwidth      float64         `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty"`
	ClockFrequency float64         `json:"clockFrequency,omitempty" yaml:"clockFrequency,omitempty"`
	ClockDomain    string          `json:"clockDomain,omitempty" yaml:"clockDomain,omitempty"`
}

// ParameterSpec declares one configurable parameter of a component.
type ParameterSpec struct {
	Name     string   `json:"name" yaml:"name"`
	Type     string   `json:"type,omitempty" yaml:"type,omitempty"` // string, number, bool, list, map, any
	Required bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Default  any      `json:"default,omitempty" yaml:"default,omitempty"`
	Min      *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max      *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Allowed  []string `json:"allowed,omitempty" yaml:"allowed,omitempty"`
}

// Direction is the transaction role (master/slave) or signal direction of an interface.
type Direction string

const (
	DirMaster      Direction = "master"
	DirSlave       Direction = "slave"
	DirMasterSlave Direction = "master&slave"
	DirInput       Direction = "input"
	DirOutput      Direction = "output"
	DirInOut       Direction = "inout"
)

var directionNormalizer = strings.NewReplacer(" ", "", "/", "&", "_", "&", "and", "&")

// Normalize folds spelling variants ("Master & Slave", "master/slave") to the canonical form.
func (d Direction) Normalize() Direction {
	s := strings.ToLower(strings.TrimSpace(string(d)))
	return Direction(directionNormalizer.Replace(s))
}

// Known reports whether d is one of the recognized directions.
func (d Direction) Known() bool {
	switch d.Normalize() {
	case DirMaster, DirSlave, DirMasterSlave, DirInput, DirOutput, DirInOut:
		return true
	}
	return false
}

// IsMaster reports whether the interface can initiate bus transactions.
func (d Direction) IsMaster() bool {
	n := d.Normalize()
	return n == DirMaster || n == DirMasterSlave
}

// IsSlave reports whether the interface can respond to bus transactions.
func (d Direction) IsSlave() bool {
	n := d.Normalize()
	return n == DirSlave || n == DirMasterSlave
}

// IsBusRole reports whether d is a master/slave role rather than a signal direction.
func (d Direction) IsBusRole() bool {
	return d.IsMaster() || d.IsSlave()
}

// IsSignal reports whether d is a plain signal direction.
func (d Direction) IsSignal() bool {
	switch d.Normalize() {
	case DirInput, DirOutput, DirInOut:
		return true
	}
	return false
}

// Quantity is an address or size literal. JSON accepts either a string
// ("0x4000_0000", "4KB") or a bare number.
type Quantity string

// UnmarshalJSON accepts strings, numbers and null.
func (q *Quantity) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*q = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*q = Quantity(n.String())
	return nil
}
