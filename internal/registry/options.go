package registry

import (
	"slices"

	"github.com/soc-pilot/drc/internal/diagram"
)

// ReservedRegion is an address range no component should claim.
type ReservedRegion struct {
	Name string           `json:"name" mapstructure:"name"`
	Base diagram.Quantity `json:"base" mapstructure:"base"`
	Size diagram.Quantity `json:"size" mapstructure:"size"`
}

// Range parses the region into an inclusive address range.
func (r ReservedRegion) Range() (diagram.AddressRange, error) {
	return (&diagram.AddressMapping{BaseAddress: r.Base, AddressSpace: r.Size}).Range()
}

// Options configures rule evaluation. Unknown JSON keys are ignored.
type Options struct {
	// CheckOptionalPorts makes interfaces flagged optional count in the unconnected-interface rules.
	CheckOptionalPorts bool `json:"checkOptionalPorts" mapstructure:"check_optional_ports"`
	// AutoFix evaluates the normalizer's fixed copy instead of the raw diagram.
	AutoFix bool `json:"autoFix" mapstructure:"auto_fix"`
	// MaxParallel is the max number of rules run concurrently (0 = runtime.NumCPU).
	MaxParallel      int              `json:"maxParallel" mapstructure:"max_parallel"`
	MaxFanOut        int              `json:"maxFanOut" mapstructure:"max_fan_out"`
	MaxPathLength    int              `json:"maxPathLength" mapstructure:"max_path_length"`
	AddressAlignment uint64           `json:"addressAlignment" mapstructure:"address_alignment"`
	ReservedRegions  []ReservedRegion `json:"reservedRegions" mapstructure:"reserved_regions"`
	DisabledRules    []string         `json:"disabledRules" mapstructure:"disabled_rules"`
}

// DefaultOptions returns default evaluation options.
func DefaultOptions() Options {
	return Options{
		CheckOptionalPorts: false,
		AutoFix:            true,
		MaxParallel:        0,
		MaxFanOut:          16,
		MaxPathLength:      4,
		AddressAlignment:   0x1000,
		ReservedRegions:    []ReservedRegion{{Name: "boot", Base: "0x0", Size: "0x1000"}},
	}
}

// Disabled reports whether the rule id is switched off.
func (o Options) Disabled(id string) bool {
	return slices.Contains(o.DisabledRules, id)
}
