package component

import (
	_ "embed"
	"fmt"

	"github.com/soc-pilot/drc/internal/libhcl"
)

//go:embed builtin.hcl
var builtinHCL []byte

// Builtin returns the embedded default component catalog.
func Builtin() (*Static, error) {
	comps, err := libhcl.Decode("builtin.hcl", builtinHCL)
	if err != nil {
		return nil, fmt.Errorf("builtin library: %w", err)
	}
	return NewStatic(comps...), nil
}
