package rules

import (
	"fmt"
	"math/big"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/graph"
	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

var (
	metaRequiredParam = registry.Meta{
		ID: "DRC-PARAM-001", Name: "Required parameters present", Severity: result.Critical, Category: result.Parameter,
		Description: "Parameters marked required without a default must be set.",
	}
	metaParamType = registry.Meta{
		ID: "DRC-PARAM-002", Name: "Parameter type check", Severity: result.Critical, Category: result.Parameter,
		Description: "Parameter values must convert to their declared type.",
	}
	metaParamRange = registry.Meta{
		ID: "DRC-PARAM-003", Name: "Parameter range check", Severity: result.Warning, Category: result.Parameter,
		Description: "Parameter values must respect declared bounds and allowed values.",
	}
)

// paramValue returns the explicit value of a parameter, if set.
func paramValue(n *graph.Resolved, name string) (any, bool) {
	v, ok := n.Parameters()[name]
	return v, ok && v != nil
}

type requiredParamRule struct{}

func (requiredParamRule) Meta() registry.Meta { return metaRequiredParam }

func (requiredParamRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		for _, spec := range n.Component.Parameters {
			if !spec.Required || spec.Default != nil {
				continue
			}
			if _, ok := paramValue(n, spec.Name); ok {
				continue
			}
			out = append(out, metaRequiredParam.Finding(
				fmt.Sprintf("%s is missing required parameter %q", n.Label(), spec.Name),
				[]string{n.ID()}, fmt.Sprintf("Set parameters.%s", spec.Name)))
		}
	}
	return out
}

type paramTypeRule struct{}

func (paramTypeRule) Meta() registry.Meta { return metaParamType }

func (paramTypeRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		for _, spec := range n.Component.Parameters {
			raw, ok := paramValue(n, spec.Name)
			if !ok {
				continue
			}
			if _, err := typedParam(spec, raw); err != nil {
				out = append(out, metaParamType.Finding(
					fmt.Sprintf("%s parameter %q: %v", n.Label(), spec.Name, err),
					[]string{n.ID()}, fmt.Sprintf("Provide a %s value", strings.ToLower(spec.Type))))
			}
		}
	}
	return out
}

type paramRangeRule struct{}

func (paramRangeRule) Meta() registry.Meta { return metaParamRange }

func (paramRangeRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		for _, spec := range n.Component.Parameters {
			raw, ok := paramValue(n, spec.Name)
			if !ok {
				continue
			}
			v, err := typedParam(spec, raw)
			if err != nil {
				continue
			}
			if msg := outOfRange(spec, v); msg != "" {
				out = append(out, metaParamRange.Finding(
					fmt.Sprintf("%s parameter %q %s", n.Label(), spec.Name, msg),
					[]string{n.ID()}, rangeHint(spec)))
			}
		}
	}
	return out
}

// ParamType maps a declared parameter type to its cty type. Unknown names
// accept any value.
func ParamType(name string) cty.Type {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "enum":
		return cty.String
	case "number", "int", "integer", "float":
		return cty.Number
	case "bool", "boolean":
		return cty.Bool
	case "list", "array":
		return cty.List(cty.DynamicPseudoType)
	case "map", "object":
		return cty.Map(cty.DynamicPseudoType)
	}
	return cty.DynamicPseudoType
}

// typedParam converts a raw JSON value to the spec's declared type.
func typedParam(spec diagram.ParameterSpec, raw any) (cty.Value, error) {
	v, err := diagram.ToCty(raw)
	if err != nil {
		return cty.NilVal, err
	}
	want := ParamType(spec.Type)
	if want.Equals(cty.DynamicPseudoType) {
		return v, nil
	}
	if want.IsListType() {
		if !v.Type().IsListType() && !v.Type().IsTupleType() {
			return cty.NilVal, fmt.Errorf("expected list, got %s", v.Type().FriendlyName())
		}
		return v, nil
	}
	if want.IsMapType() {
		if !v.Type().IsMapType() && !v.Type().IsObjectType() {
			return cty.NilVal, fmt.Errorf("expected map, got %s", v.Type().FriendlyName())
		}
		return v, nil
	}
	conv, err := convert.Convert(v, want)
	if err != nil {
		return cty.NilVal, fmt.Errorf("expected %s, got %s", want.FriendlyName(), v.Type().FriendlyName())
	}
	if isIntType(spec.Type) && !conv.AsBigFloat().IsInt() {
		return cty.NilVal, fmt.Errorf("expected integer, got %s", conv.AsBigFloat().Text('g', -1))
	}
	return conv, nil
}

func isIntType(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	return n == "int" || n == "integer"
}

func outOfRange(spec diagram.ParameterSpec, v cty.Value) string {
	if v.Type().Equals(cty.Number) {
		f := v.AsBigFloat()
		if spec.Min != nil && f.Cmp(big.NewFloat(*spec.Min)) < 0 {
			return fmt.Sprintf("value %s is below minimum %g", f.Text('g', -1), *spec.Min)
		}
		if spec.Max != nil && f.Cmp(big.NewFloat(*spec.Max)) > 0 {
			return fmt.Sprintf("value %s is above maximum %g", f.Text('g', -1), *spec.Max)
		}
	}
	if len(spec.Allowed) > 0 {
		s, err := convert.Convert(v, cty.String)
		if err != nil || s.IsNull() {
			return ""
		}
		if !slices.Contains(spec.Allowed, s.AsString()) {
			return fmt.Sprintf("value %q is not one of %s", s.AsString(), strings.Join(spec.Allowed, ", "))
		}
	}
	return ""
}

func rangeHint(spec diagram.ParameterSpec) string {
	switch {
	case len(spec.Allowed) > 0:
		return "Use one of: " + strings.Join(spec.Allowed, ", ")
	case spec.Min != nil && spec.Max != nil:
		return fmt.Sprintf("Use a value between %g and %g", *spec.Min, *spec.Max)
	case spec.Min != nil:
		return fmt.Sprintf("Use a value of at least %g", *spec.Min)
	case spec.Max != nil:
		return fmt.Sprintf("Use a value of at most %g", *spec.Max)
	}
	return ""
}
