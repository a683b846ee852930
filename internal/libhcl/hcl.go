package libhcl

import (
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// SanitizeLabel converts an id to a safe block label (e.g. "cortex a53" -> "cortex_a53").
func SanitizeLabel(id string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '"' || r == '\\' {
			return '_'
		}
		return r
	}, strings.TrimSpace(id))
}

// SetAttributeStr sets a string attribute on a block body, skipping empty values.
func SetAttributeStr(body *hclwrite.Body, name, value string) {
	if value != "" {
		body.SetAttributeValue(name, cty.StringVal(value))
	}
}

// SetAttributeBool sets a bool attribute, skipping false.
func SetAttributeBool(body *hclwrite.Body, name string, value bool) {
	if value {
		body.SetAttributeValue(name, cty.BoolVal(value))
	}
}

// SetAttributeInt sets an int attribute, skipping zero.
func SetAttributeInt(body *hclwrite.Body, name string, value int) {
	if value != 0 {
		body.SetAttributeValue(name, cty.NumberIntVal(int64(value)))
	}
}

// SetAttributeFloat sets a number attribute, skipping zero.
func SetAttributeFloat(body *hclwrite.Body, name string, value float64) {
	if value != 0 {
		body.SetAttributeValue(name, cty.NumberFloatVal(value))
	}
}

// SetAttributeFloatPtr sets a number attribute when value is non-nil.
func SetAttributeFloatPtr(body *hclwrite.Body, name string, value *float64) {
	if value != nil {
		body.SetAttributeValue(name, cty.NumberFloatVal(*value))
	}
}

// SetAttributeList sets a list(string) attribute, skipping empty lists.
func SetAttributeList(body *hclwrite.Body, name string, values []string) {
	if len(values) == 0 {
		return
	}
	elems := make([]cty.Value, len(values))
	for i, v := range values {
		elems[i] = cty.StringVal(v)
	}
	body.SetAttributeValue(name, cty.ListVal(elems))
}

// BlockToBytes formats a block and returns its bytes (with newline).
func BlockToBytes(block *hclwrite.Block) []byte {
	f := hclwrite.NewEmptyFile()
	f.Body().AppendBlock(block)
	return f.Bytes()
}
