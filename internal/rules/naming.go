package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/soc-pilot/drc/internal/registry"
	"github.com/soc-pilot/drc/internal/result"
)

var (
	metaUniqueName = registry.Meta{
		ID: "DRC-NAME-001", Name: "Unique component names", Severity: result.Warning, Category: result.Naming,
		Description: "Component labels should be unique so reports and generated RTL stay unambiguous.",
	}
	metaIfaceName = registry.Meta{
		ID: "DRC-NAME-002", Name: "Interface naming convention", Severity: result.Info, Category: result.Naming,
		Description: "Interface names should be valid HDL identifiers.",
	}
)

var identifier = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

type uniqueNameRule struct{}

func (uniqueNameRule) Meta() registry.Meta { return metaUniqueName }

func (uniqueNameRule) Check(ctx *registry.Context) []result.Finding {
	groups := make(map[string][]string)
	display := make(map[string]string)
	for _, n := range uniqueNodes(ctx.Index) {
		label := strings.TrimSpace(n.Node.Data.Label)
		if label == "" {
			continue
		}
		key := strings.ToLower(label)
		if _, ok := display[key]; !ok {
			display[key] = label
		}
		groups[key] = append(groups[key], n.ID())
	}

	var out []result.Finding
	for _, key := range sortedKeys(groups) {
		ids := groups[key]
		if len(ids) < 2 {
			continue
		}
		out = append(out, metaUniqueName.Finding(
			fmt.Sprintf("%d components share the name %q", len(ids), display[key]),
			ids, "Give each component a distinct label"))
	}
	return out
}

type ifaceNameRule struct{}

func (ifaceNameRule) Meta() registry.Meta { return metaIfaceName }

func (ifaceNameRule) Check(ctx *registry.Context) []result.Finding {
	var out []result.Finding
	for _, n := range uniqueNodes(ctx.Index) {
		for _, iface := range n.Interfaces() {
			if iface.Name == "" || identifier.MatchString(iface.Name) {
				continue
			}
			out = append(out, metaIfaceName.Finding(
				fmt.Sprintf("interface name %q on %s is not a valid identifier", iface.Name, n.Label()),
				[]string{n.ID()}, fmt.Sprintf("Rename it to %s", suggestIdentifier(iface.Name))))
		}
	}
	return out
}

var nonIdent = regexp.MustCompile(`[^A-Za-z0-9_]+`)

func suggestIdentifier(name string) string {
	s := strings.Trim(nonIdent.ReplaceAllString(name, "_"), "_")
	if s == "" {
		return "if0"
	}
	if c := s[0]; c < 'A' || (c > 'Z' && c < 'a') || c > 'z' {
		s = "if_" + s
	}
	return s
}
