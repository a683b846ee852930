package registry

import (
	"slices"
	"strings"
	"sync"

	"github.com/soc-pilot/drc/internal/result"
)

// Meta is the static catalog entry of a rule.
type Meta struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Severity    result.Severity `json:"severity"`
	Category    result.Category `json:"category"`
}

// Finding builds a finding tagged with this rule's id, severity and category.
func (m Meta) Finding(message string, affected []string, fix string) result.Finding {
	if affected == nil {
		affected = []string{}
	}
	return result.Finding{
		RuleID:             m.ID,
		Severity:           m.Severity,
		Category:           m.Category,
		Message:            message,
		AffectedComponents: affected,
		SuggestedFix:       fix,
	}
}

// Rule is the interface each design rule must implement.
type Rule interface {
	Meta() Meta
	Check(ctx *Context) []result.Finding
}

// Default is the global rule registry.
var Default = New()

// Registry holds design rules keyed by id.
type Registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

// New returns a new empty registry.
func New() *Registry {
	return &Registry{rules: make(map[string]Rule)}
}

// Register adds a rule, replacing any rule with the same id.
func (r *Registry) Register(rule Rule) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[rule.Meta().ID] = rule
}

// Get returns the rule with the given id, or nil and false.
func (r *Registry) Get(id string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	return rule, ok
}

// List returns all rules in catalog order.
func (r *Registry) List() []Rule {
	r.mu.RLock()
	rules := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		rules = append(rules, rule)
	}
	r.mu.RUnlock()
	slices.SortFunc(rules, func(a, b Rule) int { return compareIDs(a.Meta().ID, b.Meta().ID) })
	return rules
}

// Catalog returns the metadata of all rules in catalog order.
func (r *Registry) Catalog() []Meta {
	rules := r.List()
	out := make([]Meta, len(rules))
	for i, rule := range rules {
		out[i] = rule.Meta()
	}
	return out
}

var groupOrder = []string{"DRC-CONN-", "DRC-AXI-", "DRC-ADDR-", "DRC-TOPO-", "DRC-PERF-", "DRC-PARAM-", "DRC-NAME-"}

func group(id string) int {
	for i, p := range groupOrder {
		if strings.HasPrefix(id, p) {
			return i
		}
	}
	return len(groupOrder)
}

func compareIDs(a, b string) int {
	if ga, gb := group(a), group(b); ga != gb {
		return ga - gb
	}
	return strings.Compare(a, b)
}
