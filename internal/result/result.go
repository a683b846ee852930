package result

import (
	"slices"
	"time"

	"github.com/soc-pilot/drc/internal/diagram"
)

// Severity is the weight of a rule finding.
type Severity string

const (
	Critical Severity = "critical"
	Warning  Severity = "warning"
	Info     Severity = "info"
)

// Rank orders severities from most to least severe.
func (s Severity) Rank() int {
	switch s {
	case Critical:
		return 0
	case Warning:
		return 1
	case Info:
		return 2
	}
	return 3
}

// Category groups rules by the design concern they check.
type Category string

const (
	Connectivity Category = "connectivity"
	Power        Category = "power"
	Clock        Category = "clock"
	Performance  Category = "performance"
	Compliance   Category = "compliance"
	Custom       Category = "custom"
	Naming       Category = "naming"
	Topology     Category = "topology"
	Address      Category = "address"
	Parameter    Category = "parameter"
)

// Finding is one rule violation.
type Finding struct {
	RuleID             string   `json:"ruleId"`
	Severity           Severity `json:"severity"`
	Category           Category `json:"category"`
	Message            string   `json:"message"`
	AffectedComponents []string `json:"affectedComponents"`
	SuggestedFix       string   `json:"suggestedFix,omitempty"`
	EdgeID             string   `json:"edgeId,omitempty"`
}

// RuleError records a rule that failed to run to completion.
type RuleError struct {
	RuleID  string `json:"ruleId"`
	Message string `json:"message"`
}

// Summary holds finding counts per severity.
type Summary struct {
	Total    int `json:"total"`
	Critical int `json:"critical"`
	Warning  int `json:"warning"`
	Info     int `json:"info"`
}

// DRCResult is the aggregated report for one check.
type DRCResult struct {
	ID                  string                    `json:"id"`
	ProjectID           string                    `json:"projectId,omitempty"`
	Timestamp           time.Time                 `json:"timestamp"`
	DiagramDigest       string                    `json:"diagramDigest"`
	TotalChecks         int                       `json:"totalChecks"`
	Passed              bool                      `json:"passed"`
	Complete            bool                      `json:"complete"`
	Summary             Summary                   `json:"summary"`
	Findings            []Finding                 `json:"findings"`
	NormalizationIssues []diagram.ValidationIssue `json:"normalizationIssues"`
	RuleErrors          []RuleError               `json:"ruleErrors,omitempty"`
	DurationMs          int64                     `json:"durationMs"`
}

// CriticalCount returns the number of critical findings.
func (r *DRCResult) CriticalCount() int { return r.Summary.Critical }

// Clone returns a deep copy of the report. Reports shared between callers are
// cloned before being handed out.
func (r *DRCResult) Clone() *DRCResult {
	if r == nil {
		return nil
	}
	out := *r
	if r.Findings != nil {
		out.Findings = make([]Finding, len(r.Findings))
		for i, f := range r.Findings {
			f.AffectedComponents = slices.Clone(f.AffectedComponents)
			out.Findings[i] = f
		}
	}
	if r.NormalizationIssues != nil {
		out.NormalizationIssues = make([]diagram.ValidationIssue, len(r.NormalizationIssues))
		for i, issue := range r.NormalizationIssues {
			out.NormalizationIssues[i] = issue.Clone()
		}
	}
	out.RuleErrors = slices.Clone(r.RuleErrors)
	return &out
}
