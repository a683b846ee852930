package result

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/soc-pilot/drc/internal/diagram"
)

func TestAggregate_OrdersBySeverityStable(t *testing.T) {
	in := []Finding{
		{RuleID: "A", Severity: Info},
		{RuleID: "B", Severity: Critical},
		{RuleID: "C", Severity: Warning},
		{RuleID: "D", Severity: Critical},
		{RuleID: "E", Severity: Info},
	}
	res := Aggregate(in, 26, time.Unix(0, 0))

	var ids []string
	for _, f := range res.Findings {
		ids = append(ids, f.RuleID)
	}
	assert.Equal(t, []string{"B", "D", "C", "A", "E"}, ids)
	assert.Equal(t, Summary{Total: 5, Critical: 2, Warning: 1, Info: 2}, res.Summary)
	assert.False(t, res.Passed)
	assert.Equal(t, 26, res.TotalChecks)
	assert.Equal(t, "A", in[0].RuleID, "input slice must not be reordered")
}

func TestAggregate_PassedDependsOnlyOnCritical(t *testing.T) {
	tests := []struct {
		name     string
		findings []Finding
		passed   bool
	}{
		{"none", nil, true},
		{"warnings and info", []Finding{{Severity: Warning}, {Severity: Warning}, {Severity: Info}}, true},
		{"one critical", []Finding{{Severity: Critical}}, false},
		{"critical among many", []Finding{{Severity: Info}, {Severity: Critical}, {Severity: Warning}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Aggregate(tt.findings, 1, time.Now())
			assert.Equal(t, tt.passed, res.Passed)
			assert.Equal(t, res.Passed, res.CriticalCount() == 0)
			assert.NotNil(t, res.Findings)
		})
	}
}

func TestDRCResult_CloneIsDeep(t *testing.T) {
	idx := 2
	orig := &DRCResult{
		ID:       "r1",
		Findings: []Finding{{RuleID: "DRC-ADDR-001", AffectedComponents: []string{"ddr", "sram"}}},
		NormalizationIssues: []diagram.ValidationIssue{{
			Type:    diagram.IssueMissingNode,
			Details: diagram.IssueDetails{EdgeIndex: &idx, MissingNodes: []string{"ghost"}},
		}},
		RuleErrors: []RuleError{{RuleID: "DRC-TOPO-001", Message: "boom"}},
	}
	c := orig.Clone()
	assert.Equal(t, orig, c)

	c.Findings[0].RuleID = "changed"
	c.Findings[0].AffectedComponents[0] = "changed"
	c.NormalizationIssues[0].Details.MissingNodes[0] = "changed"
	*c.NormalizationIssues[0].Details.EdgeIndex = 9
	c.RuleErrors[0].Message = "changed"

	assert.Equal(t, "DRC-ADDR-001", orig.Findings[0].RuleID)
	assert.Equal(t, "ddr", orig.Findings[0].AffectedComponents[0])
	assert.Equal(t, "ghost", orig.NormalizationIssues[0].Details.MissingNodes[0])
	assert.Equal(t, 2, *orig.NormalizationIssues[0].Details.EdgeIndex)
	assert.Equal(t, "boom", orig.RuleErrors[0].Message)

	var none *DRCResult
	assert.Nil(t, none.Clone())
}
