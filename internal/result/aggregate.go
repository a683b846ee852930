package result

import (
	"slices"
	"time"
)

// Aggregate orders findings by severity (stable, so rule order survives within
// a severity), counts them and stamps the verdict. It does no I/O.
func Aggregate(findings []Finding, totalChecks int, now time.Time) DRCResult {
	ordered := make([]Finding, len(findings))
	copy(ordered, findings)
	slices.SortStableFunc(ordered, func(a, b Finding) int {
		return a.Severity.Rank() - b.Severity.Rank()
	})

	res := DRCResult{
		Timestamp:   now.UTC(),
		TotalChecks: totalChecks,
		Findings:    ordered,
		Complete:    true,
	}
	for _, f := range ordered {
		switch f.Severity {
		case Critical:
			res.Summary.Critical++
		case Warning:
			res.Summary.Warning++
		case Info:
			res.Summary.Info++
		}
	}
	res.Summary.Total = len(ordered)
	res.Passed = res.Summary.Critical == 0
	return res
}
