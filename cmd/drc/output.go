package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/soc-pilot/drc/internal/checker"
	"github.com/soc-pilot/drc/internal/diagram"
	"github.com/soc-pilot/drc/internal/result"
)

var (
	criticalColor = color.New(color.FgRed, color.Bold)
	warningColor  = color.New(color.FgYellow, color.Bold)
	infoColor     = color.New(color.FgCyan)
	passColor     = color.New(color.FgGreen, color.Bold)
	dimColor      = color.New(color.Faint)
)

func severityLabel(s result.Severity) string {
	label := "[" + strings.ToUpper(string(s)) + "]"
	switch s {
	case result.Critical:
		return criticalColor.Sprint(label)
	case result.Warning:
		return warningColor.Sprint(label)
	}
	return infoColor.Sprint(label)
}

func printReport(w io.Writer, res *result.DRCResult) {
	for _, issue := range res.NormalizationIssues {
		fmt.Fprintf(w, "%s %s (auto-fix: %s)\n", dimColor.Sprint("[NORMALIZE]"), issue.Message, issue.AutoFix)
	}
	for _, f := range res.Findings {
		fmt.Fprintf(w, "%s %s %s\n", severityLabel(f.Severity), f.RuleID, f.Message)
		if f.SuggestedFix != "" {
			fmt.Fprintf(w, "  %s %s\n", dimColor.Sprint("fix:"), f.SuggestedFix)
		}
	}
	for _, re := range res.RuleErrors {
		fmt.Fprintf(w, "%s rule %s did not complete: %s\n", criticalColor.Sprint("[ENGINE]"), re.RuleID, re.Message)
	}

	verdict := passColor.Sprint("PASSED")
	if !res.Passed {
		verdict = criticalColor.Sprint("FAILED")
	}
	fmt.Fprintf(w, "%s  %d checks, %d critical, %d warning, %d info (%d ms)\n",
		verdict, res.TotalChecks, res.Summary.Critical, res.Summary.Warning, res.Summary.Info, res.DurationMs)
}

func printIssues(w io.Writer, issues []diagram.ValidationIssue) {
	if len(issues) == 0 {
		fmt.Fprintln(w, passColor.Sprint("diagram is clean"))
		return
	}
	for _, issue := range issues {
		label := warningColor.Sprint("[" + strings.ToUpper(string(issue.Severity)) + "]")
		if issue.Severity == diagram.SeverityError {
			label = criticalColor.Sprint("[ERROR]")
		}
		fmt.Fprintf(w, "%s %s: %s (auto-fix: %s)\n", label, issue.Type, issue.Message, issue.AutoFix)
	}
}

func printCatalog(w io.Writer, rules []checker.RuleMeta) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSEVERITY\tCATEGORY\tNAME")
	for _, r := range rules {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Severity, r.Category, r.Name)
	}
	return tw.Flush()
}
