package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/krakend/docindex-mcp/internal/searchindex"
)

// validateOutput is the JSON rendering of a validation run.
type validateOutput struct {
	*searchindex.Report
	Stats       *searchindex.Summary `json:"stats,omitempty"`
	Fingerprint string               `json:"fingerprint,omitempty"`
}

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	src, err := readSource(deps, c.File)
	if err != nil {
		return err
	}

	report, idx := searchindex.Check(src, searchindex.Options{Strict: c.Strict, AllowEmpty: c.AllowEmpty})

	if c.JSON {
		out := validateOutput{Report: report}
		if idx != nil {
			stats := searchindex.Summarize(idx)
			out.Stats = &stats
			out.Fingerprint, _ = searchindex.Fingerprint(idx)
		}
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else {
		printReport(deps.Stdout, report)
	}

	return report.Err()
}

func printReport(w io.Writer, report *searchindex.Report) {
	if len(report.Errors)+len(report.Warnings) > 0 {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, issue := range report.Errors {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", issue.Severity, issue.Path, issue.Code, issue.Message)
		}
		for _, issue := range report.Warnings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", issue.Severity, issue.Path, issue.Code, issue.Message)
		}
		tw.Flush()
	}
	fmt.Fprintln(w, report.Summary)
}
