package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/krakend/docindex-mcp/internal/searchindex"
)

type statsOutput struct {
	Summary     searchindex.Summary `json:"summary"`
	Pages       []searchindex.Page  `json:"pages"`
	Fingerprint string              `json:"fingerprint"`
}

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	src, err := readSource(deps, c.File)
	if err != nil {
		return err
	}

	idx, err := searchindex.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	fp, err := searchindex.Fingerprint(idx)
	if err != nil {
		return err
	}

	out := statsOutput{
		Summary:     searchindex.Summarize(idx),
		Pages:       searchindex.Pages(idx),
		Fingerprint: fp,
	}

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	s := out.Summary
	tw := tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Records:\t%d\n", s.Records)
	fmt.Fprintf(tw, "Pages:\t%d\n", s.Pages)
	fmt.Fprintf(tw, "Sections:\t%d\n", s.Sections)
	fmt.Fprintf(tw, "Docstrings:\t%d\n", s.Docstrings)
	fmt.Fprintf(tw, "Empty text:\t%d\n", s.EmptyText)
	fmt.Fprintf(tw, "Text bytes:\t%d\n", s.TextBytes)
	fmt.Fprintf(tw, "Fingerprint:\t%s\n", fp)
	tw.Flush()

	fmt.Fprintln(deps.Stdout, "\nCategories:")
	tw = tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	for _, cat := range s.Categories() {
		fmt.Fprintf(tw, "  %s\t%d\n", cat, s.ByCategory[cat])
	}
	tw.Flush()

	fmt.Fprintln(deps.Stdout, "\nPages:")
	tw = tabwriter.NewWriter(deps.Stdout, 0, 4, 2, ' ', 0)
	for _, p := range out.Pages {
		path := p.Path
		if path == "" {
			path = "/"
		}
		fmt.Fprintf(tw, "  %s\t%s\t%d record(s)\n", p.Name, path, p.Records)
	}
	return tw.Flush()
}
