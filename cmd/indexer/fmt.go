package main

import (
	"bytes"
	"fmt"

	"github.com/krakend/docindex-mcp/internal/searchindex"
)

// Run executes the fmt command.
func (c *FmtCmd) Run(deps *Dependencies) error {
	if c.Write && c.File == "-" {
		return fmt.Errorf("cannot use -w with stdin")
	}

	src, err := readSource(deps, c.File)
	if err != nil {
		return err
	}

	idx, err := searchindex.Parse(src)
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	if err := searchindex.RoundTrip(idx); err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}

	out, err := searchindex.Marshal(idx)
	if err != nil {
		return fmt.Errorf("%s: %w", c.File, err)
	}
	changed := !bytes.Equal(src, out)

	if c.List && changed {
		fmt.Fprintln(deps.Stdout, c.File)
	}

	switch {
	case c.Write:
		if !changed {
			return nil
		}
		if err := searchindex.WriteFile(c.File, idx); err != nil {
			return err
		}
		deps.Logger.Debug("rewrote search index")
		return nil
	case c.List:
		return nil
	default:
		_, err := deps.Stdout.Write(out)
		return err
	}
}
