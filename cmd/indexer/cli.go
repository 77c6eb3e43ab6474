package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx    context.Context
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger *zap.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Verbose bool `short:"v" help:"Log debug output to stderr"`

	Validate ValidateCmd `cmd:"" help:"Validate a search_index.js file"`
	Fmt      FmtCmd      `cmd:"" help:"Rewrite a search_index.js file in canonical form"`
	Stats    StatsCmd    `cmd:"" help:"Summarize the records and pages of a search_index.js file"`
	Build    BuildCmd    `cmd:"" help:"Build a full-text search index from a search_index.js file"`
}

// ValidateCmd is the "validate" subcommand.
type ValidateCmd struct {
	File       string `arg:"" help:"search_index.js file, or - for stdin"`
	Strict     bool   `help:"Reject docstring categories"`
	AllowEmpty bool   `name:"allow-empty" help:"Accept an index without records"`
	JSON       bool   `name:"json" help:"Print the report as JSON"`
}

// FmtCmd is the "fmt" subcommand.
type FmtCmd struct {
	File  string `arg:"" help:"search_index.js file, or - for stdin"`
	Write bool   `short:"w" help:"Write the result back to the file instead of stdout"`
	List  bool   `short:"l" help:"Print the file name if its formatting differs"`
}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct {
	File string `arg:"" help:"search_index.js file, or - for stdin"`
	JSON bool   `name:"json" help:"Print the statistics as JSON"`
}

// BuildCmd is the "build" subcommand.
type BuildCmd struct {
	File     string `arg:"" help:"search_index.js file, or - for stdin"`
	IndexDir string `arg:"" name:"index-dir" help:"Directory to create the index in"`
	Source   string `default:"docs" help:"Source name recorded on every chunk"`
	BaseURL  string `name:"base-url" help:"Site root used to build absolute links"`
	Strict   bool   `help:"Reject docstring categories"`
	KeepMeta bool   `name:"keep-meta" help:"Index Documenter metadata blocks too"`
	Force    bool   `short:"f" help:"Replace an existing index"`
}

// readSource reads the named file, or stdin for "-".
func readSource(deps *Dependencies, name string) ([]byte, error) {
	if name == "-" {
		if deps.Stdin == nil {
			return nil, fmt.Errorf("no stdin available")
		}
		data, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, nil
}
