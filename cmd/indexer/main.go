// Command indexer validates, formats, and inspects Documenter
// search_index.js files, and prebuilds the search index the server opens.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/krakend/docindex-mcp/internal/config"
	"github.com/krakend/docindex-mcp/internal/logging"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Stdin is read when a command is given "-" as its file.
	Stdin io.Reader

	// Logger overrides the console logger built from --verbose.
	Logger *zap.Logger
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{Stdin: os.Stdin}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdin:  m.Stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("indexer"),
		kong.Description("Validate, format, and index Documenter search_index.js files."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'indexer --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Logger = m.Logger
	if deps.Logger == nil {
		level := "info"
		if cli.Verbose {
			level = "debug"
		}
		logger, err := logging.New(config.LoggingConfig{Level: level, Format: "console"})
		if err != nil {
			return err
		}
		defer logger.Sync()
		deps.Logger = logger
	}

	return kongCtx.Run(deps)
}
