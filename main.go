package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/krakend/docindex-mcp/internal/config"
	"github.com/krakend/docindex-mcp/internal/logging"
	"github.com/krakend/docindex-mcp/tools"
)

const (
	version     = "0.1.0"
	serverName  = "docindex-mcp"
	description = "MCP server for searching and validating Documenter search indexes"
)

// CLI is the server command line.
type CLI struct {
	Config    string           `help:"YAML configuration file." env:"DOCINDEX_CONFIG" type:"path"`
	DataDir   string           `help:"Directory holding downloaded sources and the search index." type:"path"`
	LogLevel  string           `help:"Log level (debug, info, warn, error)."`
	LogFormat string           `help:"Log format (json, console)."`
	Version   kong.VersionFlag `help:"Print version and exit."`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name(serverName),
		kong.Description(description),
		kong.Vars{"version": fmt.Sprintf("%s version %s", serverName, version)},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cli); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serverName, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cli CLI) error {
	cfg, err := config.LoadWithOverrides(cli.Config, config.Overrides{
		DataDir:   cli.DataDir,
		LogLevel:  cli.LogLevel,
		LogFormat: cli.LogFormat,
	})
	if err != nil {
		return err
	}

	// Logs go to stderr, stdout carries the MCP protocol
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("starting", zap.String("server", serverName), zap.String("version", version))

	dir, err := cfg.ResolveDataDir()
	if err != nil {
		return fmt.Errorf("failed to resolve data directory: %w", err)
	}
	tools.Configure(cfg, dir, logger)
	logger.Info("data directory resolved", zap.String("path", dir), zap.Int("sources", len(cfg.Sources)))

	server := createMCPServer(logger)
	if err := registerTools(server, logger); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	defer func() {
		if err := tools.CloseDocSearch(); err != nil {
			logger.Error("error closing doc search", zap.Error(err))
		}
	}()

	logger.Info("server ready and waiting for connections")
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// createMCPServer initializes the MCP server
func createMCPServer(logger *zap.Logger) *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil,
	)

	logger.Debug("server initialized", zap.String("name", serverName), zap.String("version", version))
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server, logger *zap.Logger) error {
	toolCount := 0

	// Validation (1 tool)
	if err := tools.RegisterValidationTools(server); err != nil {
		return fmt.Errorf("failed to register validation tools: %w", err)
	}
	toolCount++

	// Documentation search (2 tools)
	if err := tools.RegisterDocSearchTools(server); err != nil {
		logger.Warn("failed to register doc search tools, documentation search will be unavailable", zap.Error(err))
	} else {
		toolCount += 2
	}

	// Page browsing (2 tools)
	if err := tools.RegisterPageTools(server); err != nil {
		return fmt.Errorf("failed to register page tools: %w", err)
	}
	toolCount += 2

	logger.Info("all tools registered", zap.Int("tools", toolCount))
	return nil
}
