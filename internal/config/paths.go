package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirName is the per-user data directory under the home directory.
const DataDirName = ".docindex-mcp"

// Subdirectories of the data directory.
const (
	SourcesDir = "sources"
	SearchDir  = "search"
)

// ResolveDataDir returns the data directory to use and creates its layout.
//
// Order: the configured DataDir, ~/.docindex-mcp, a data/ directory next to
// the binary's install root, and finally ./data.
func (c *Config) ResolveDataDir() (string, error) {
	dir, err := c.locateDataDir()
	if err != nil {
		return "", err
	}
	for _, sub := range []string{SourcesDir, SearchDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return "", fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	return dir, nil
}

func (c *Config) locateDataDir() (string, error) {
	if c.DataDir != "" {
		return filepath.Abs(c.DataDir)
	}

	if home, err := os.UserHomeDir(); err == nil {
		userDir := filepath.Join(home, DataDirName)
		if info, err := os.Stat(userDir); err == nil && info.IsDir() {
			return userDir, nil
		}
		if err := os.MkdirAll(userDir, 0755); err == nil {
			return userDir, nil
		}
	}

	// Plugin layout: <root>/servers/<name>/<binary> with data at <root>/data
	if execPath, err := os.Executable(); err == nil {
		relative := filepath.Join(filepath.Dir(execPath), "..", "..", "data")
		if info, err := os.Stat(relative); err == nil && info.IsDir() {
			return filepath.Abs(relative)
		}
	}

	return filepath.Abs(filepath.Join(".", "data"))
}
