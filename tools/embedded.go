package tools

import (
	"embed"
	"io/fs"
)

// Documentation bundled into the binary so the server answers queries
// before any source has been downloaded.
//
// Embedded files:
// - data/sources.yaml: names and URLs of the bundled sources
// - data/sources/<name>.js: one search_index.js payload per source

//go:embed data/sources.yaml data/sources/*.js
var embeddedFS embed.FS

const (
	embeddedManifest   = "data/sources.yaml"
	embeddedSourcesDir = "data/sources"
)

// embeddedDataProvider implements DataProvider using embed.FS.
type embeddedDataProvider struct {
	fs embed.FS
}

// NewEmbeddedDataProvider creates a production DataProvider that uses embedded files.
func NewEmbeddedDataProvider() DataProvider {
	return &embeddedDataProvider{fs: embeddedFS}
}

// ReadFile reads the named file from the embedded filesystem.
func (p *embeddedDataProvider) ReadFile(name string) ([]byte, error) {
	return p.fs.ReadFile(name)
}

// ReadDir reads the named directory from the embedded filesystem.
func (p *embeddedDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	return p.fs.ReadDir(name)
}

// Default provider used by package-level functions
var defaultDataProvider DataProvider = NewEmbeddedDataProvider()
