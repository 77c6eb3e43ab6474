package tools

import (
	"io/fs"
)

// DataProvider gives access to the documentation bundled with the binary.
// Tests substitute an in-memory implementation.
type DataProvider interface {
	// ReadFile reads the named file, relative to the data root
	// (e.g. "data/sources/trixibase.js").
	ReadFile(name string) ([]byte, error)

	// ReadDir lists the named directory (e.g. "data/sources").
	ReadDir(name string) ([]fs.DirEntry, error)
}
