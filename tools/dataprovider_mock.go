package tools

import (
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// MockDataProvider implements DataProvider over an in-memory file map.
type MockDataProvider struct {
	files map[string][]byte
}

// NewMockDataProvider creates an empty mock data provider.
func NewMockDataProvider() *MockDataProvider {
	return &MockDataProvider{
		files: make(map[string][]byte),
	}
}

// AddFile adds a file to the mock provider.
func (m *MockDataProvider) AddFile(name string, content []byte) {
	m.files[name] = content
}

// AddSource adds a bundled search_index.js payload under data/sources.
func (m *MockDataProvider) AddSource(name string, payload []byte) {
	m.AddFile(path.Join(embeddedSourcesDir, name+".js"), payload)
}

// ReadFile reads a file from the mock storage.
func (m *MockDataProvider) ReadFile(name string) ([]byte, error) {
	content, exists := m.files[name]
	if !exists {
		return nil, fs.ErrNotExist
	}
	return content, nil
}

// ReadDir lists the files and subdirectories directly under name, sorted by
// name like fs.ReadDir.
func (m *MockDataProvider) ReadDir(name string) ([]fs.DirEntry, error) {
	prefix := strings.TrimSuffix(name, "/") + "/"
	if name == "." {
		prefix = ""
	}

	seen := make(map[string]bool)
	var entries []fs.DirEntry
	for filePath := range m.files {
		rest, ok := strings.CutPrefix(filePath, prefix)
		if !ok || rest == "" {
			continue
		}
		child, _, nested := strings.Cut(rest, "/")
		if seen[child] {
			continue
		}
		seen[child] = true
		entries = append(entries, &mockDirEntry{name: child, isDir: nested, size: int64(len(m.files[filePath]))})
	}

	if len(entries) == 0 {
		return nil, fs.ErrNotExist
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	return entries, nil
}

// mockDirEntry implements fs.DirEntry for testing.
type mockDirEntry struct {
	name  string
	isDir bool
	size  int64
}

func (e *mockDirEntry) Name() string { return e.name }
func (e *mockDirEntry) IsDir() bool  { return e.isDir }

func (e *mockDirEntry) Type() fs.FileMode {
	if e.isDir {
		return fs.ModeDir
	}
	return 0
}

func (e *mockDirEntry) Info() (fs.FileInfo, error) {
	return &mockFileInfo{name: e.name, isDir: e.isDir, size: e.size}, nil
}

// mockFileInfo implements fs.FileInfo for testing.
type mockFileInfo struct {
	name  string
	isDir bool
	size  int64
}

func (i *mockFileInfo) Name() string { return i.name }
func (i *mockFileInfo) Size() int64 {
	if i.isDir {
		return 0
	}
	return i.size
}
func (i *mockFileInfo) Mode() fs.FileMode {
	if i.isDir {
		return fs.ModeDir | 0555
	}
	return 0444
}
func (i *mockFileInfo) ModTime() time.Time { return time.Time{} }
func (i *mockFileInfo) IsDir() bool        { return i.isDir }
func (i *mockFileInfo) Sys() any           { return nil }

// SetDefaultDataProvider replaces the bundled documentation, for tests.
func SetDefaultDataProvider(provider DataProvider) {
	defaultDataProvider = provider
}

// ResetDefaultDataProvider restores the embedded documentation.
func ResetDefaultDataProvider() {
	defaultDataProvider = NewEmbeddedDataProvider()
}
