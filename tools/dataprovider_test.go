package tools

import (
	"io/fs"
	"testing"
)

func TestMockDataProvider_ReadFile(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddFile("data/sources.yaml", []byte("sources: []"))

	content, err := mock.ReadFile("data/sources.yaml")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != "sources: []" {
		t.Errorf("Expected manifest content, got: %s", string(content))
	}

	_, err = mock.ReadFile("data/missing.js")
	if err != fs.ErrNotExist {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}
}

func TestMockDataProvider_ReadDir(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddSource("zeta", []byte("var documenterSearchIndex = {\"docs\":[]}"))
	mock.AddSource("alpha", []byte("var documenterSearchIndex = {\"docs\":[]}"))
	mock.AddFile("data/sources/nested/extra.js", []byte("{}"))
	mock.AddFile("data/sources.yaml", []byte("sources: []"))

	entries, err := mock.ReadDir("data/sources")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := []struct {
		name  string
		isDir bool
	}{
		{"alpha.js", false},
		{"nested", true},
		{"zeta.js", false},
	}
	if len(entries) != len(want) {
		t.Fatalf("Expected %d entries, got: %d", len(want), len(entries))
	}
	for i, w := range want {
		if entries[i].Name() != w.name || entries[i].IsDir() != w.isDir {
			t.Errorf("Entry %d: got (%s, dir=%v), want (%s, dir=%v)",
				i, entries[i].Name(), entries[i].IsDir(), w.name, w.isDir)
		}
	}

	top, err := mock.ReadDir("data")
	if err != nil {
		t.Fatalf("Expected no error listing data, got: %v", err)
	}
	if len(top) != 2 || top[0].Name() != "sources" || !top[0].IsDir() || top[1].Name() != "sources.yaml" {
		t.Errorf("Unexpected data listing: %v", top)
	}

	_, err = mock.ReadDir("data/missing")
	if err != fs.ErrNotExist {
		t.Errorf("Expected fs.ErrNotExist, got: %v", err)
	}
}

func TestMockDataProvider_SetAndReset(t *testing.T) {
	mock := NewMockDataProvider()
	mock.AddFile("data/sources.yaml", []byte("sources: []"))

	originalProvider := defaultDataProvider
	defer func() {
		defaultDataProvider = originalProvider
	}()

	SetDefaultDataProvider(mock)

	content, err := defaultDataProvider.ReadFile("data/sources.yaml")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(content) != "sources: []" {
		t.Errorf("Expected manifest, got: %s", string(content))
	}

	ResetDefaultDataProvider()

	if defaultDataProvider == mock {
		t.Error("Expected defaultDataProvider to be reset")
	}
}

func TestEmbeddedDataProvider(t *testing.T) {
	provider := NewEmbeddedDataProvider()

	entries, err := provider.ReadDir(embeddedSourcesDir)
	if err != nil {
		t.Fatalf("Failed to list embedded sources: %v", err)
	}
	found := false
	for _, entry := range entries {
		if entry.Name() == "trixibase.js" {
			found = true
		}
	}
	if !found {
		t.Error("Expected trixibase.js to be embedded")
	}

	if _, err := provider.ReadFile(embeddedManifest); err != nil {
		t.Errorf("Expected embedded manifest, got: %v", err)
	}
}

func TestMockDirEntry(t *testing.T) {
	entry := &mockDirEntry{name: "trixibase.js", size: 42}

	if entry.Name() != "trixibase.js" {
		t.Errorf("Expected name 'trixibase.js', got: %s", entry.Name())
	}
	if entry.IsDir() {
		t.Error("Expected file, got directory")
	}
	if entry.Type() == fs.ModeDir {
		t.Error("Expected file type, got directory type")
	}

	info, err := entry.Info()
	if err != nil {
		t.Fatalf("Expected no error from Info(), got: %v", err)
	}
	if info.Name() != "trixibase.js" {
		t.Errorf("Expected info name 'trixibase.js', got: %s", info.Name())
	}
	if info.Size() != 42 {
		t.Errorf("Expected size 42, got: %d", info.Size())
	}

	dir := &mockDirEntry{name: "nested", isDir: true}
	dirInfo, _ := dir.Info()
	if !dirInfo.IsDir() || !dirInfo.Mode().IsDir() {
		t.Error("Expected directory info")
	}
	if !dirInfo.ModTime().IsZero() || dirInfo.Sys() != nil {
		t.Error("Expected zero ModTime and nil Sys")
	}
}
