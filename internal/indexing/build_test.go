package indexing_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/krakend/docindex-mcp/internal/indexing"
)

func TestIndexAll_Batches(t *testing.T) {
	index, err := bleve.NewMemOnly(indexing.NewIndexMapping())
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	defer index.Close()

	total := indexing.BatchSize*2 + 5
	chunks := make([]indexing.DocChunk, total)
	for i := range chunks {
		chunks[i] = indexing.DocChunk{
			ID:       fmt.Sprintf("docs_%d", i),
			Source:   "docs",
			Page:     "Home",
			Category: "section",
			Content:  fmt.Sprintf("paragraph number %d", i),
		}
	}

	var calls [][2]int
	err = indexing.IndexAll(index, chunks, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatalf("IndexAll failed: %v", err)
	}

	count, err := index.DocCount()
	if err != nil {
		t.Fatalf("DocCount failed: %v", err)
	}
	if int(count) != total {
		t.Errorf("Expected %d docs, got %d", total, count)
	}

	want := [][2]int{{indexing.BatchSize, total}, {indexing.BatchSize * 2, total}, {total, total}}
	if len(calls) != len(want) {
		t.Fatalf("Expected %d progress calls, got %v", len(want), calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("Progress call %d = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestIndexAll_Empty(t *testing.T) {
	index, err := bleve.NewMemOnly(indexing.NewIndexMapping())
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	defer index.Close()

	called := false
	if err := indexing.IndexAll(index, nil, func(int, int) { called = true }); err != nil {
		t.Fatalf("IndexAll failed: %v", err)
	}
	if called {
		t.Error("Progress should not be reported for an empty chunk list")
	}
}

func TestCreateIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	chunks := indexing.ChunkIndex("trixibase", sampleIndex(), "https://example.org/", indexing.Options{})

	if err := indexing.CreateIndex(path, chunks, nil); err != nil {
		t.Fatalf("CreateIndex failed: %v", err)
	}

	index, err := bleve.Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen index: %v", err)
	}
	defer index.Close()

	count, _ := index.DocCount()
	if int(count) != len(chunks) {
		t.Errorf("Expected %d docs, got %d", len(chunks), count)
	}

	if err := indexing.CreateIndex(path, chunks, nil); err == nil {
		t.Error("Expected error creating an index over an existing one")
	}
}

func TestState(t *testing.T) {
	path := indexing.StatePath(filepath.Join(t.TempDir(), "index"))
	if filepath.Base(path) != "index.meta" {
		t.Errorf("Unexpected state path %s", path)
	}

	if _, err := indexing.ReadState(path); !os.IsNotExist(err) {
		t.Errorf("Expected not-exist error, got %v", err)
	}

	state := indexing.State{
		Version:     indexing.IndexSchemaVersion,
		Fingerprint: "0123456789abcdef",
		Sources:     []string{"trixibase"},
		Chunks:      9,
		BuiltAt:     time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := indexing.WriteState(path, state); err != nil {
		t.Fatalf("WriteState failed: %v", err)
	}

	got, err := indexing.ReadState(path)
	if err != nil {
		t.Fatalf("ReadState failed: %v", err)
	}
	if got.Version != state.Version || got.Fingerprint != state.Fingerprint || got.Chunks != 9 ||
		len(got.Sources) != 1 || !got.BuiltAt.Equal(state.BuiltAt) {
		t.Errorf("ReadState() = %+v, want %+v", got, state)
	}

	if err := os.WriteFile(path, []byte("version: [\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := indexing.ReadState(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestCombineFingerprints(t *testing.T) {
	a := indexing.SourceFingerprint{Name: "a", Fingerprint: "1111"}
	b := indexing.SourceFingerprint{Name: "b", Fingerprint: "2222"}

	ab := indexing.CombineFingerprints([]indexing.SourceFingerprint{a, b})
	if len(ab) != 16 {
		t.Errorf("Expected 16-char fingerprint, got %q", ab)
	}
	if ab != indexing.CombineFingerprints([]indexing.SourceFingerprint{a, b}) {
		t.Error("Fingerprint should be deterministic")
	}
	if ab == indexing.CombineFingerprints([]indexing.SourceFingerprint{b, a}) {
		t.Error("Fingerprint should depend on source order")
	}

	// Name and fingerprint boundaries are separated
	joined := indexing.CombineFingerprints([]indexing.SourceFingerprint{{Name: "ab", Fingerprint: "c"}})
	split := indexing.CombineFingerprints([]indexing.SourceFingerprint{{Name: "a", Fingerprint: "bc"}})
	if joined == split {
		t.Error("Expected distinct fingerprints for shifted boundaries")
	}
}
