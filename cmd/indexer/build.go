package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/krakend/docindex-mcp/internal/indexing"
	"github.com/krakend/docindex-mcp/internal/searchindex"
)

// Run executes the build command.
func (c *BuildCmd) Run(deps *Dependencies) error {
	startTime := time.Now()
	log := deps.Logger.With(zap.String("source", c.Source))

	src, err := readSource(deps, c.File)
	if err != nil {
		return err
	}

	idx, report, err := searchindex.Require(src, searchindex.Options{Strict: c.Strict})
	if err != nil {
		printReport(deps.Stderr, report)
		return err
	}
	for _, issue := range report.Warnings {
		log.Debug("validation warning",
			zap.String("path", issue.Path), zap.String("code", issue.Code), zap.String("message", issue.Message))
	}

	chunks := indexing.ChunkIndex(c.Source, idx, c.BaseURL, indexing.Options{KeepMeta: c.KeepMeta})
	log.Info("chunked records",
		zap.Int("records", idx.Len()),
		zap.Int("chunks", len(chunks)),
		zap.Int("avg_tokens", indexing.AverageTokens(chunks)),
		zap.Int("oversized", indexing.CountOversized(chunks)))

	if _, err := os.Stat(c.IndexDir); err == nil {
		if !c.Force {
			return fmt.Errorf("index %s already exists (use --force to replace it)", c.IndexDir)
		}
		if err := os.RemoveAll(c.IndexDir); err != nil {
			return fmt.Errorf("failed to remove existing index: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(c.IndexDir), 0755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	err = indexing.CreateIndex(c.IndexDir, chunks, func(done, total int) {
		log.Debug("indexed batch", zap.Int("done", done), zap.Int("total", total))
	})
	if err != nil {
		return err
	}

	fp, err := searchindex.Fingerprint(idx)
	if err != nil {
		return err
	}
	state := indexing.State{
		Version:     indexing.IndexSchemaVersion,
		Fingerprint: indexing.CombineFingerprints([]indexing.SourceFingerprint{{Name: c.Source, Fingerprint: fp}}),
		Sources:     []string{c.Source},
		Chunks:      len(chunks),
		BuiltAt:     time.Now().UTC(),
	}
	if err := indexing.WriteState(indexing.StatePath(c.IndexDir), state); err != nil {
		return err
	}

	log.Info("index built", zap.String("path", c.IndexDir), zap.Duration("elapsed", time.Since(startTime).Round(time.Millisecond)))
	fmt.Fprintf(deps.Stdout, "Indexed %d chunks from %d records into %s\n", len(chunks), idx.Len(), c.IndexDir)
	fmt.Fprintf(deps.Stdout, "Fingerprint: %s\n", state.Fingerprint)
	return nil
}
