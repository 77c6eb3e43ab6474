package indexing

import (
	"fmt"
	"os"

	"github.com/blevesearch/bleve/v2"
)

// BatchSize is the number of chunks submitted per bleve batch.
const BatchSize = 100

// IndexAll adds chunks to idx in batches of BatchSize. progress, if set, is
// called after every submitted batch.
func IndexAll(idx bleve.Index, chunks []DocChunk, progress func(done, total int)) error {
	batch := idx.NewBatch()
	for i, chunk := range chunks {
		if err := batch.Index(chunk.ID, chunk); err != nil {
			return fmt.Errorf("failed to add chunk %s to batch: %w", chunk.ID, err)
		}

		if batch.Size() >= BatchSize {
			if err := idx.Batch(batch); err != nil {
				return fmt.Errorf("failed to index batch: %w", err)
			}
			batch = idx.NewBatch()
			if progress != nil {
				progress(i+1, len(chunks))
			}
		}
	}

	if batch.Size() > 0 {
		if err := idx.Batch(batch); err != nil {
			return fmt.Errorf("failed to index final batch: %w", err)
		}
		if progress != nil {
			progress(len(chunks), len(chunks))
		}
	}
	return nil
}

// CreateIndex writes a new on-disk index at path holding chunks. path must
// not exist. On failure the partial index is removed.
func CreateIndex(path string, chunks []DocChunk, progress func(done, total int)) error {
	idx, err := bleve.New(path, NewIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	if err := IndexAll(idx, chunks, progress); err != nil {
		idx.Close()
		os.RemoveAll(path)
		return err
	}

	if err := idx.Close(); err != nil {
		os.RemoveAll(path)
		return fmt.Errorf("failed to close index: %w", err)
	}
	return nil
}
