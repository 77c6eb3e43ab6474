package tools

import "github.com/blevesearch/bleve/v2"

// Index is the part of bleve.Index the search tools use. Tests swap in
// mockIndex.
type Index interface {
	Search(req *bleve.SearchRequest) (*bleve.SearchResult, error)
	DocCount() (uint64, error)
	Close() error
}

// bleveIndexWrapper adapts a bleve.Index, on disk or in memory, to Index.
type bleveIndexWrapper struct {
	index bleve.Index
}

// NewBleveIndexWrapper wraps a bleve.Index
func NewBleveIndexWrapper(index bleve.Index) Index {
	return &bleveIndexWrapper{index: index}
}

func (w *bleveIndexWrapper) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	return w.index.Search(req)
}

func (w *bleveIndexWrapper) DocCount() (uint64, error) {
	return w.index.DocCount()
}

func (w *bleveIndexWrapper) Close() error {
	return w.index.Close()
}
