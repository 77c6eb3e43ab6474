package tools

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/blevesearch/bleve/v2"
)

// mockIndex is an in-memory Index that records the requests it serves
type mockIndex struct {
	id          int
	docCount    uint64
	searchError error
	closeError  error
	closed      atomic.Bool

	mu       sync.Mutex
	requests []*bleve.SearchRequest
}

// newMockIndex creates a new mock index with the given ID
func newMockIndex(id int) *mockIndex {
	return &mockIndex{
		id:       id,
		docCount: 100,
	}
}

func (m *mockIndex) Search(req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("index closed")
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.searchError != nil {
		return nil, m.searchError
	}
	// No hits, total only
	return &bleve.SearchResult{
		Request: req,
		Total:   m.docCount,
	}, nil
}

func (m *mockIndex) DocCount() (uint64, error) {
	if m.closed.Load() {
		return 0, fmt.Errorf("index closed")
	}
	return m.docCount, nil
}

func (m *mockIndex) Close() error {
	if m.closed.Load() {
		return fmt.Errorf("already closed")
	}
	m.closed.Store(true)
	return m.closeError
}

// IsClosed returns true if the index has been closed
func (m *mockIndex) IsClosed() bool {
	return m.closed.Load()
}

// lastRequest returns the most recent search request, or nil
func (m *mockIndex) lastRequest() *bleve.SearchRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return nil
	}
	return m.requests[len(m.requests)-1]
}
