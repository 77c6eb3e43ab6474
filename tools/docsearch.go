package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/krakend/docindex-mcp/internal/indexing"
)

// ErrNoSources is returned by a refresh when no remote source is configured.
var ErrNoSources = errors.New("no documentation sources configured")

// searchFields are queried for free text, with their boosts.
var searchFields = []struct {
	name  string
	boost float64
}{
	{indexing.FieldTitle, 3},
	{indexing.FieldBreadcrumb, 2},
	{indexing.FieldKeywords, 1.5},
	{indexing.FieldPage, 1.2},
	{indexing.FieldContent, 1},
}

// SearchResult represents a search result with score
type SearchResult struct {
	Chunk indexing.DocChunk `json:"chunk"`
	Score float64           `json:"score"`
}

// SearchDocumentationInput defines input for search_documentation tool
type SearchDocumentationInput struct {
	Query      string `json:"query" jsonschema:"Search query for documentation"`
	MaxResults int    `json:"max_results,omitempty" jsonschema:"Maximum number of results (optional, defaults to 10)"`
	Category   string `json:"category,omitempty" jsonschema:"Only return records of this category, e.g. page, section or method (optional)"`
	Page       string `json:"page,omitempty" jsonschema:"Only return records of pages matching this name (optional)"`
	Source     string `json:"source,omitempty" jsonschema:"Only return records of this documentation source (optional)"`
}

// SearchDocumentationOutput defines output for search_documentation tool
type SearchDocumentationOutput struct {
	Results    []SearchResult `json:"results"`
	Query      string         `json:"query"`
	TotalHits  int            `json:"total_hits"`
	SourceURLs []string       `json:"source_urls"`
}

// RefreshDocumentationIndexInput defines input for refresh_documentation_index tool
type RefreshDocumentationIndexInput struct {
	Force bool `json:"force,omitempty" jsonschema:"Re-download and re-index even when the cache is fresh and unchanged (optional, defaults to false)"`
}

// RefreshDocumentationIndexOutput defines output for refresh_documentation_index tool
type RefreshDocumentationIndexOutput struct {
	Updated       bool      `json:"updated"`
	LastUpdate    time.Time `json:"last_update"`
	Fingerprint   string    `json:"fingerprint"`
	Sources       []string  `json:"sources"`
	ChunksIndexed int       `json:"chunks_indexed"`
	Message       string    `json:"message"`
}

// indexHolder manages concurrent access to the Bleve documentation index
type indexHolder struct {
	// current holds the active index pointer (atomic access for lock-free reads)
	current atomic.Pointer[Index]

	// catalog holds the validated sources the current index was built from
	catalog atomic.Pointer[catalog]

	// refreshMu serialises initialisation and refreshes. Searches never take it.
	refreshMu sync.Mutex

	// wg tracks in-flight search operations for graceful cleanup of old indexes
	wg sync.WaitGroup
}

var indexMgr = &indexHolder{}

func readIndexState() indexing.State {
	state, err := indexing.ReadState(dataPath(indexStateFile))
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Unreadable index state, ignoring: %v", err)
		}
		return indexing.State{}
	}
	return state
}

func writeIndexState(state indexing.State) error {
	return indexing.WriteState(dataPath(indexStateFile), state)
}

func removeIndex() {
	os.RemoveAll(dataPath(indexDir))
	os.Remove(dataPath(indexStateFile))
}

// InitializeDocSearch loads the source catalog and opens the search index.
// Priority: on-disk index built from the same sources > rebuild from cached
// downloads > rebuild from the embedded documentation.
func InitializeDocSearch() error {
	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()
	return initializeLocked()
}

func initializeLocked() error {
	// bleve.Open blocks on an index this process already holds open
	if indexMgr.current.Load() != nil {
		return nil
	}

	startTime := time.Now()
	logger.Infof("Initializing documentation search...")

	lockStart := time.Now()
	if err := acquireLock(); err != nil {
		return fmt.Errorf("failed to acquire index lock: %w", err)
	}
	logger.Debugf("Lock acquired in %v", time.Since(lockStart).Round(time.Millisecond))

	cat, err := loadCatalog()
	if err != nil {
		return fmt.Errorf("failed to load documentation sources: %w", err)
	}
	indexMgr.catalog.Store(cat)
	logger.Infof("Loaded %d records from %d %s source(s) (fingerprint %s)",
		cat.records(), len(cat.sources), cat.origin, cat.fingerprint)

	indexPath := dataPath(indexDir)
	if _, err := os.Stat(indexPath); err == nil {
		state := readIndexState()
		switch {
		case state.Version != indexing.IndexSchemaVersion:
			logger.Infof("Index schema version mismatch (have: v%d, want: v%d), rebuilding",
				state.Version, indexing.IndexSchemaVersion)
			removeIndex()
		case state.Fingerprint != cat.fingerprint:
			logger.Infof("Index was built from other sources (%s, now %s), rebuilding",
				state.Fingerprint, cat.fingerprint)
			removeIndex()
		default:
			openStart := time.Now()
			index, err := bleve.Open(indexPath)
			if err == nil {
				wrapped := NewBleveIndexWrapper(index)
				swapIndex(wrapped)
				count, _ := wrapped.DocCount()
				logger.Infof("Documentation search initialized (%d docs, local index v%d) in %v",
					count, indexing.IndexSchemaVersion, time.Since(startTime).Round(time.Millisecond))

				if len(settings.Sources) > 0 && needsRefresh() {
					logger.Infof("Downloaded documentation is older than %v. Consider using refresh_documentation_index to update.", settings.CacheTTL)
				}
				return nil
			}

			logger.Warnf("Local index corrupted (open failed in %v), removing: %v",
				time.Since(openStart).Round(time.Millisecond), err)
			removeIndex()
		}
	}

	chunks, err := buildIndex(cat)
	if err != nil {
		return err
	}

	logger.Infof("Documentation search initialized (%d chunks, %s sources) in %v",
		chunks, cat.origin, time.Since(startTime).Round(time.Millisecond))
	if cat.origin == originEmbedded {
		logger.Infof("Using embedded documentation (build-time). Use refresh_documentation_index to get the configured sources.")
	}
	return nil
}

// buildIndex chunks the catalog, indexes it, and records the index state.
func buildIndex(cat *catalog) (int, error) {
	parseStart := time.Now()
	chunks := cat.chunks(indexing.Options{KeepMeta: settings.KeepMeta})
	logger.Infof("Chunked %d records into %d chunks (avg: %d tokens, %d over limit) in %v",
		cat.records(), len(chunks), indexing.AverageTokens(chunks), indexing.CountOversized(chunks),
		time.Since(parseStart).Round(time.Millisecond))

	if err := indexChunks(chunks); err != nil {
		return 0, fmt.Errorf("indexing failed: %w", err)
	}

	state := indexing.State{
		Version:     indexing.IndexSchemaVersion,
		Fingerprint: cat.fingerprint,
		Sources:     cat.names(),
		Chunks:      len(chunks),
		BuiltAt:     time.Now().UTC(),
	}
	if err := writeIndexState(state); err != nil {
		logger.Warnf("Failed to write index state: %v", err)
	}
	return len(chunks), nil
}

// indexChunks builds a new index in a temp location, moves it into place,
// and swaps it in for searches.
func indexChunks(chunks []indexing.DocChunk) error {
	startTime := time.Now()
	indexPath := dataPath(indexDir)
	tempIndexPath := indexPath + ".tmp"

	// Clean up any leftover temp index from previous crash
	os.RemoveAll(tempIndexPath)

	logger.Infof("Creating new index with %d chunks in temp location...", len(chunks))
	err := indexing.CreateIndex(tempIndexPath, chunks, func(done, total int) {
		logger.Debugf("Indexed %d/%d chunks...", done, total)
	})
	if err != nil {
		return err
	}
	logger.Infof("Indexed %d chunks in %v", len(chunks), time.Since(startTime).Round(time.Millisecond))

	swapStart := time.Now()
	if err := os.RemoveAll(indexPath); err != nil && !os.IsNotExist(err) {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to remove old index: %w", err)
	}
	if err := os.Rename(tempIndexPath, indexPath); err != nil {
		os.RemoveAll(tempIndexPath)
		return fmt.Errorf("failed to rename temp index: %w", err)
	}
	logger.Debugf("Index moved into place in %v", time.Since(swapStart).Round(time.Millisecond))

	finalIndex, err := bleve.Open(indexPath)
	if err != nil {
		return fmt.Errorf("failed to open new index: %w", err)
	}

	swapIndex(NewBleveIndexWrapper(finalIndex))
	logger.Infof("Index swap completed in %v, searches now using new index",
		time.Since(startTime).Round(time.Millisecond))
	return nil
}

// swapIndex makes index live and closes the previous one once in-flight
// searches have drained.
func swapIndex(index Index) {
	oldPtr := indexMgr.current.Swap(&index)
	if oldPtr == nil {
		return
	}

	holder := indexMgr
	go func(old Index) {
		waitStart := time.Now()
		holder.wg.Wait()
		if err := old.Close(); err != nil {
			logger.Warnf("Error closing old index: %v", err)
			return
		}
		logger.Debugf("Old index closed after waiting %v for searches", time.Since(waitStart).Round(time.Millisecond))
	}(*oldPtr)
}

// refreshResult reports what a refresh did.
type refreshResult struct {
	Updated     bool
	Fresh       bool
	Fingerprint string
	Sources     []string
	Chunks      int
}

// refreshDocumentationIndex downloads every configured source and re-indexes
// when the sources changed. Any invalid source aborts the refresh and the
// live index stays in place.
func refreshDocumentationIndex(ctx context.Context, force bool) (refreshResult, error) {
	var res refreshResult
	startTime := time.Now()

	if len(settings.Sources) == 0 {
		return res, ErrNoSources
	}

	if !force && !needsRefresh() {
		logger.Debugf("Documentation cache is fresh, skipping refresh")
		res.Fresh = true
		return fillFromLive(res), nil
	}

	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()

	// Another goroutine may have refreshed while we waited
	if !force && !needsRefresh() {
		logger.Debugf("Documentation was refreshed by another goroutine, skipping")
		res.Fresh = true
		return fillFromLive(res), nil
	}

	logger.Infof("Starting documentation refresh (force=%v, %d sources)...", force, len(settings.Sources))

	// The lock is held until CloseDocSearch
	if err := acquireLock(); err != nil {
		return res, fmt.Errorf("failed to acquire lock for refresh: %w", err)
	}

	downloadStart := time.Now()
	fetched, err := downloadSources(ctx, settings.Sources)
	if err != nil {
		return res, fmt.Errorf("download failed: %w", err)
	}
	logger.Infof("Download completed in %v", time.Since(downloadStart).Round(time.Millisecond))

	cat := newCatalog(originRemote, fetched)
	if err := saveSources(cat); err != nil {
		return res, err
	}

	res.Fingerprint = cat.fingerprint
	res.Sources = cat.names()

	state := readIndexState()
	if !force && state.Fingerprint == cat.fingerprint && state.Version == indexing.IndexSchemaVersion && indexMgr.current.Load() != nil {
		indexMgr.catalog.Store(cat)
		res.Chunks = state.Chunks
		logger.Infof("Sources unchanged (fingerprint %s), index kept", cat.fingerprint)
		return res, nil
	}

	chunks, err := buildIndex(cat)
	if err != nil {
		return res, err
	}
	indexMgr.catalog.Store(cat)

	res.Updated = true
	res.Chunks = chunks
	logger.Infof("Documentation refresh completed in %v", time.Since(startTime).Round(time.Millisecond))
	return res, nil
}

func fillFromLive(res refreshResult) refreshResult {
	if cat := indexMgr.catalog.Load(); cat != nil {
		res.Fingerprint = cat.fingerprint
		res.Sources = cat.names()
	}
	res.Chunks = readIndexState().Chunks
	return res
}

// buildSearchQuery matches the text against every searchable field and
// narrows the hits by the optional filters.
func buildSearchQuery(input SearchDocumentationInput) (query.Query, error) {
	text := strings.TrimSpace(input.Query)
	if text == "" {
		return nil, errors.New("query is required")
	}

	disjunction := bleve.NewDisjunctionQuery()
	for _, field := range searchFields {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(field.name)
		mq.SetBoost(field.boost)
		disjunction.AddQuery(mq)
	}

	filters := []query.Query{disjunction}
	if input.Category != "" {
		tq := bleve.NewTermQuery(input.Category)
		tq.SetField(indexing.FieldCategory)
		filters = append(filters, tq)
	}
	if input.Source != "" {
		tq := bleve.NewTermQuery(input.Source)
		tq.SetField(indexing.FieldSource)
		filters = append(filters, tq)
	}
	if input.Page != "" {
		mq := bleve.NewMatchQuery(input.Page)
		mq.SetField(indexing.FieldPage)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		filters = append(filters, mq)
	}

	if len(filters) == 1 {
		return disjunction, nil
	}
	return bleve.NewConjunctionQuery(filters...), nil
}

func resultLimit(requested int) int {
	if requested <= 0 {
		return settings.DefaultResults
	}
	if requested > settings.MaxResults {
		return settings.MaxResults
	}
	return requested
}

// chunkFromHit rebuilds a DocChunk from the stored fields of a hit.
func chunkFromHit(id string, fields map[string]interface{}) indexing.DocChunk {
	str := func(name string) string {
		s, _ := fields[name].(string)
		return s
	}
	num := func(name string) int {
		f, _ := fields[name].(float64)
		return int(f)
	}

	chunk := indexing.DocChunk{
		ID:         id,
		Source:     str(indexing.FieldSource),
		Location:   str(indexing.FieldLocation),
		Page:       str(indexing.FieldPage),
		Title:      str(indexing.FieldTitle),
		Category:   str(indexing.FieldCategory),
		Content:    str(indexing.FieldContent),
		URL:        str("url"),
		Breadcrumb: str(indexing.FieldBreadcrumb),
		RecordHash: str("record_hash"),
		TokenCount: num("token_count"),
		Part:       num("part"),
		Parts:      num("parts"),
	}

	// A single keyword is stored as a plain string
	switch kw := fields[indexing.FieldKeywords].(type) {
	case string:
		chunk.Keywords = []string{kw}
	case []interface{}:
		chunk.Keywords = make([]string, 0, len(kw))
		for _, k := range kw {
			if s, ok := k.(string); ok {
				chunk.Keywords = append(chunk.Keywords, s)
			}
		}
	}
	return chunk
}

// SearchDocumentation runs a full-text search over the indexed documentation
func SearchDocumentation(ctx context.Context, req *mcp.CallToolRequest, input SearchDocumentationInput) (*mcp.CallToolResult, SearchDocumentationOutput, error) {
	q, err := buildSearchQuery(input)
	if err != nil {
		return nil, SearchDocumentationOutput{}, err
	}

	// Track in-flight searches for graceful cleanup (MUST be before Load)
	indexMgr.wg.Add(1)
	defer indexMgr.wg.Done()

	indexPtr := indexMgr.current.Load()
	if indexPtr == nil {
		logger.Infof("Doc index not initialized, initializing now...")
		if err := InitializeDocSearch(); err != nil {
			return nil, SearchDocumentationOutput{}, fmt.Errorf("failed to initialize documentation index: %w", err)
		}
		indexPtr = indexMgr.current.Load()
		if indexPtr == nil {
			return nil, SearchDocumentationOutput{}, fmt.Errorf("index still nil after initialization")
		}
	}
	index := *indexPtr

	search := bleve.NewSearchRequest(q)
	search.Size = resultLimit(input.MaxResults)
	search.Fields = []string{"*"}

	searchResults, err := index.Search(search)
	if err != nil {
		return nil, SearchDocumentationOutput{}, fmt.Errorf("search failed: %w", err)
	}

	cat := indexMgr.catalog.Load()
	results := make([]SearchResult, 0, len(searchResults.Hits))
	seenSource := make(map[string]bool)
	var sourceURLs []string

	for _, hit := range searchResults.Hits {
		chunk := chunkFromHit(hit.ID, hit.Fields)
		results = append(results, SearchResult{Chunk: chunk, Score: hit.Score})

		if cat != nil && !seenSource[chunk.Source] {
			seenSource[chunk.Source] = true
			if u := cat.baseURL(chunk.Source); u != "" {
				sourceURLs = append(sourceURLs, u)
			}
		}
	}
	if sourceURLs == nil {
		sourceURLs = []string{}
	}

	output := SearchDocumentationOutput{
		Results:    results,
		Query:      input.Query,
		TotalHits:  int(searchResults.Total),
		SourceURLs: sourceURLs,
	}
	return nil, output, nil
}

// RefreshDocumentationIndex downloads the configured sources and re-indexes them
func RefreshDocumentationIndex(ctx context.Context, req *mcp.CallToolRequest, input RefreshDocumentationIndexInput) (*mcp.CallToolResult, RefreshDocumentationIndexOutput, error) {
	output := RefreshDocumentationIndexOutput{}

	res, err := refreshDocumentationIndex(ctx, input.Force)
	if errors.Is(err, ErrNoSources) {
		if cat := indexMgr.catalog.Load(); cat != nil {
			output.Fingerprint = cat.fingerprint
			output.Sources = cat.names()
		}
		output.Message = "No documentation sources configured; serving the embedded documentation"
		return nil, output, nil
	}
	if err != nil {
		return nil, output, fmt.Errorf("refresh failed: %w", err)
	}

	output.Updated = res.Updated
	output.Fingerprint = res.Fingerprint
	output.Sources = res.Sources
	output.ChunksIndexed = res.Chunks
	if meta, err := readCacheMeta(); err == nil {
		output.LastUpdate = meta.LastUpdate
	}

	switch {
	case res.Fresh:
		output.Message = fmt.Sprintf("Cache is fresh (last updated: %s)", output.LastUpdate.Format(time.RFC3339))
	case !res.Updated:
		output.Message = fmt.Sprintf("Sources unchanged (fingerprint %s), index kept with %d chunks", res.Fingerprint, res.Chunks)
	default:
		output.Message = fmt.Sprintf("Documentation refreshed successfully, %d chunks indexed", res.Chunks)
	}
	return nil, output, nil
}

// RegisterDocSearchTools registers documentation search tools
func RegisterDocSearchTools(server *mcp.Server) error {
	if err := InitializeDocSearch(); err != nil {
		logger.Warnf("Documentation search initialization failed: %v", err)
		logger.Warnf("Documentation search will attempt to initialize on first use")
	}

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "search_documentation",
			Description: "Search the indexed Documenter documentation using full-text search. Filters narrow results by category, page, or source.",
		},
		SearchDocumentation,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "refresh_documentation_index",
			Description: "Re-download every configured search_index.js, validate it, and re-index when it changed",
		},
		RefreshDocumentationIndex,
	)

	return nil
}

// CloseDocSearch closes the documentation search index and releases the lock
func CloseDocSearch() error {
	var closeErr error

	// Atomically swap index to nil (prevents new searches)
	if indexPtr := indexMgr.current.Swap(nil); indexPtr != nil {
		logger.Debugf("Waiting for in-flight searches to complete before closing...")
		indexMgr.wg.Wait()

		index := *indexPtr
		if closeErr = index.Close(); closeErr != nil {
			logger.Errorf("Error closing doc index: %v", closeErr)
		} else {
			logger.Infof("Doc index closed successfully")
		}
	}

	// Always attempt to release inter-process lock, even if close failed
	if err := releaseLock(); err != nil {
		logger.Errorf("Error releasing lock: %v", err)
		if closeErr == nil {
			closeErr = err
		}
	}

	return closeErr
}
