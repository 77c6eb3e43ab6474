package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/krakend/docindex-mcp/internal/indexing"
	"github.com/krakend/docindex-mcp/internal/searchindex"
)

// ListPagesInput defines input for list_pages tool
type ListPagesInput struct {
	Source string `json:"source,omitempty" jsonschema:"Documentation source to list (optional, defaults to all sources)"`
}

// PageInfo is one page of a source.
type PageInfo struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	URL       string   `json:"url,omitempty"`
	Records   int      `json:"records"`
	Locations []string `json:"locations"`
}

// SourcePages lists the pages of one source in crawl order.
type SourcePages struct {
	Source      string              `json:"source"`
	BaseURL     string              `json:"base_url,omitempty"`
	Fingerprint string              `json:"fingerprint"`
	Summary     searchindex.Summary `json:"summary"`
	Pages       []PageInfo          `json:"pages"`
}

// ListPagesOutput defines output for list_pages tool
type ListPagesOutput struct {
	Sources []SourcePages `json:"sources"`
	Origin  string        `json:"origin"`
}

// GetPageInput defines input for get_page tool
type GetPageInput struct {
	Page     string `json:"page,omitempty" jsonschema:"Page name as listed by list_pages, e.g. API reference"`
	Location *string `json:"location,omitempty" jsonschema:"Exact record location, e.g. reference/#TrixiBase.trixi_include; an empty string is the home page; takes precedence over page"`
	Source   string `json:"source,omitempty" jsonschema:"Documentation source (optional when only one source is loaded)"`
}

// PageRecord is one record of a page.
type PageRecord struct {
	Location string `json:"location"`
	Title    string `json:"title"`
	Category string `json:"category"`
	Text     string `json:"text"`
	URL      string `json:"url,omitempty"`
}

// GetPageOutput defines output for get_page tool
type GetPageOutput struct {
	Source  string       `json:"source"`
	Page    string       `json:"page"`
	Records []PageRecord `json:"records"`
}

// currentCatalog returns the live catalog, loading it on first use.
func currentCatalog() (*catalog, error) {
	if cat := indexMgr.catalog.Load(); cat != nil {
		return cat, nil
	}

	indexMgr.refreshMu.Lock()
	defer indexMgr.refreshMu.Unlock()
	if cat := indexMgr.catalog.Load(); cat != nil {
		return cat, nil
	}

	cat, err := loadCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load documentation sources: %w", err)
	}
	indexMgr.catalog.Store(cat)
	return cat, nil
}

// ListPages lists the pages of the loaded documentation sources
func ListPages(ctx context.Context, req *mcp.CallToolRequest, input ListPagesInput) (*mcp.CallToolResult, ListPagesOutput, error) {
	cat, err := currentCatalog()
	if err != nil {
		return nil, ListPagesOutput{}, err
	}
	sources, err := cat.lookup(input.Source)
	if err != nil {
		return nil, ListPagesOutput{}, err
	}

	output := ListPagesOutput{
		Sources: make([]SourcePages, 0, len(sources)),
		Origin:  cat.origin,
	}
	for _, src := range sources {
		baseURL := src.BaseURL()
		pages := searchindex.Pages(src.Index)

		sp := SourcePages{
			Source:      src.Source.Name,
			BaseURL:     baseURL,
			Fingerprint: src.Fingerprint,
			Summary:     searchindex.Summarize(src.Index),
			Pages:       make([]PageInfo, 0, len(pages)),
		}
		for _, p := range pages {
			sp.Pages = append(sp.Pages, PageInfo{
				Name:      p.Name,
				Path:      p.Path,
				URL:       indexing.ResolveURL(baseURL, p.Path),
				Records:   p.Records,
				Locations: p.Locations,
			})
		}
		output.Sources = append(output.Sources, sp)
	}
	return nil, output, nil
}

// GetPage returns the records of one page, or of one location
func GetPage(ctx context.Context, req *mcp.CallToolRequest, input GetPageInput) (*mcp.CallToolResult, GetPageOutput, error) {
	if input.Page == "" && input.Location == nil {
		return nil, GetPageOutput{}, errors.New("page or location is required")
	}

	cat, err := currentCatalog()
	if err != nil {
		return nil, GetPageOutput{}, err
	}
	sources, err := cat.lookup(input.Source)
	if err != nil {
		return nil, GetPageOutput{}, err
	}

	// First source holding the page wins
	for _, src := range sources {
		var records []searchindex.Record
		if input.Location != nil {
			records = searchindex.FindLocation(src.Index, *input.Location)
		} else {
			records = searchindex.Find(src.Index, input.Page, "")
		}
		if len(records) == 0 {
			continue
		}

		baseURL := src.BaseURL()
		output := GetPageOutput{
			Source:  src.Source.Name,
			Page:    records[0].Page,
			Records: make([]PageRecord, 0, len(records)),
		}
		for _, rec := range records {
			output.Records = append(output.Records, PageRecord{
				Location: rec.Location,
				Title:    rec.Title,
				Category: string(rec.Category),
				Text:     rec.Text,
				URL:      indexing.ResolveURL(baseURL, rec.Location),
			})
		}
		return nil, output, nil
	}

	if input.Location != nil {
		return nil, GetPageOutput{}, fmt.Errorf("location %q not found", *input.Location)
	}
	return nil, GetPageOutput{}, fmt.Errorf("page %q not found", input.Page)
}

// RegisterPageTools registers the page browsing tools
func RegisterPageTools(server *mcp.Server) error {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "list_pages",
			Description: "List the pages of the loaded documentation with record counts, locations, and links",
		},
		ListPages,
	)

	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_page",
			Description: "Return every record of a documentation page, or a single record by location, in crawl order",
		},
		GetPage,
	)

	return nil
}
