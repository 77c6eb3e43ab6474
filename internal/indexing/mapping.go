package indexing

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Searchable text fields of a DocChunk, in the order they are queried.
const (
	FieldTitle      = "title"
	FieldPage       = "page"
	FieldContent    = "content"
	FieldBreadcrumb = "breadcrumb"
	FieldKeywords   = "keywords"
)

// Exact-match fields used for filtering.
const (
	FieldSource   = "source"
	FieldLocation = "location"
	FieldCategory = "category"
)

// NewIndexMapping returns the bleve mapping for DocChunk documents. Prose
// fields use the English analyzer; source, location and category are
// indexed verbatim so filters can match them exactly.
func NewIndexMapping() mapping.IndexMapping {
	chunkMapping := bleve.NewDocumentMapping()

	for _, field := range []string{FieldTitle, FieldPage, FieldContent, FieldBreadcrumb, FieldKeywords} {
		text := bleve.NewTextFieldMapping()
		text.Analyzer = en.AnalyzerName
		chunkMapping.AddFieldMappingsAt(field, text)
	}

	for _, field := range []string{FieldSource, FieldLocation, FieldCategory} {
		chunkMapping.AddFieldMappingsAt(field, bleve.NewKeywordFieldMapping())
	}

	// Stored for display, never searched
	for _, field := range []string{"id", "url", "record_hash"} {
		stored := bleve.NewKeywordFieldMapping()
		stored.Index = false
		stored.IncludeInAll = false
		chunkMapping.AddFieldMappingsAt(field, stored)
	}

	for _, field := range []string{"token_count", "part", "parts"} {
		numeric := bleve.NewNumericFieldMapping()
		numeric.IncludeInAll = false
		chunkMapping.AddFieldMappingsAt(field, numeric)
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = chunkMapping
	indexMapping.DefaultAnalyzer = en.AnalyzerName
	return indexMapping
}
