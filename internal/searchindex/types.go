// Package searchindex reads, checks and writes Documenter search index
// payloads, the search_index.js file a documentation build ships for its
// client-side search box.
//
// A payload binds one global:
//
//	var documenterSearchIndex = {"docs":
//	[{"location":"...","page":"...","title":"...","text":"...","category":"page"}, ...]
//	}
//
// The record order is crawl order. Nothing in this package reorders or
// mutates records after they are decoded.
package searchindex

import (
	"slices"
	"strings"
)

// BindingName is the JavaScript global the payload is assigned to.
const BindingName = "documenterSearchIndex"

// Category tags the granularity of a record.
type Category string

const (
	CategoryPage    Category = "page"
	CategorySection Category = "section"
)

// docstringCategories are the docstring kinds Documenter writes into the
// category field for @docs blocks, next to page and section.
var docstringCategories = []Category{
	"abstract type",
	"constant",
	"function",
	"keyword",
	"macro",
	"method",
	"module",
	"primitive type",
	"struct",
	"type",
}

// IsStructural reports whether c is one of the two structural categories.
func (c Category) IsStructural() bool {
	return c == CategoryPage || c == CategorySection
}

// IsDocstring reports whether c is a docstring kind.
func (c Category) IsDocstring() bool {
	return slices.Contains(docstringCategories, c)
}

// Record is one entry of the index: a page, or a section within a page.
type Record struct {
	Location string   `json:"location"`
	Page     string   `json:"page"`
	Title    string   `json:"title"`
	Text     string   `json:"text"`
	Category Category `json:"category"`
}

// Anchor returns the fragment of the location, without the '#'.
func (r Record) Anchor() string {
	_, anchor, _ := strings.Cut(r.Location, "#")
	return anchor
}

// Path returns the location without its fragment.
func (r Record) Path() string {
	path, _, _ := strings.Cut(r.Location, "#")
	return path
}

// Index is the value bound to documenterSearchIndex.
type Index struct {
	Docs []Record `json:"docs"`
}

// Len returns the number of records.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.Docs)
}

// Equal reports whether both indexes hold the same records in the same order.
func (idx *Index) Equal(other *Index) bool {
	if idx == nil || other == nil {
		return idx.Len() == other.Len()
	}
	return slices.Equal(idx.Docs, other.Docs)
}
