package searchindex

import "sort"

// Summary counts the records of an index.
type Summary struct {
	Records    int              `json:"records"`
	Pages      int              `json:"pages"`
	Sections   int              `json:"sections"`
	Docstrings int              `json:"docstrings"`
	ByCategory map[Category]int `json:"by_category"`
	EmptyText  int              `json:"empty_text"`
	TextBytes  int              `json:"text_bytes"`
}

// Summarize returns record counts for idx. Pages counts distinct page
// names, not records with category page.
func Summarize(idx *Index) Summary {
	s := Summary{ByCategory: make(map[Category]int)}
	if idx == nil {
		return s
	}

	pages := make(map[string]struct{})
	for _, rec := range idx.Docs {
		s.Records++
		s.ByCategory[rec.Category]++
		pages[rec.Page] = struct{}{}
		if rec.Category == CategorySection {
			s.Sections++
		}
		if rec.Category.IsDocstring() {
			s.Docstrings++
		}
		if rec.Text == "" {
			s.EmptyText++
		}
		s.TextBytes += len(rec.Text)
	}
	s.Pages = len(pages)
	return s
}

// Categories returns the categories present in s, sorted.
func (s Summary) Categories() []Category {
	cats := make([]Category, 0, len(s.ByCategory))
	for c := range s.ByCategory {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

// Page groups the records that share a page name.
type Page struct {
	Name      string   `json:"name"`
	Path      string   `json:"path"`
	Records   int      `json:"records"`
	Locations []string `json:"locations"`
}

// Pages groups records by page name in the order pages first appear.
// Locations are listed once each, in crawl order.
func Pages(idx *Index) []Page {
	if idx == nil {
		return nil
	}

	var pages []Page
	pos := make(map[string]int)
	seenLoc := make(map[string]map[string]bool)

	for _, rec := range idx.Docs {
		i, ok := pos[rec.Page]
		if !ok {
			i = len(pages)
			pos[rec.Page] = i
			pages = append(pages, Page{Name: rec.Page, Path: rec.Path()})
			seenLoc[rec.Page] = make(map[string]bool)
		}
		pages[i].Records++
		if !seenLoc[rec.Page][rec.Location] {
			seenLoc[rec.Page][rec.Location] = true
			pages[i].Locations = append(pages[i].Locations, rec.Location)
		}
	}
	return pages
}

// Find returns the records of a page, or of a single location when
// location is set. Matching is exact; order is crawl order. Use
// FindLocation to match the empty home-page location.
func Find(idx *Index, page, location string) []Record {
	if location != "" {
		return FindLocation(idx, location)
	}
	return filter(idx, func(rec Record) bool { return rec.Page == page })
}

// FindLocation returns the records at location, in crawl order. The empty
// location is the site root.
func FindLocation(idx *Index, location string) []Record {
	return filter(idx, func(rec Record) bool { return rec.Location == location })
}

func filter(idx *Index, keep func(Record) bool) []Record {
	if idx == nil {
		return nil
	}
	var out []Record
	for _, rec := range idx.Docs {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}
