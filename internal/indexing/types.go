package indexing

// DocChunk is a search index record, or one part of a long record, as it
// is stored in the full-text index.
type DocChunk struct {
	ID string `json:"id"`

	// Source names the documentation site the record came from.
	Source string `json:"source"`

	// Location, Page, Title and Category are copied from the record.
	Location string `json:"location"`
	Page     string `json:"page"`
	Title    string `json:"title"`
	Category string `json:"category"`

	Content string `json:"content"`

	// URL is the absolute link, set when the site base URL is known.
	URL        string   `json:"url,omitempty"`
	Breadcrumb string   `json:"breadcrumb,omitempty"` // "Page > Title (part 2/3)"
	Keywords   []string `json:"keywords,omitempty"`
	TokenCount int      `json:"token_count,omitempty"`

	// Part is 1-based and set together with Parts when a record is split.
	Part  int `json:"part,omitempty"`
	Parts int `json:"parts,omitempty"`

	RecordHash string `json:"record_hash"`
}
