package indexing

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/krakend/docindex-mcp/internal/searchindex"
)

// Options tune how records become chunks.
type Options struct {
	// KeepMeta indexes records whose text is only @meta residue.
	KeepMeta bool
}

// ForceSplitText splits text by character count at word boundaries
func ForceSplitText(text string, maxChars, overlapChars int) []string {
	var parts []string

	for len(text) > 0 {
		chunkSize := maxChars
		if len(text) < chunkSize {
			chunkSize = len(text)
		}

		// Try to break at word boundary
		if chunkSize < len(text) {
			// Look back for space or newline
			for i := chunkSize; i > chunkSize-100 && i > 0; i-- {
				if text[i] == ' ' || text[i] == '\n' {
					chunkSize = i
					break
				}
			}
			if at := runeStart(text, chunkSize); at > 0 {
				chunkSize = at
			}
		}

		parts = append(parts, text[:chunkSize])

		// Move forward with overlap
		next := chunkSize
		if chunkSize+overlapChars < len(text) && chunkSize > overlapChars {
			next = runeStart(text, chunkSize-overlapChars)
		}
		if next <= 0 {
			next = chunkSize
		}
		text = text[next:]
	}

	return parts
}

// runeStart moves i back to the first byte of the rune it falls in.
func runeStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// splitParagraphs splits on blank lines, falling back to sentences when the
// text has none.
func splitParagraphs(text string) []string {
	paragraphs := strings.Split(text, "\n\n")
	if len(paragraphs) > 1 {
		return paragraphs
	}

	paragraphs = strings.Split(text, ". ")
	for i := range paragraphs {
		if i < len(paragraphs)-1 {
			paragraphs[i] += "."
		}
	}
	return paragraphs
}

// overlapTail returns the last n bytes of s, starting at a word boundary.
func overlapTail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	tail := s[runeStart(s, len(s)-n):]
	if i := strings.IndexAny(tail, " \n"); i >= 0 && i < len(tail)-1 {
		tail = tail[i+1:]
	}
	return tail
}

// SplitContent cuts text into parts of about TargetChunkTokens, never
// above MaxChunkTokens plus the overlap carried from the previous part.
// Text within MaxChunkTokens is returned whole.
func SplitContent(text string) []string {
	if EstimateTokens(text) <= MaxChunkTokens {
		return []string{text}
	}

	maxChars := MaxChunkTokens * CharsPerToken
	targetChars := TargetChunkTokens * CharsPerToken
	overlapChars := OverlapTokens * CharsPerToken

	var parts []string
	var current strings.Builder
	tail := ""

	flush := func() {
		if current.Len() == 0 {
			return
		}
		content := current.String()
		if tail != "" {
			content = tail + "\n\n" + content
		}
		parts = append(parts, content)
		tail = overlapTail(current.String(), overlapChars)
		current.Reset()
	}

	for _, para := range splitParagraphs(text) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		// A single oversized paragraph is force-split on its own
		if len(para) > maxChars {
			flush()
			pieces := ForceSplitText(para, maxChars, overlapChars)
			parts = append(parts, pieces...)
			tail = ""
			continue
		}

		if current.Len() > 0 && current.Len()+2+len(para) > targetChars {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	if len(parts) == 0 {
		return []string{text}
	}
	return parts
}

// ChunkRecord turns the record at position i of a source into one or more
// enriched chunks.
func ChunkRecord(source string, i int, rec searchindex.Record, baseURL string) []DocChunk {
	base := DocChunk{
		ID:         fmt.Sprintf("%s_%d", source, i),
		Source:     source,
		Location:   rec.Location,
		Page:       rec.Page,
		Title:      rec.Title,
		Category:   string(rec.Category),
		RecordHash: searchindex.RecordHash(rec),
	}

	parts := SplitContent(StripImagePlaceholders(rec.Text))
	if len(parts) == 1 {
		base.Content = parts[0]
		EnrichMetadata(&base, baseURL)
		return []DocChunk{base}
	}

	chunks := make([]DocChunk, 0, len(parts))
	for j, part := range parts {
		chunk := base
		chunk.ID = fmt.Sprintf("%s_sub%d", base.ID, j)
		chunk.Content = part
		chunk.Part = j + 1
		chunk.Parts = len(parts)
		EnrichMetadata(&chunk, baseURL)
		chunks = append(chunks, chunk)
	}
	return chunks
}

// ChunkIndex chunks every record of idx in crawl order. Records holding only
// @meta residue are skipped unless opts.KeepMeta is set.
func ChunkIndex(source string, idx *searchindex.Index, baseURL string, opts Options) []DocChunk {
	if idx == nil {
		return nil
	}

	chunks := make([]DocChunk, 0, len(idx.Docs))
	for i, rec := range idx.Docs {
		if !opts.KeepMeta && IsMetaText(rec.Text) {
			continue
		}
		chunks = append(chunks, ChunkRecord(source, i, rec, baseURL)...)
	}
	return chunks
}

// AverageTokens calculates the average token count across chunks
func AverageTokens(chunks []DocChunk) int {
	if len(chunks) == 0 {
		return 0
	}
	total := 0
	for _, chunk := range chunks {
		total += chunk.TokenCount
	}
	return total / len(chunks)
}

// CountOversized counts chunks that exceed the maximum token limit
func CountOversized(chunks []DocChunk) int {
	count := 0
	for _, chunk := range chunks {
		if chunk.TokenCount > MaxChunkTokens {
			count++
		}
	}
	return count
}
