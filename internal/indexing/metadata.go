package indexing

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// metaLineRegex matches the key = value residue that @meta blocks leave in
// record text, e.g. EditURL = "https://..." or CurrentModule = TrixiBase.
var metaLineRegex = regexp.MustCompile(`^[A-Z][A-Za-z]*\s*=\s*\S`)

var imagePlaceholderRegex = regexp.MustCompile(`\(Image: [^)]*\)`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "in": true, "on": true, "at": true, "to": true,
	"for": true, "of": true, "as": true, "by": true, "is": true,
	"it": true, "be": true, "with": true, "from": true, "that": true,
	"this": true, "are": true, "you": true, "see": true, "its": true,
}

// IsMetaText reports whether text only holds @meta residue.
func IsMetaText(text string) bool {
	lines := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !metaLineRegex.MatchString(line) {
			return false
		}
		lines++
	}
	return lines > 0
}

// StripImagePlaceholders removes the "(Image: alt)" markers the generator
// leaves where badges and figures were.
func StripImagePlaceholders(text string) string {
	return strings.TrimSpace(imagePlaceholderRegex.ReplaceAllString(text, ""))
}

// ResolveURL joins a record location onto the site base URL.
// Example: ("https://x.org/stable/", "reference/#f") -> "https://x.org/stable/reference/#f"
func ResolveURL(baseURL, location string) string {
	if baseURL == "" {
		return ""
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return baseURL + location
	}
	ref, err := url.Parse(location)
	if err != nil {
		return baseURL + location
	}
	return base.ResolveReference(ref).String()
}

// EstimateTokens estimates the token count for a text string
func EstimateTokens(text string) int {
	return len(text) / CharsPerToken
}

// ExtractKeywords extracts key terms from title and content, in order of
// first appearance.
func ExtractKeywords(title, content string) []string {
	words := strings.Fields(strings.ToLower(title))

	// Add words from first 200 chars of content
	contentPreview := content
	if len(content) > 200 {
		contentPreview = content[:runeStart(content, 200)]
	}
	words = append(words, strings.Fields(strings.ToLower(contentPreview))...)

	seen := make(map[string]bool)
	keywords := make([]string, 0, 10)
	for _, word := range words {
		word = strings.TrimFunc(word, func(r rune) bool { return !isKeywordRune(r) })
		if word == "" || stopWords[word] || seen[word] || tooShort(word) {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)

		if len(keywords) == 10 {
			break
		}
	}

	return keywords
}

// isKeywordRune accepts letters and digits in any script, '_', and
// non-ASCII math symbols such as ∇ and ∂.
func isKeywordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' ||
		(r >= utf8.RuneSelf && unicode.Is(unicode.Sm, r))
}

// tooShort drops ASCII words of two letters or fewer. Short non-ASCII
// words are kept: ρ or ∇ usually name a variable or an operator.
func tooShort(word string) bool {
	for i := 0; i < len(word); i++ {
		if word[i] >= utf8.RuneSelf {
			return false
		}
	}
	return len(word) <= 2
}

// BuildBreadcrumb renders "Page > Title", dropping a title equal to the page
// name, and appends the part number of split records.
func BuildBreadcrumb(chunk *DocChunk) string {
	var parts []string
	if chunk.Page != "" {
		parts = append(parts, chunk.Page)
	}
	if chunk.Title != "" && chunk.Title != chunk.Page {
		parts = append(parts, chunk.Title)
	}
	breadcrumb := strings.Join(parts, " > ")
	if chunk.Parts > 1 {
		breadcrumb = fmt.Sprintf("%s (part %d/%d)", breadcrumb, chunk.Part, chunk.Parts)
	}
	return breadcrumb
}

// EnrichMetadata adds breadcrumb, keywords, URL, and token count to a chunk
func EnrichMetadata(chunk *DocChunk, baseURL string) {
	chunk.Breadcrumb = BuildBreadcrumb(chunk)
	chunk.URL = ResolveURL(baseURL, chunk.Location)
	chunk.Keywords = ExtractKeywords(chunk.Title, chunk.Content)
	chunk.TokenCount = EstimateTokens(chunk.Content)
}
