package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/krakend/docindex-mcp/internal/searchindex"
)

// ValidateSearchIndexInput defines input for validate_search_index tool
type ValidateSearchIndexInput struct {
	Content    string `json:"content" jsonschema:"search_index.js payload, bare JSON object, or a path to a local file"`
	Strict     bool   `json:"strict,omitempty" jsonschema:"Only accept page and section categories (optional, defaults to false)"`
	AllowEmpty bool   `json:"allow_empty,omitempty" jsonschema:"Accept an index without records (optional, defaults to false)"`
}

// ValidateSearchIndexOutput defines output for validate_search_index tool
type ValidateSearchIndexOutput struct {
	Report          searchindex.Report   `json:"report"`
	Records         int                  `json:"records"`
	Stats           *searchindex.Summary `json:"stats,omitempty"`
	Fingerprint     string               `json:"fingerprint,omitempty"`
	RoundTripStable bool                 `json:"round_trip_stable"`
}

// looksLikePayload tells inline content from a file path.
func looksLikePayload(content string) bool {
	trimmed := strings.TrimSpace(strings.TrimPrefix(content, "\ufeff"))
	return strings.HasPrefix(trimmed, "{") || strings.Contains(trimmed, searchindex.BindingName)
}

// readValidationInput returns the bytes to validate.
func readValidationInput(content string) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.New("content is required")
	}
	if looksLikePayload(content) {
		return []byte(content), nil
	}
	data, err := os.ReadFile(content)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	return data, nil
}

// ValidateSearchIndex checks a search_index.js payload
func ValidateSearchIndex(ctx context.Context, req *mcp.CallToolRequest, input ValidateSearchIndexInput) (*mcp.CallToolResult, ValidateSearchIndexOutput, error) {
	src, err := readValidationInput(input.Content)
	if err != nil {
		return nil, ValidateSearchIndexOutput{}, err
	}

	report, idx := searchindex.Check(src, searchindex.Options{Strict: input.Strict, AllowEmpty: input.AllowEmpty})
	output := ValidateSearchIndexOutput{Report: *report}
	if idx == nil {
		return nil, output, nil
	}

	stats := searchindex.Summarize(idx)
	output.Records = idx.Len()
	output.Stats = &stats
	output.RoundTripStable = !report.HasCode(searchindex.CodeRoundTrip)
	if fp, err := searchindex.Fingerprint(idx); err == nil {
		output.Fingerprint = fp
	}
	return nil, output, nil
}

// RegisterValidationTools registers the search index validation tool
func RegisterValidationTools(server *mcp.Server) error {
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "validate_search_index",
			Description: "Validate a Documenter search_index.js: binding, JSON schema, record categories, duplicates, and round-trip stability",
		},
		ValidateSearchIndex,
	)
	return nil
}
