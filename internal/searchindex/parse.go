package searchindex

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
)

var (
	// ErrNoBinding is returned when the source is neither a
	// documenterSearchIndex assignment nor a bare JSON object.
	ErrNoBinding = errors.New("searchindex: no " + BindingName + " binding found")

	// ErrTrailingData is returned when something other than whitespace or a
	// single ';' follows the bound object.
	ErrTrailingData = errors.New("searchindex: unexpected data after index object")
)

var bindingRegex = regexp.MustCompile(`^\s*(?:(?:var|let|const)\s+|window\.)?` + BindingName + `\s*=\s*`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Extract returns the JSON object assigned to documenterSearchIndex.
// A bare JSON object is returned as-is.
func Extract(src []byte) ([]byte, error) {
	src = bytes.TrimPrefix(src, utf8BOM)

	body := src
	if loc := bindingRegex.FindIndex(src); loc != nil {
		body = src[loc[1]:]
	} else if trimmed := bytes.TrimLeft(src, " \t\r\n"); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNoBinding
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid index JSON: %w", err)
	}

	rest := bytes.TrimSpace(body[dec.InputOffset():])
	rest = bytes.TrimPrefix(rest, []byte(";"))
	if len(bytes.TrimSpace(rest)) > 0 {
		return nil, ErrTrailingData
	}

	return raw, nil
}

// Parse extracts and decodes a search index payload. It does not check
// record invariants; use Check or Validate for that.
func Parse(src []byte) (*Index, error) {
	payload, err := Extract(src)
	if err != nil {
		return nil, err
	}
	return decodePayload(payload)
}

// Load reads and parses the search index at path.
func Load(path string) (*Index, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	idx, err := Parse(src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return idx, nil
}

// Read parses a search index from r.
func Read(r io.Reader) (*Index, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read search index: %w", err)
	}
	return Parse(src)
}

func decodePayload(payload []byte) (*Index, error) {
	var idx Index
	if err := json.Unmarshal(payload, &idx); err != nil {
		return nil, fmt.Errorf("failed to decode index: %w", err)
	}
	if idx.Docs == nil {
		idx.Docs = []Record{}
	}
	return &idx, nil
}
