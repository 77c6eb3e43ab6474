package searchindex

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	payloadPrefix = "var " + BindingName + ` = {"docs":` + "\n"
	payloadSuffix = "\n}"
)

// MarshalPayload returns the bare {"docs":[...]} object.
func MarshalPayload(idx *Index) ([]byte, error) {
	docs, err := marshalDocs(idx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(docs) + 10)
	buf.WriteString(`{"docs":`)
	buf.Write(docs)
	buf.WriteString("}")
	return buf.Bytes(), nil
}

// Marshal renders idx in the layout Documenter writes to search_index.js.
func Marshal(idx *Index) ([]byte, error) {
	docs, err := marshalDocs(idx)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(payloadPrefix) + len(docs) + len(payloadSuffix))
	buf.WriteString(payloadPrefix)
	buf.Write(docs)
	buf.WriteString(payloadSuffix)
	return buf.Bytes(), nil
}

// Encode writes the Documenter rendering of idx to w.
func Encode(w io.Writer, idx *Index) error {
	data, err := Marshal(idx)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteFile writes idx to path through a temp file and a rename, so
// readers never see a partial index.
func WriteFile(path string, idx *Index) error {
	data, err := Marshal(idx)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// marshalDocs encodes the record array without HTML escaping, matching
// what the documentation generator emits.
func marshalDocs(idx *Index) ([]byte, error) {
	docs := []Record{}
	if idx != nil && idx.Docs != nil {
		docs = idx.Docs
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(docs); err != nil {
		return nil, fmt.Errorf("failed to encode records: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
