package searchindex

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

const schemaURL = "https://docindex.local/schema/search_index.json"

//go:embed schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse index schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add index schema: %w", err)
	}
	return compiler.Compile(schemaURL)
})

// validateSchema checks the raw payload against the embedded JSON schema.
// It returns the schema violations as issues; a non-nil error means the
// payload could not be checked at all.
func validateSchema(payload []byte) ([]Issue, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, err
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid index JSON: %w", err)
	}

	err = schema.Validate(inst)
	if err == nil {
		return nil, nil
	}

	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return schemaIssues(verr), nil
	}
	return []Issue{{
		Path:     "$",
		Message:  err.Error(),
		Code:     CodeSchema,
		Severity: SeverityError,
	}}, nil
}

// schemaIssues flattens a validation error tree into its leaves.
func schemaIssues(verr *jsonschema.ValidationError) []Issue {
	if len(verr.Causes) == 0 {
		return []Issue{{
			Path:     instancePath(verr.InstanceLocation),
			Message:  leafMessage(verr),
			Code:     CodeSchema,
			Severity: SeverityError,
		}}
	}

	var issues []Issue
	for _, cause := range verr.Causes {
		issues = append(issues, schemaIssues(cause)...)
	}
	return issues
}

func leafMessage(verr *jsonschema.ValidationError) string {
	msg := strings.TrimSpace(verr.Error())
	// The first line names the schema; the violation follows it.
	if i := strings.LastIndex(msg, "\n"); i >= 0 {
		msg = strings.TrimSpace(msg[i+1:])
	}
	return strings.TrimPrefix(msg, "- ")
}

// instancePath renders ["docs", "3", "category"] as $.docs[3].category.
func instancePath(loc []string) string {
	var b strings.Builder
	b.WriteString("$")
	for i, part := range loc {
		if i > 0 && loc[i-1] == "docs" && isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		b.WriteString("." + part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
