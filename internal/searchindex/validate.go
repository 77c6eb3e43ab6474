package searchindex

import (
	"errors"
	"fmt"
)

// Issue codes reported by Validate and Check.
const (
	CodeInvalidJSON       = "INVALID_JSON"
	CodeNoBinding         = "NO_BINDING"
	CodeSchema            = "SCHEMA_VALIDATION_ERROR"
	CodeEmptyIndex        = "EMPTY_INDEX"
	CodeInvalidCategory   = "INVALID_CATEGORY"
	CodeDocstringCategory = "DOCSTRING_CATEGORY"
	CodeEmptyPage         = "EMPTY_PAGE"
	CodeSectionAnchor     = "SECTION_WITHOUT_ANCHOR"
	CodeDuplicateRecord   = "DUPLICATE_RECORD"
	CodeRoundTrip         = "ROUND_TRIP_UNSTABLE"
)

// Severity of an issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

var (
	// ErrEmptyIndex is wrapped by Report.Err for an index without records.
	ErrEmptyIndex = errors.New("searchindex: index has no records")

	// ErrRoundTrip is returned when re-serializing an index does not give
	// back the same record sequence.
	ErrRoundTrip = errors.New("searchindex: round trip changed the record sequence")

	// ErrInvalid is wrapped by Report.Err when the report has errors.
	ErrInvalid = errors.New("searchindex: invalid search index")
)

// Issue is a single finding about the payload.
type Issue struct {
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
}

// Options tune validation.
type Options struct {
	// Strict rejects docstring categories; only page and section pass.
	Strict bool
	// AllowEmpty accepts an index without records, as produced by a build
	// that has not been published yet.
	AllowEmpty bool
}

// Report is the outcome of a validation pass.
type Report struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
	Summary  string  `json:"summary"`
}

func newReport() *Report {
	return &Report{
		Errors:   []Issue{},
		Warnings: []Issue{},
	}
}

func (r *Report) add(issue Issue) {
	if issue.Severity == SeverityWarning {
		r.Warnings = append(r.Warnings, issue)
		return
	}
	issue.Severity = SeverityError
	r.Errors = append(r.Errors, issue)
}

// HasCode reports whether any error or warning carries code.
func (r *Report) HasCode(code string) bool {
	for _, issue := range r.Errors {
		if issue.Code == code {
			return true
		}
	}
	for _, issue := range r.Warnings {
		if issue.Code == code {
			return true
		}
	}
	return false
}

func (r *Report) finish(records int) {
	r.Valid = len(r.Errors) == 0
	if r.Valid {
		r.Summary = fmt.Sprintf("Search index is valid: %d record(s), %d warning(s)", records, len(r.Warnings))
	} else {
		r.Summary = fmt.Sprintf("Search index is invalid: %d error(s), %d warning(s)", len(r.Errors), len(r.Warnings))
	}
}

// Err returns nil for a valid report, and an error wrapping ErrInvalid
// naming the first error otherwise.
func (r *Report) Err() error {
	if r.Valid {
		return nil
	}
	if len(r.Errors) == 0 {
		return ErrInvalid
	}
	first := r.Errors[0]
	if first.Code == CodeEmptyIndex {
		return fmt.Errorf("%w: %w", ErrInvalid, ErrEmptyIndex)
	}
	return fmt.Errorf("%w: %s at %s (%d error(s))", ErrInvalid, first.Message, first.Path, len(r.Errors))
}

type recordKey struct {
	location string
	category Category
	title    string
}

// Validate checks the record invariants of a decoded index.
func Validate(idx *Index, opts Options) *Report {
	report := newReport()
	validateRecords(report, idx, opts)
	report.finish(idx.Len())
	return report
}

func validateRecords(report *Report, idx *Index, opts Options) {
	if idx.Len() == 0 {
		if !opts.AllowEmpty {
			report.add(Issue{
				Path:    "$.docs",
				Message: "published search index has no records",
				Code:    CodeEmptyIndex,
			})
		}
		return
	}

	seen := make(map[Record]int, len(idx.Docs))
	anchors := make(map[recordKey]bool, len(idx.Docs))

	for i, rec := range idx.Docs {
		path := fmt.Sprintf("$.docs[%d]", i)

		switch {
		case rec.Category.IsStructural():
		case rec.Category.IsDocstring():
			issue := Issue{
				Path:     path + ".category",
				Message:  fmt.Sprintf("docstring category %q outside page/section", rec.Category),
				Code:     CodeDocstringCategory,
				Severity: SeverityWarning,
			}
			if opts.Strict {
				issue.Severity = SeverityError
			}
			report.add(issue)
		default:
			report.add(Issue{
				Path:    path + ".category",
				Message: fmt.Sprintf("unknown category %q", rec.Category),
				Code:    CodeInvalidCategory,
			})
		}

		if rec.Page == "" {
			report.add(Issue{
				Path:     path + ".page",
				Message:  "record has an empty page name",
				Code:     CodeEmptyPage,
				Severity: SeverityWarning,
			})
		}

		if rec.Category == CategorySection && rec.Anchor() == "" {
			report.add(Issue{
				Path:     path + ".location",
				Message:  fmt.Sprintf("section location %q has no anchor", rec.Location),
				Code:     CodeSectionAnchor,
				Severity: SeverityWarning,
			})
		}

		first, dup := seen[rec]
		if dup {
			report.add(Issue{
				Path:     path,
				Message:  fmt.Sprintf("record repeats $.docs[%d]", first),
				Code:     CodeDuplicateRecord,
				Severity: SeverityWarning,
			})
		} else {
			seen[rec] = i
		}

		// Sections name an anchor, so the same heading twice on one page
		// is flagged even when the text differs.
		if rec.Category == CategorySection && !dup {
			key := recordKey{location: rec.Location, category: rec.Category, title: rec.Title}
			if anchors[key] {
				report.add(Issue{
					Path:     path,
					Message:  fmt.Sprintf("section anchor %q appears more than once", rec.Location),
					Code:     CodeDuplicateRecord,
					Severity: SeverityWarning,
				})
			}
			anchors[key] = true
		}
	}
}

// Check runs the full pipeline over a raw search_index.js source: binding
// extraction, JSON schema validation, decoding, record invariants, and
// round-trip stability. The returned index is nil when the source could
// not be decoded.
func Check(src []byte, opts Options) (*Report, *Index) {
	report := newReport()

	payload, err := Extract(src)
	if err != nil {
		code := CodeInvalidJSON
		if errors.Is(err, ErrNoBinding) {
			code = CodeNoBinding
		}
		report.add(Issue{Path: "$", Message: err.Error(), Code: code})
		report.finish(0)
		return report, nil
	}

	violations, err := validateSchema(payload)
	if err != nil {
		report.add(Issue{Path: "$", Message: err.Error(), Code: CodeInvalidJSON})
		report.finish(0)
		return report, nil
	}
	if len(violations) > 0 {
		for _, issue := range violations {
			report.add(issue)
		}
		report.finish(0)
		return report, nil
	}

	idx, err := decodePayload(payload)
	if err != nil {
		report.add(Issue{Path: "$", Message: err.Error(), Code: CodeInvalidJSON})
		report.finish(0)
		return report, nil
	}

	validateRecords(report, idx, opts)

	if err := RoundTrip(idx); err != nil {
		report.add(Issue{Path: "$.docs", Message: err.Error(), Code: CodeRoundTrip})
	}

	report.finish(idx.Len())
	return report, idx
}

// Require is Check for callers that only want a usable index or an error.
func Require(src []byte, opts Options) (*Index, *Report, error) {
	report, idx := Check(src, opts)
	if err := report.Err(); err != nil {
		return nil, report, err
	}
	return idx, report, nil
}

// RoundTrip re-serializes idx, parses the result, and compares the record
// sequences.
func RoundTrip(idx *Index) error {
	data, err := Marshal(idx)
	if err != nil {
		return err
	}
	again, err := Parse(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRoundTrip, err)
	}
	if !idx.Equal(again) {
		return ErrRoundTrip
	}
	return nil
}
