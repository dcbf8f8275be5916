package qschema

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeDuplicateID             = "duplicate_id"
	CodeDuplicateLabel          = "duplicate_label"
	CodeDuplicateValue          = "duplicate_value"
	CodeValueMismatch           = "value_mismatch"
	CodeListNameMissing         = "list_name_missing"
	CodeBlockIDMissing          = "block_id_missing"
	CodeDefaultRouteMissing     = "default_route_missing"
	CodeUnroutedOptions         = "unrouted_options"
	CodeDecimalPlacesUndefined  = "decimal_places_undefined"
	CodeDecimalPlacesTooLong    = "decimal_places_too_long"
	CodeInvalidOffsetDate       = "invalid_offset_date"
	CodeInvalidDate             = "invalid_date"
	CodeInvalidSuggestionURL    = "invalid_suggestion_url"
	CodeDefaultOnMandatory      = "default_on_mandatory"
	CodeMinimumLessThanLimit    = "minimum_less_than_limit"
	CodeMaximumGreaterThanLimit = "maximum_greater_than_limit"
	CodeReferencedAnswerInvalid = "referenced_answer_invalid"
	CodeInvalidRange            = "invalid_range"
	CodeReferencedDecimalPlaces = "referenced_decimal_places"
	// Structural checks performed before indexing.
	CodeStructure    = "structure"
	CodeDuplicateKey = "duplicate_key"
)

// Fixed messages. Checks with dynamic wording build theirs inline.
const (
	MsgDecimalPlacesUndefined  = "'decimal_places' must be defined and set to 2"
	MsgDecimalPlacesTooLong    = "Number of decimal places is greater than system limit"
	MsgInvalidOffsetDate       = "The minimum offset date is greater than the maximum offset date"
	MsgInvalidSuggestionURL    = "Suggestions url is invalid"
	MsgListNameMissing         = "List name defined in action params does not exist"
	MsgBlockIDMissing          = "Block id defined in action params does not exist"
	MsgDefaultOnMandatory      = "Default is being used with a mandatory answer"
	MsgMinimumLessThanLimit    = "Minimum value is less than system limit"
	MsgMaximumGreaterThanLimit = "Maximum value is greater than system limit"
	MsgDuplicateID             = "Duplicate id found"
)

// ErrMalformedDocument marks a document that does not have the shape the
// index relies on. It is a precondition failure, not a validation finding.
var ErrMalformedDocument = errors.New("qschema: malformed document")

// Issue is a single error record produced by a rule check.
type Issue struct {
	Code    string `json:"code"` // One of the codes listed above.
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`   // Answer (or schema element) the issue belongs to.
	Path    string `json:"path,omitempty"` // Optional JSON Pointer into the document.
	// Params carries structured context, e.g. {"value": -1e10, "limit": -999999999}.
	Params map[string]any `json:"params,omitempty"`
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. duplicate_value at answer-1
		fmt.Fprintf(b, "%s at %s", it.Code, it.ID)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Codes lists the code of every issue in order.
func (iss Issues) Codes() []string {
	out := make([]string, len(iss))
	for i, it := range iss {
		out[i] = it.Code
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func malformed(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedDocument, fmt.Sprintf(format, a...))
}
