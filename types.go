package qschema

import (
	"bytes"
	"fmt"
	"strconv"

	json "github.com/goccy/go-json"
)

// Answer types with special handling.
const (
	TypeNumber     = "Number"
	TypeCurrency   = "Currency"
	TypePercentage = "Percentage"
	TypeDate       = "Date"
	TypeTextField  = "TextField"
)

// Block types with special handling.
const (
	BlockListCollector               = "ListCollector"
	BlockListCollectorDrivingQuestion = "ListCollectorDrivingQuestion"
)

// SourceAnswers marks a bound value that refers to another answer.
const SourceAnswers = "answers"

// IsNumericType reports whether answers of type t take part in range resolution.
func IsNumericType(t string) bool {
	switch t {
	case TypeNumber, TypeCurrency, TypePercentage:
		return true
	}
	return false
}

// Block is a unit of the questionnaire holding a question or question variants.
// List collectors also carry their add/edit/remove sub-blocks.
type Block struct {
	ID               string            `json:"id"`
	Type             string            `json:"type"`
	ForList          string            `json:"for_list,omitempty"`
	Question         *Question         `json:"question,omitempty"`
	QuestionVariants []QuestionVariant `json:"question_variants,omitempty"`
	RoutingRules     []RoutingRule     `json:"routing_rules,omitempty"`
	AddBlock         *Block            `json:"add_block,omitempty"`
	EditBlock        *Block            `json:"edit_block,omitempty"`
	AddOrEditBlock   *Block            `json:"add_or_edit_block,omitempty"`
	RemoveBlock      *Block            `json:"remove_block,omitempty"`
}

// QuestionVariant is one alternative version of a block's question.
type QuestionVariant struct {
	Question Question `json:"question"`
}

// Question groups the answers shown together.
type Question struct {
	ID      string   `json:"id"`
	Type    string   `json:"type,omitempty"`
	Answers []Answer `json:"answers,omitempty"`
}

// Answer is a single input. Optional attributes are pointers or presence-aware
// values so that "absent" can be told apart from the zero value.
type Answer struct {
	ID             string          `json:"id"`
	Type           string          `json:"type"`
	Mandatory      *bool           `json:"mandatory,omitempty"`
	Minimum        *Bound          `json:"minimum,omitempty"`
	Maximum        *Bound          `json:"maximum,omitempty"`
	DecimalPlaces  *int            `json:"decimal_places,omitempty"`
	Default        any             `json:"default,omitempty"`
	Options        []Option        `json:"options,omitempty"`
	Exclusive      bool            `json:"exclusive,omitempty"`
	SuggestionsURL *string         `json:"suggestions_url,omitempty"`
	Calculated     json.RawMessage `json:"calculated,omitempty"`
}

// IsMandatory reports whether mandatory is explicitly true.
func (a *Answer) IsMandatory() bool { return a.Mandatory != nil && *a.Mandatory }

// IsOptional reports whether mandatory is explicitly false.
func (a *Answer) IsOptional() bool { return a.Mandatory != nil && !*a.Mandatory }

// HasDefault reports whether a non-null default is declared.
func (a *Answer) HasDefault() bool { return a.Default != nil }

// IsCalculated reports whether the calculated attribute is present.
func (a *Answer) IsCalculated() bool { return len(a.Calculated) > 0 }

// Places returns decimal_places, defaulting to 0.
func (a *Answer) Places() int {
	if a.DecimalPlaces == nil {
		return 0
	}
	return *a.DecimalPlaces
}

// Option is one selectable choice of an answer.
type Option struct {
	Label        Label   `json:"label"`
	Value        string  `json:"value"`
	Action       *Action `json:"action,omitempty"`
	DetailAnswer *Answer `json:"detail_answer,omitempty"`
}

// Action is attached to an option and triggers list or block operations.
type Action struct {
	Type   string        `json:"type"`
	Params *ActionParams `json:"params,omitempty"`
}

// ActionParams names the list or block an action targets.
type ActionParams struct {
	ListName string `json:"list_name,omitempty"`
	BlockID  string `json:"block_id,omitempty"`
}

// Label is either a plain string or a structured placeholder object.
type Label struct {
	Text string
	// Structured is set when the label was an object rather than a string.
	Structured bool
	// Plural is set when the object carries a text_plural sub-structure.
	Plural bool

	plural string // raw text_plural, kept for re-encoding
}

func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("label: %w", err)
		}
		*l = Label{Text: s}
		return nil
	}
	var obj struct {
		Text       string          `json:"text"`
		TextPlural json.RawMessage `json:"text_plural"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("label: %w", err)
	}
	*l = Label{Text: obj.Text, Structured: true, Plural: len(obj.TextPlural) > 0}
	if l.Plural {
		l.plural = string(obj.TextPlural)
	}
	return nil
}

func (l Label) MarshalJSON() ([]byte, error) {
	if !l.Structured && !l.Plural {
		return json.Marshal(l.Text)
	}
	obj := map[string]any{"text": l.Text}
	switch {
	case l.plural != "":
		obj["text_plural"] = json.RawMessage(l.plural)
	case l.Plural:
		obj["text_plural"] = map[string]any{}
	}
	return json.Marshal(obj)
}

// Bound is a minimum or maximum declaration.
type Bound struct {
	Value    BoundValue `json:"value"`
	OffsetBy *Offset    `json:"offset_by,omitempty"`
}

// Offset is a relative date adjustment.
type Offset struct {
	Years  int `json:"years,omitempty"`
	Months int `json:"months,omitempty"`
	Days   int `json:"days,omitempty"`
}

// BoundValue is a literal number, a literal string (a date or "now") or an
// object such as an answer reference. Exactly one of Number, Text or Object
// is set for a present value.
type BoundValue struct {
	Number *float64
	// Integer is set when the literal number had no fraction or exponent.
	Integer bool
	Text    *string
	Object  *ValueSource
}

// ValueSource is an object-valued bound, typically {source: answers, identifier: X}.
type ValueSource struct {
	Source     string `json:"source"`
	Identifier string `json:"identifier"`
}

// IsLiteral reports whether the value is a plain number or string.
func (v BoundValue) IsLiteral() bool { return v.Number != nil || v.Text != nil }

// Reference returns the referenced answer id when the value points at another answer.
func (v BoundValue) Reference() (string, bool) {
	if v.Object == nil || v.Object.Source != SourceAnswers {
		return "", false
	}
	return v.Object.Identifier, true
}

func (v *BoundValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = BoundValue{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("bound value: %w", err)
		}
		v.Text = &s
	case '{':
		var src ValueSource
		if err := json.Unmarshal(data, &src); err != nil {
			return fmt.Errorf("bound value: %w", err)
		}
		v.Object = &src
	default:
		f, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return fmt.Errorf("bound value: %w", err)
		}
		v.Number = &f
		v.Integer = !bytes.ContainsAny(data, ".eE")
	}
	return nil
}

func (v BoundValue) MarshalJSON() ([]byte, error) {
	switch {
	case v.Number != nil:
		return json.Marshal(*v.Number)
	case v.Text != nil:
		return json.Marshal(*v.Text)
	case v.Object != nil:
		return json.Marshal(v.Object)
	}
	return []byte("null"), nil
}

// RoutingRule is a conditional or unconditional goto.
type RoutingRule struct {
	Goto *Goto `json:"goto,omitempty"`
}

// IsDefault reports whether the rule applies unconditionally.
func (r RoutingRule) IsDefault() bool { return r.Goto == nil || r.Goto.When == nil }

// Goto names the destination and, for conditional rules, the when clauses.
type Goto struct {
	Block string `json:"block,omitempty"`
	Group string `json:"group,omitempty"`
	// When is nil when the key is absent.
	When []WhenClause `json:"when,omitempty"`
}

// WhenClause compares an answer against a value.
type WhenClause struct {
	ID        string `json:"id,omitempty"`
	Condition string `json:"condition,omitempty"`
	Value     any    `json:"value,omitempty"`
}
