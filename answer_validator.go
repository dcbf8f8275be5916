package qschema

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/reoring/qschema/internal/dates"
)

var relativeURL = regexp.MustCompile(`^[A-Za-z0-9_.\-/~]+$`)

// Targets answers whether action parameters point at something that exists.
// *Index satisfies it.
type Targets interface {
	HasListName(name string) bool
	HasBlockID(id string) bool
}

// AnswerValidator runs the rule checks of a single answer. Findings are
// accumulated; no check stops another except that a dangling numeric
// reference skips the remaining numeric checks.
type AnswerValidator struct {
	answer  *Answer
	block   *Block
	targets Targets
	now     func() time.Time

	issues Issues
}

// ValidatorOption configures an AnswerValidator.
type ValidatorOption func(*AnswerValidator)

// WithBlock sets the block owning the answer; routing checks need it.
func WithBlock(b *Block) ValidatorOption {
	return func(v *AnswerValidator) { v.block = b }
}

// WithTargets sets the lookup used by the action target check. Without it the
// check is skipped.
func WithTargets(t Targets) ValidatorOption {
	return func(v *AnswerValidator) { v.targets = t }
}

// WithNow sets the clock used for "now" in offset dates.
func WithNow(now func() time.Time) ValidatorOption {
	return func(v *AnswerValidator) {
		if now != nil {
			v.now = now
		}
	}
}

// NewAnswerValidator prepares the checks for answer.
func NewAnswerValidator(answer *Answer, opts ...ValidatorOption) *AnswerValidator {
	v := &AnswerValidator{answer: answer, now: time.Now}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Issues returns everything reported so far.
func (v *AnswerValidator) Issues() Issues { return v.issues }

func (v *AnswerValidator) add(code, msg string, kv ...any) {
	v.issues = AppendIssues(v.issues, IssueFor(v.answer.ID, code, msg, kv...))
}

// Validate runs the checks that need no range table and returns their issues.
func (v *AnswerValidator) Validate() Issues {
	start := len(v.issues)
	a := v.answer

	v.checkDuplicateOptions()
	v.checkAnswerActions()
	v.checkLabelsAndValuesMatch()
	v.checkRoutingOnOptions()

	if !v.decimalPlacesValid() {
		v.add(CodeDecimalPlacesUndefined, MsgDecimalPlacesUndefined)
	}
	v.checkOffsetDate()

	if a.Type == TypeTextField && a.SuggestionsURL != nil && !SuggestionURLValid(*a.SuggestionsURL) {
		v.add(CodeInvalidSuggestionURL, MsgInvalidSuggestionURL, "suggestions_url", *a.SuggestionsURL)
	}

	if IsNumericType(a.Type) {
		v.checkNumericDefault()
		v.checkNumericValue()
		v.checkNumericDecimals()
	}
	return v.issues[start:]
}

func (v *AnswerValidator) checkDuplicateOptions() {
	labels := map[string]bool{}
	values := map[string]bool{}
	reported := map[string]bool{}
	for _, o := range v.answer.Options {
		// placeholder labels render at runtime, so they cannot be compared
		if !o.Label.Structured {
			if labels[o.Label.Text] && !reported["label:"+o.Label.Text] {
				reported["label:"+o.Label.Text] = true
				v.add(CodeDuplicateLabel, "Duplicate label found - "+o.Label.Text, "label", o.Label.Text)
			}
			labels[o.Label.Text] = true
		}
		if values[o.Value] && !reported["value:"+o.Value] {
			reported["value:"+o.Value] = true
			v.add(CodeDuplicateValue, "Duplicate value found - "+o.Value, "value", o.Value)
		}
		values[o.Value] = true
	}
}

func (v *AnswerValidator) checkLabelsAndValuesMatch() {
	for _, o := range v.answer.Options {
		if o.Label.Plural {
			continue
		}
		if o.Label.Text != o.Value {
			v.add(CodeValueMismatch,
				fmt.Sprintf("Found mismatching answer value for label: %s in answer id: %s", o.Label.Text, v.answer.ID),
				"label", o.Label.Text, "value", o.Value)
		}
	}
}

func (v *AnswerValidator) checkAnswerActions() {
	if v.targets == nil {
		return
	}
	for _, o := range v.answer.Options {
		if o.Action == nil || o.Action.Params == nil {
			continue
		}
		p := o.Action.Params
		if p.ListName != "" && !v.targets.HasListName(p.ListName) {
			v.add(CodeListNameMissing, MsgListNameMissing, "list_name", p.ListName)
		}
		if p.BlockID != "" && !v.targets.HasBlockID(p.BlockID) {
			v.add(CodeBlockIDMissing, MsgBlockIDMissing, "block_id", p.BlockID)
		}
	}
}

// HasDefaultRoute reports whether any routing rule of the block is unconditional.
func (v *AnswerValidator) HasDefaultRoute() bool {
	if v.block == nil {
		return false
	}
	for _, r := range v.block.RoutingRules {
		if r.IsDefault() {
			return true
		}
	}
	return false
}

func (v *AnswerValidator) checkRoutingOnOptions() {
	a := v.answer
	if v.block == nil || len(v.block.RoutingRules) == 0 || len(a.Options) == 0 {
		return
	}
	remaining := make([]string, 0, len(a.Options))
	for _, o := range a.Options {
		remaining = append(remaining, o.Value)
	}
	for _, r := range v.block.RoutingRules {
		if r.IsDefault() {
			remaining = remaining[:0]
			continue
		}
		for _, w := range r.Goto.When {
			val, ok := w.Value.(string)
			if !ok || w.ID != a.ID {
				continue
			}
			remaining = removeFirst(remaining, val)
		}
	}

	// rules that never mention this answer do not route it
	unrouted := len(remaining) > 0 && len(remaining) != len(a.Options)

	if a.IsOptional() && !v.HasDefaultRoute() {
		v.add(CodeDefaultRouteMissing, fmt.Sprintf("Default route not defined for optional question [%s]", a.ID))
	}
	if unrouted {
		missing := append([]string(nil), remaining...)
		v.add(CodeUnroutedOptions,
			fmt.Sprintf("Routing rule not defined for all answers or default not defined for answer [%s] missing options %v", a.ID, missing),
			"missing_options", missing)
	}
}

func removeFirst(values []string, s string) []string {
	for i, x := range values {
		if x == s {
			return append(values[:i], values[i+1:]...)
		}
	}
	return values
}

func (v *AnswerValidator) decimalPlacesValid() bool {
	if !v.answer.IsCalculated() {
		return true
	}
	return v.answer.DecimalPlaces != nil && *v.answer.DecimalPlaces == 2
}

func (v *AnswerValidator) checkOffsetDate() {
	a := v.answer
	if a.Type != TypeDate || a.Minimum == nil || a.Maximum == nil {
		return
	}
	if a.Minimum.Value.Text == nil || a.Maximum.Value.Text == nil {
		return
	}
	lo, err := v.offsetDate(a.Minimum)
	if err != nil {
		v.add(CodeInvalidDate, err.Error(), "value", *a.Minimum.Value.Text)
		return
	}
	hi, err := v.offsetDate(a.Maximum)
	if err != nil {
		v.add(CodeInvalidDate, err.Error(), "value", *a.Maximum.Value.Text)
		return
	}
	if !lo.Before(hi) {
		v.add(CodeInvalidOffsetDate, MsgInvalidOffsetDate,
			"minimum", lo.Format("2006-01-02"), "maximum", hi.Format("2006-01-02"))
	}
}

func (v *AnswerValidator) offsetDate(b *Bound) (time.Time, error) {
	var off Offset
	if b.OffsetBy != nil {
		off = *b.OffsetBy
	}
	return dates.Resolve(*b.Value.Text, off.Years, off.Months, off.Days, v.now)
}

// SuggestionURLValid reports whether s is an absolute URL or a plain relative path.
func SuggestionURLValid(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return relativeURL.MatchString(s)
	}
	if u.Scheme != "" && u.Host != "" {
		return true
	}
	// "host:port/path" parses as scheme "host" with an opaque remainder
	p := u.Path
	if p == "" {
		p = u.Opaque
	}
	return relativeURL.MatchString(p)
}

func (v *AnswerValidator) checkNumericDefault() {
	if v.answer.IsMandatory() && v.answer.HasDefault() {
		v.add(CodeDefaultOnMandatory, MsgDefaultOnMandatory)
	}
}

func (v *AnswerValidator) checkNumericValue() {
	a := v.answer
	if a.Minimum != nil && a.Minimum.Value.Number != nil && *a.Minimum.Value.Number < MinNumber {
		v.add(CodeMinimumLessThanLimit, MsgMinimumLessThanLimit,
			"value", numberParam(a.Minimum.Value), "limit", MinNumber)
	}
	if a.Maximum != nil && a.Maximum.Value.Number != nil && *a.Maximum.Value.Number > MaxNumber {
		v.add(CodeMaximumGreaterThanLimit, MsgMaximumGreaterThanLimit,
			"value", numberParam(a.Maximum.Value), "limit", MaxNumber)
	}
}

func numberParam(bv BoundValue) any {
	if bv.Integer {
		return int64(*bv.Number)
	}
	return *bv.Number
}

func (v *AnswerValidator) checkNumericDecimals() {
	if places := v.answer.Places(); places > MaxDecimalPlaces {
		v.add(CodeDecimalPlacesTooLong, MsgDecimalPlacesTooLong,
			"decimal_places", places, "limit", MaxDecimalPlaces)
	}
}

// ValidateNumericTypes runs the checks that need the range table and returns
// their issues. Answers without an entry are not numeric and are skipped.
func (v *AnswerValidator) ValidateNumericTypes(table RangeTable) Issues {
	start := len(v.issues)
	e, ok := table[v.answer.ID]
	if !ok {
		return nil
	}
	if v.checkReferredAnswer(e) {
		return v.issues[start:]
	}
	v.checkRange(e)
	v.checkReferredDecimals(e, table)
	return v.issues[start:]
}

func (v *AnswerValidator) checkReferredAnswer(e RangeEntry) bool {
	id := v.answer.ID
	if e.Min == nil {
		v.add(CodeReferencedAnswerInvalid,
			fmt.Sprintf("The referenced answer %q can not be used to set the minimum of answer %q", e.MinReferred, id),
			"referenced_id", e.MinReferred)
		return true
	}
	if e.Max == nil {
		v.add(CodeReferencedAnswerInvalid,
			fmt.Sprintf("The referenced answer %q can not be used to set the maximum of answer %q", e.MaxReferred, id),
			"referenced_id", e.MaxReferred)
		return true
	}
	return false
}

func (v *AnswerValidator) checkRange(e RangeEntry) {
	if *e.Max-*e.Min < 0 {
		v.add(CodeInvalidRange,
			fmt.Sprintf("Invalid range of min = %s and max = %s is possible for answer %q.",
				formatNumber(*e.Min), formatNumber(*e.Max), v.answer.ID),
			"min", *e.Min, "max", *e.Max)
	}
}

func (v *AnswerValidator) checkReferredDecimals(e RangeEntry, table RangeTable) {
	for _, ref := range []string{e.MinReferred, e.MaxReferred} {
		if ref == "" {
			continue
		}
		if e.DecimalPlaces < table[ref].DecimalPlaces {
			v.add(CodeReferencedDecimalPlaces,
				fmt.Sprintf("The referenced answer %q has a greater number of decimal places than answer %q", ref, v.answer.ID),
				"referenced_id", ref)
		}
	}
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
