package qschema

import (
	"time"
)

// Options configures Validate.
type Options struct {
	// Now supplies the current time for "now" offset dates. Defaults to time.Now.
	Now func() time.Time
}

// RunOption mutates Options.
type RunOption func(*Options)

// WithClock fixes the clock used for "now" offset dates.
func WithClock(now func() time.Time) RunOption {
	return func(o *Options) { o.Now = now }
}

// Validate indexes doc and runs every check. Content violations come back as
// Issues; the error is only non-nil when the document cannot be indexed.
func Validate(doc *Document, opts ...RunOption) (Issues, error) {
	ix, err := NewIndex(doc)
	if err != nil {
		return nil, err
	}
	return ValidateIndex(ix, opts...), nil
}

// ValidateIndex runs every check against an existing index. The result is a
// pure function of the indexed document: repeated runs yield the same issues
// in the same order.
func ValidateIndex(ix *Index, opts ...RunOption) Issues {
	o := Options{Now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}

	iss := Issues{}
	for _, id := range ix.DuplicateIDs() {
		iss = AppendIssues(iss, IssueFor(id, CodeDuplicateID, MsgDuplicateID))
	}

	answers := ix.AnswersWithContext()
	ordered := make([]*Answer, 0, len(answers))
	for _, ac := range answers {
		ordered = append(ordered, ac.Answer)
	}
	table := BuildRangeTable(ordered)

	for _, ac := range answers {
		vopts := []ValidatorOption{WithTargets(ix), WithNow(o.Now)}
		if b, ok := ix.owningBlock(ac.Block); ok {
			vopts = append(vopts, WithBlock(b))
		}
		v := NewAnswerValidator(ac.Answer, vopts...)
		iss = AppendIssues(iss, v.Validate()...)
		if IsNumericType(ac.Answer.Type) {
			iss = AppendIssues(iss, v.ValidateNumericTypes(table)...)
		}
	}
	return iss
}

// owningBlock finds a block or sub-block by id.
func (ix *Index) owningBlock(id string) (*Block, bool) {
	if b, ok := ix.BlockByID(id); ok {
		return b, true
	}
	return ix.SubBlockByID(id)
}
