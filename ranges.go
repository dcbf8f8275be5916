package qschema

import "math"

// System limits for numeric answers.
const (
	MaxNumber        = 9999999999
	MinNumber        = -999999999
	MaxDecimalPlaces = 6
)

// RangeEntry is the resolved range of one numeric answer. A nil Min or Max
// means the bound refers to an answer that had no entry when it was resolved.
type RangeEntry struct {
	Min           *float64
	Max           *float64
	DecimalPlaces int
	// MinReferred and MaxReferred hold the referenced answer id, or "".
	MinReferred string
	MaxReferred string
	Default     any
}

// RangeTable maps numeric answer ids to their resolved ranges.
type RangeTable map[string]RangeEntry

// BuildRangeTable resolves the ranges of the numeric answers in order. A
// reference can only resolve against an answer that appears earlier in the
// sequence; non-numeric answers are skipped and so never resolve.
func BuildRangeTable(answers []*Answer) RangeTable {
	table := RangeTable{}
	for _, a := range answers {
		if a == nil || !IsNumericType(a.Type) {
			continue
		}
		table[a.ID] = table.resolve(a)
	}
	return table
}

func (t RangeTable) resolve(a *Answer) RangeEntry {
	places := a.Places()
	e := RangeEntry{DecimalPlaces: places, Default: a.Default}
	if a.Minimum != nil {
		e.MinReferred, _ = a.Minimum.Value.Reference()
	}
	if a.Maximum != nil {
		e.MaxReferred, _ = a.Maximum.Value.Reference()
	}

	step := math.Pow10(-places)
	e.Min = t.boundValue(a.Minimum, 0)
	e.Max = t.boundValue(a.Maximum, MaxNumber)
	if a.Exclusive {
		if e.Min != nil {
			v := *e.Min + step
			e.Min = &v
		}
		if e.Max != nil {
			v := *e.Max - step
			e.Max = &v
		}
	}
	return e
}

// boundValue resolves one bound. A referenced answer only contributes its
// existence: the value it will hold is unknown here, so the system default is
// used whether or not it declares a default of its own.
func (t RangeTable) boundValue(b *Bound, systemDefault float64) *float64 {
	if b == nil {
		return &systemDefault
	}
	if b.Value.Number != nil {
		v := *b.Value.Number
		return &v
	}
	if ref, ok := b.Value.Reference(); ok {
		if _, ok := t[ref]; !ok {
			return nil
		}
	}
	return &systemDefault
}
