package qschema_test

import (
	"reflect"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	qschema "github.com/reoring/qschema"
)

func answer(t *testing.T, src string) *qschema.Answer {
	t.Helper()
	a := &qschema.Answer{}
	if err := json.Unmarshal([]byte(src), a); err != nil {
		t.Fatalf("decode answer: %v", err)
	}
	return a
}

func block(t *testing.T, src string) *qschema.Block {
	t.Helper()
	b := &qschema.Block{}
	if err := json.Unmarshal([]byte(src), b); err != nil {
		t.Fatalf("decode block: %v", err)
	}
	return b
}

func count(iss qschema.Issues, code string) int {
	n := 0
	for _, it := range iss {
		if it.Code == code {
			n++
		}
	}
	return n
}

type fakeTargets struct {
	lists  map[string]bool
	blocks map[string]bool
}

func (f fakeTargets) HasListName(n string) bool { return f.lists[n] }
func (f fakeTargets) HasBlockID(id string) bool { return f.blocks[id] }

func TestDuplicateOptions(t *testing.T) {
	cases := []struct {
		name       string
		src        string
		wantLabels int
		wantValues int
	}{
		{
			name:       "duplicate value",
			src:        `{"id":"a","type":"Radio","options":[{"label":"A","value":"a"},{"label":"B","value":"a"}]}`,
			wantValues: 1,
		},
		{
			name:       "value repeated three times is reported once",
			src:        `{"id":"a","type":"Radio","options":[{"label":"A","value":"a"},{"label":"B","value":"a"},{"label":"C","value":"a"}]}`,
			wantValues: 1,
		},
		{
			name:       "duplicate label",
			src:        `{"id":"a","type":"Radio","options":[{"label":"A","value":"a"},{"label":"A","value":"b"}]}`,
			wantLabels: 1,
		},
		{
			name: "placeholder labels are not compared",
			src: `{"id":"a","type":"Radio","options":[
				{"label":{"text":"{name}","placeholders":[]},"value":"x"},
				{"label":{"text":"{name}","placeholders":[]},"value":"y"}]}`,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			iss := qschema.NewAnswerValidator(answer(t, c.src)).Validate()
			if got := count(iss, qschema.CodeDuplicateLabel); got != c.wantLabels {
				t.Errorf("labels: want %d, got %d (%v)", c.wantLabels, got, iss)
			}
			if got := count(iss, qschema.CodeDuplicateValue); got != c.wantValues {
				t.Errorf("values: want %d, got %d (%v)", c.wantValues, got, iss)
			}
		})
	}
}

func TestDuplicateOptions_NamesValueOnce(t *testing.T) {
	a := answer(t, `{"id":"a","type":"Radio","options":[{"label":"A","value":"a"},{"label":"B","value":"a"}]}`)
	iss := qschema.NewAnswerValidator(a).Validate()
	for _, it := range iss {
		if it.Code != qschema.CodeDuplicateValue {
			continue
		}
		if it.Message != "Duplicate value found - a" || it.ID != "a" || it.Params["value"] != "a" {
			t.Fatalf("unexpected issue %+v", it)
		}
		return
	}
	t.Fatalf("expected duplicate value issue, got %v", iss)
}

func TestLabelsAndValuesMatch(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want int
	}{
		{"plain match", `{"id":"a","type":"Radio","options":[{"label":"Yes","value":"Yes"}]}`, 0},
		{"plain mismatch", `{"id":"a","type":"Radio","options":[{"label":"Yes","value":"yes"}]}`, 1},
		{"structured text match", `{"id":"a","type":"Radio","options":[{"label":{"text":"Yes"},"value":"Yes"}]}`, 0},
		{"structured text mismatch", `{"id":"a","type":"Radio","options":[{"label":{"text":"Yes"},"value":"Y"}]}`, 1},
		{"plural label skipped", `{"id":"a","type":"Radio","options":[
			{"label":{"text_plural":{"forms":{"one":"{n} person","other":"{n} people"}}},"value":"anything"}]}`, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			iss := qschema.NewAnswerValidator(answer(t, c.src)).Validate()
			if got := count(iss, qschema.CodeValueMismatch); got != c.want {
				t.Fatalf("want %d, got %d (%v)", c.want, got, iss)
			}
		})
	}
}

func TestAnswerActions(t *testing.T) {
	a := answer(t, `{"id":"a","type":"Radio","options":[
		{"label":"Add","value":"Add","action":{"type":"RedirectToListAddBlock","params":{"list_name":"people"}}},
		{"label":"Pets","value":"Pets","action":{"type":"RedirectToListAddBlock","params":{"list_name":"pets"}}},
		{"label":"Go","value":"Go","action":{"type":"RedirectToBlock","params":{"block_id":"nowhere"}}},
		{"label":"No","value":"No"}]}`)
	targets := fakeTargets{lists: map[string]bool{"people": true}, blocks: map[string]bool{"b1": true}}

	iss := qschema.NewAnswerValidator(a, qschema.WithTargets(targets)).Validate()
	want := []string{qschema.CodeListNameMissing, qschema.CodeBlockIDMissing}
	if got := iss.Codes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
	if iss[0].Params["list_name"] != "pets" || iss[1].Params["block_id"] != "nowhere" {
		t.Fatalf("unexpected params %+v / %+v", iss[0].Params, iss[1].Params)
	}
}

func TestRoutingOnAnswerOptions(t *testing.T) {
	covered := `{"id":"b","type":"Question","routing_rules":[
		{"goto":{"block":"x","when":[{"id":"a","condition":"equals","value":"Yes"}]}},
		{"goto":{"block":"y","when":[{"id":"a","condition":"equals","value":"No"}]}}]}`
	partial := `{"id":"b","type":"Question","routing_rules":[
		{"goto":{"block":"x","when":[{"id":"a","condition":"equals","value":"Yes"}]}}]}`
	withDefault := `{"id":"b","type":"Question","routing_rules":[
		{"goto":{"block":"x","when":[{"id":"a","condition":"equals","value":"Yes"}]}},
		{"goto":{"block":"y"}}]}`
	otherAnswer := `{"id":"b","type":"Question","routing_rules":[
		{"goto":{"block":"x","when":[{"id":"other","condition":"equals","value":"Yes"}]}}]}`

	mandatory := `{"id":"a","type":"Radio","mandatory":true,"options":[{"label":"Yes","value":"Yes"},{"label":"No","value":"No"}]}`
	optional := `{"id":"a","type":"Radio","mandatory":false,"options":[{"label":"Yes","value":"Yes"},{"label":"No","value":"No"}]}`

	cases := []struct {
		name   string
		answer string
		block  string
		want   []string
	}{
		{"mandatory fully covered", mandatory, covered, nil},
		{"optional fully covered without default", optional, covered, []string{qschema.CodeDefaultRouteMissing}},
		{"mandatory partially covered", mandatory, partial, []string{qschema.CodeUnroutedOptions}},
		{"optional partially covered", optional, partial, []string{qschema.CodeDefaultRouteMissing, qschema.CodeUnroutedOptions}},
		{"default route", optional, withDefault, nil},
		{"rules about another answer", mandatory, otherAnswer, nil},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := qschema.NewAnswerValidator(answer(t, c.answer), qschema.WithBlock(block(t, c.block)))
			iss := v.Validate()
			got := iss.Codes()
			if len(got) == 0 {
				got = nil
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("want %v, got %v", c.want, iss)
			}
		})
	}
}

func TestRoutingOnAnswerOptions_MissingOptions(t *testing.T) {
	a := answer(t, `{"id":"a","type":"Radio","mandatory":true,"options":[
		{"label":"Yes","value":"Yes"},{"label":"No","value":"No"},{"label":"Maybe","value":"Maybe"}]}`)
	b := block(t, `{"id":"b","type":"Question","routing_rules":[
		{"goto":{"block":"x","when":[{"id":"a","condition":"equals","value":"Yes"}]}}]}`)
	iss := qschema.NewAnswerValidator(a, qschema.WithBlock(b)).Validate()
	if len(iss) != 1 {
		t.Fatalf("expected one issue, got %v", iss)
	}
	want := []string{"No", "Maybe"}
	if got := iss[0].Params["missing_options"]; !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, got)
	}
}

func TestDecimalPlaces(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want []string
	}{
		{"within limit", `{"id":"a","type":"Number","decimal_places":6}`, nil},
		{"over limit", `{"id":"a","type":"Number","decimal_places":7}`, []string{qschema.CodeDecimalPlacesTooLong}},
		{"calculated with 2", `{"id":"a","type":"Currency","decimal_places":2,"calculated":true}`, nil},
		{"calculated without places", `{"id":"a","type":"Currency","calculated":true}`, []string{qschema.CodeDecimalPlacesUndefined}},
		{"calculated with 3", `{"id":"a","type":"Currency","decimal_places":3,"calculated":true}`, []string{qschema.CodeDecimalPlacesUndefined}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			iss := qschema.NewAnswerValidator(answer(t, c.src)).Validate()
			got := iss.Codes()
			if len(got) == 0 {
				got = nil
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("want %v, got %v", c.want, iss)
			}
		})
	}
}

func TestOffsetDate(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC) }
	cases := []struct {
		name string
		src  string
		want int
	}{
		{"equal after offset", `{"id":"d","type":"Date","minimum":{"value":"2020-01","offset_by":{"months":1}},"maximum":{"value":"2020-02"}}`, 1},
		{"strictly less", `{"id":"d","type":"Date","minimum":{"value":"2020-01"},"maximum":{"value":"2020-03-01"}}`, 0},
		{"minimum after maximum", `{"id":"d","type":"Date","minimum":{"value":"2021-01-01"},"maximum":{"value":"2020-12-31"}}`, 1},
		{"now with negative offset", `{"id":"d","type":"Date","minimum":{"value":"now","offset_by":{"years":-1}},"maximum":{"value":"now"}}`, 0},
		{"now beyond literal", `{"id":"d","type":"Date","minimum":{"value":"now"},"maximum":{"value":"2024-06-15"}}`, 1},
		{"reference bounds are ignored", `{"id":"d","type":"Date","minimum":{"value":{"source":"answers","identifier":"x"}},"maximum":{"value":"2000-01-01"}}`, 0},
		{"only one bound", `{"id":"d","type":"Date","minimum":{"value":"2030-01-01"}}`, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			iss := qschema.NewAnswerValidator(answer(t, c.src), qschema.WithNow(clock)).Validate()
			if got := count(iss, qschema.CodeInvalidOffsetDate); got != c.want {
				t.Fatalf("want %d, got %d (%v)", c.want, got, iss)
			}
		})
	}
}

func TestOffsetDate_Unparsable(t *testing.T) {
	a := answer(t, `{"id":"d","type":"Date","minimum":{"value":"soon"},"maximum":{"value":"2020-01"}}`)
	iss := qschema.NewAnswerValidator(a).Validate()
	if count(iss, qschema.CodeInvalidDate) != 1 || count(iss, qschema.CodeInvalidOffsetDate) != 0 {
		t.Fatalf("expected a single invalid date issue, got %v", iss)
	}
}

func TestSuggestionURLValid(t *testing.T) {
	cases := map[string]bool{
		"https://cdn.example.com/lookups/countries.json": true,
		"/lookups/countries.json":                        true,
		"lookups/country-list_v2.json":                   true,
		"~user/list":                                     true,
		"lookups/countries.json?lang=cy":                 true,
		"localhost:8080/lookup":                          true,
		"mailto:ops":                                     true,
		"https:not a path":                               false,
		"not a url":                                      false,
		"https://":                                       false,
		"":                                               false,
	}
	for in, want := range cases {
		if got := qschema.SuggestionURLValid(in); got != want {
			t.Errorf("%q: want %v, got %v", in, want, got)
		}
	}

	a := answer(t, `{"id":"a","type":"TextField","suggestions_url":"not a url"}`)
	if iss := qschema.NewAnswerValidator(a).Validate(); count(iss, qschema.CodeInvalidSuggestionURL) != 1 {
		t.Fatalf("expected invalid suggestion url, got %v", iss)
	}
	// only text fields carry suggestions
	a = answer(t, `{"id":"a","type":"Number","suggestions_url":"not a url"}`)
	if iss := qschema.NewAnswerValidator(a).Validate(); count(iss, qschema.CodeInvalidSuggestionURL) != 0 {
		t.Fatalf("unexpected suggestion url issue, got %v", iss)
	}
}

func TestNumericDefault(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want int
	}{
		{"mandatory with default", `{"id":"n","type":"Number","mandatory":true,"default":0}`, 1},
		{"optional with default", `{"id":"n","type":"Number","mandatory":false,"default":0}`, 0},
		{"mandatory without default", `{"id":"n","type":"Number","mandatory":true}`, 0},
		{"mandatory with null default", `{"id":"n","type":"Number","mandatory":true,"default":null}`, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			iss := qschema.NewAnswerValidator(answer(t, c.src)).Validate()
			if got := count(iss, qschema.CodeDefaultOnMandatory); got != c.want {
				t.Fatalf("want %d, got %d (%v)", c.want, got, iss)
			}
		})
	}
}

func TestNumericSystemLimits(t *testing.T) {
	a := answer(t, `{"id":"n","type":"Number","minimum":{"value":-1000000000},"maximum":{"value":10000000000}}`)
	iss := qschema.NewAnswerValidator(a).Validate()
	want := []string{qschema.CodeMinimumLessThanLimit, qschema.CodeMaximumGreaterThanLimit}
	if got := iss.Codes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("want %v, got %v", want, iss)
	}
	if iss[0].Params["value"] != int64(-1000000000) || iss[0].Params["limit"] != qschema.MinNumber {
		t.Fatalf("unexpected params %+v", iss[0].Params)
	}
	if iss[1].Params["limit"] != qschema.MaxNumber {
		t.Fatalf("unexpected params %+v", iss[1].Params)
	}

	a = answer(t, `{"id":"n","type":"Number","minimum":{"value":-999999999},"maximum":{"value":9999999999}}`)
	if iss := qschema.NewAnswerValidator(a).Validate(); len(iss) != 0 {
		t.Fatalf("limits are inclusive, got %v", iss)
	}
}

func TestValidateNumericTypes_ReferencedDecimals(t *testing.T) {
	a := answer(t, `{"id":"A","type":"Number","minimum":{"value":0},"maximum":{"value":100},"decimal_places":2}`)
	b := answer(t, `{"id":"B","type":"Number","minimum":{"value":{"source":"answers","identifier":"A"}},"maximum":{"value":50},"decimal_places":1}`)
	table := qschema.BuildRangeTable([]*qschema.Answer{a, b})

	iss := qschema.NewAnswerValidator(b).ValidateNumericTypes(table)
	if len(iss) != 1 || iss[0].Code != qschema.CodeReferencedDecimalPlaces {
		t.Fatalf("expected one precision issue, got %v", iss)
	}
	if iss[0].Params["referenced_id"] != "A" {
		t.Fatalf("issue should name A, got %+v", iss[0])
	}
	if iss := qschema.NewAnswerValidator(a).ValidateNumericTypes(table); len(iss) != 0 {
		t.Fatalf("A has no reference issues, got %v", iss)
	}
}

func TestValidateNumericTypes_MaxReferenceDecimals(t *testing.T) {
	a := answer(t, `{"id":"A","type":"Percentage","decimal_places":3}`)
	b := answer(t, `{"id":"B","type":"Percentage","maximum":{"value":{"source":"answers","identifier":"A"}}}`)
	table := qschema.BuildRangeTable([]*qschema.Answer{a, b})
	iss := qschema.NewAnswerValidator(b).ValidateNumericTypes(table)
	if count(iss, qschema.CodeReferencedDecimalPlaces) != 1 {
		t.Fatalf("expected one precision issue, got %v", iss)
	}
}

func TestValidateNumericTypes_DanglingReferenceShortCircuits(t *testing.T) {
	// max below the default min would otherwise be an invalid range
	b := answer(t, `{"id":"B","type":"Number","minimum":{"value":{"source":"answers","identifier":"missing"}},"maximum":{"value":-5}}`)
	table := qschema.BuildRangeTable([]*qschema.Answer{b})

	iss := qschema.NewAnswerValidator(b).ValidateNumericTypes(table)
	if len(iss) != 1 || iss[0].Code != qschema.CodeReferencedAnswerInvalid {
		t.Fatalf("expected exactly one referenced answer issue, got %v", iss)
	}
	want := `The referenced answer "missing" can not be used to set the minimum of answer "B"`
	if iss[0].Message != want {
		t.Fatalf("want %q, got %q", want, iss[0].Message)
	}
}

func TestValidateNumericTypes_InvalidRange(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want int
	}{
		{"max below min", `{"id":"n","type":"Number","minimum":{"value":10},"maximum":{"value":5}}`, 1},
		{"equal bounds", `{"id":"n","type":"Number","minimum":{"value":5},"maximum":{"value":5}}`, 0},
		{"exclusive equal bounds", `{"id":"n","type":"Number","exclusive":true,"minimum":{"value":5},"maximum":{"value":5}}`, 1},
		{"exclusive at 1dp", `{"id":"n","type":"Number","exclusive":true,"decimal_places":1,"minimum":{"value":5},"maximum":{"value":5.5}}`, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			a := answer(t, c.src)
			table := qschema.BuildRangeTable([]*qschema.Answer{a})
			iss := qschema.NewAnswerValidator(a).ValidateNumericTypes(table)
			if got := count(iss, qschema.CodeInvalidRange); got != c.want {
				t.Fatalf("want %d, got %d (%v)", c.want, got, iss)
			}
		})
	}
}

func TestValidateNumericTypes_NonNumericSkipped(t *testing.T) {
	a := answer(t, `{"id":"t","type":"TextField"}`)
	table := qschema.BuildRangeTable([]*qschema.Answer{a})
	if iss := qschema.NewAnswerValidator(a).ValidateNumericTypes(table); len(iss) != 0 {
		t.Fatalf("expected no issues, got %v", iss)
	}
}
