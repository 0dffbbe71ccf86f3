// internal/rules/evaluate_test.go
package rules

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/pactkeeper/internal/types"
)

type testMismatch struct {
	Expected    types.Value
	Actual      types.Value
	Description string
	Path        []string
}

var testFactory = FactoryFunc[testMismatch](func(expected, actual types.Value, description string, path []string) testMismatch {
	return testMismatch{Expected: expected, Actual: actual, Description: description, Path: path}
})

func value(t *testing.T, s string) types.Value {
	t.Helper()
	v, err := types.DecodeJSON([]byte(s))
	if err != nil {
		t.Fatalf("DecodeJSON(%s): %v", s, err)
	}
	return v
}

func TestMatch_Rules(t *testing.T) {
	tests := []struct {
		name     string
		rule     MatchingRule
		expected string
		actual   string
		wantDesc string // empty means the rule passes
	}{
		{name: "regex pass", rule: RegexRule{Pattern: `\d+`}, expected: `"1"`, actual: `"12345"`},
		{name: "regex must match whole string", rule: RegexRule{Pattern: `\d+`}, expected: `"1"`, actual: `"12a"`, wantDesc: `Expected '12a' to match '\d+'`},
		{name: "regex on number", rule: RegexRule{Pattern: `\d+`}, expected: `1`, actual: `42`},
		{name: "regex on null", rule: RegexRule{Pattern: `.+`}, expected: `"x"`, actual: `null`, wantDesc: `Expected null to match '.+'`},
		{name: "regex lists pass", rule: RegexRule{Pattern: `x`}, expected: `[1]`, actual: `[2,3]`},
		{name: "regex maps pass", rule: RegexRule{Pattern: `x`}, expected: `{"a":1}`, actual: `{"b":2}`},
		{name: "regex lookahead", rule: RegexRule{Pattern: `(?=.*\d)[a-z0-9]+`}, expected: `"a1"`, actual: `"abc1"`},

		{name: "type string", rule: TypeRule{}, expected: `"a"`, actual: `"b"`},
		{name: "type int vs decimal", rule: TypeRule{}, expected: `1`, actual: `2.5`},
		{name: "type mismatch", rule: TypeRule{}, expected: `1`, actual: `"x"`, wantDesc: `Expected 'x' to be the same type as 1`},
		{name: "type expected null", rule: TypeRule{}, expected: `null`, actual: `1`, wantDesc: `Expected 1 to be null`},
		{name: "type both null", rule: TypeRule{}, expected: `null`, actual: `null`},
		{name: "type map", rule: TypeRule{}, expected: `{"a":1}`, actual: `{}`},

		{name: "min type pass", rule: MinTypeRule{Min: 2}, expected: `[1]`, actual: `[1,2]`},
		{name: "min type fail", rule: MinTypeRule{Min: 2}, expected: `[1]`, actual: `[1]`, wantDesc: `Expected [1] to have minimum 2`},
		{name: "min type scalar falls back", rule: MinTypeRule{Min: 2}, expected: `1`, actual: `"x"`, wantDesc: `Expected 'x' to be the same type as 1`},
		{name: "max type pass", rule: MaxTypeRule{Max: 2}, expected: `[1]`, actual: `[1,2]`},
		{name: "max type fail", rule: MaxTypeRule{Max: 1}, expected: `[1]`, actual: `[1,2]`, wantDesc: `Expected [1,2] to have maximum 1`},

		{name: "number", rule: NumberRule{Kind: NumberAny}, expected: `1`, actual: `1.5`},
		{name: "number fail", rule: NumberRule{Kind: NumberAny}, expected: `1`, actual: `"1"`, wantDesc: `Expected '1' to be a number`},
		{name: "integer", rule: NumberRule{Kind: NumberInteger}, expected: `1`, actual: `-7`},
		{name: "integer fail", rule: NumberRule{Kind: NumberInteger}, expected: `1`, actual: `1.5`, wantDesc: `Expected 1.5 to be an integer`},
		{name: "decimal", rule: NumberRule{Kind: NumberDecimal}, expected: `1.1`, actual: `2.25`},
		{name: "decimal fail", rule: NumberRule{Kind: NumberDecimal}, expected: `1.1`, actual: `2`, wantDesc: `Expected 2 to be a decimal number`},
		{name: "number expected null", rule: NumberRule{Kind: NumberAny}, expected: `null`, actual: `2`, wantDesc: `Expected 2 to be null`},

		{name: "date", rule: DateRule{Format: "yyyy-MM-dd"}, expected: `"2000-01-01"`, actual: `"2024-02-29"`},
		{name: "time", rule: TimeRule{Format: "HH:mm"}, expected: `"10:00"`, actual: `"23:59"`},
		{name: "timestamp default", rule: TimestampRule{}, expected: `"x"`, actual: `"2024-02-29T10:00:00Z"`},

		{name: "include", rule: IncludeRule{Value: "ell"}, expected: `"x"`, actual: `"hello"`},
		{name: "include fail", rule: IncludeRule{Value: "xyz"}, expected: `"x"`, actual: `"hello"`, wantDesc: `Expected 'hello' to include 'xyz'`},
		{name: "include number", rule: IncludeRule{Value: "23"}, expected: `1`, actual: `1234`},

		{name: "null", rule: NullRule{}, expected: `1`, actual: `null`},
		{name: "null fail", rule: NullRule{}, expected: `null`, actual: `"x"`, wantDesc: `Expected 'x' to be null`},

		{name: "equality", rule: EqualityRule{}, expected: `{"a":[1,2]}`, actual: `{"a":[1,2]}`},
		{name: "equality fail names expected", rule: EqualityRule{}, expected: `"a"`, actual: `"b"`, wantDesc: `Expected 'b' to equal 'a'`},
		{name: "equality null vs value", rule: EqualityRule{}, expected: `null`, actual: `1`, wantDesc: `Expected 1 to equal null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := []string{"$", "field"}
			got := Match(tt.rule, path, value(t, tt.expected), value(t, tt.actual), testFactory)
			if tt.wantDesc == "" {
				if len(got) != 0 {
					t.Fatalf("Match() = %+v, want no mismatches", got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("Match() returned %d mismatches, want 1", len(got))
			}
			if got[0].Description != tt.wantDesc {
				t.Errorf("Description = %q, want %q", got[0].Description, tt.wantDesc)
			}
			if types.JoinPath(got[0].Path) != "$.field" {
				t.Errorf("Path = %v, want [$ field]", got[0].Path)
			}
		})
	}
}

func TestMatch_DateFailureCarriesParseError(t *testing.T) {
	got := Match(DateRule{Format: "yyyy-MM-dd"}, []string{"$"}, types.String("2000-01-01"), types.String("not a date"), testFactory)
	if len(got) != 1 {
		t.Fatalf("Match() returned %d mismatches, want 1", len(got))
	}
	const prefix = "Expected 'not a date' to match a date of 'yyyy-MM-dd': "
	if len(got[0].Description) <= len(prefix) || got[0].Description[:len(prefix)] != prefix {
		t.Errorf("Description = %q, want prefix %q", got[0].Description, prefix)
	}
}

func TestMatch_InvalidRegexIsMismatch(t *testing.T) {
	got := Match(RegexRule{Pattern: `(`}, []string{"$"}, types.String("a"), types.String("a"), testFactory)
	if len(got) != 1 {
		t.Fatalf("Match() returned %d mismatches, want 1", len(got))
	}
}

func TestMatch_ElementRules(t *testing.T) {
	expected, err := types.DecodeXML([]byte(`<items><item/></items>`))
	if err != nil {
		t.Fatal(err)
	}
	actual, err := types.DecodeXML([]byte(`<items><item/><item/><item/></items>`))
	if err != nil {
		t.Fatal(err)
	}
	other, err := types.DecodeXML([]byte(`<other/>`))
	if err != nil {
		t.Fatal(err)
	}

	if got := Match(MinTypeRule{Min: 2}, []string{"$"}, expected, actual, testFactory); len(got) != 0 {
		t.Errorf("MinType(2) on 3 children = %+v, want pass", got)
	}
	if got := Match(MaxTypeRule{Max: 2}, []string{"$"}, expected, actual, testFactory); len(got) != 1 {
		t.Errorf("MaxType(2) on 3 children returned %d mismatches, want 1", len(got))
	}
	if got := Match(TypeRule{}, []string{"$"}, expected, actual, testFactory); len(got) != 0 {
		t.Errorf("Type on same tag = %+v, want pass", got)
	}
	if got := Match(TypeRule{}, []string{"$"}, expected, other, testFactory); len(got) != 1 {
		t.Errorf("Type on different tag returned %d mismatches, want 1", len(got))
	}
}

func TestMatchGroup_Logic(t *testing.T) {
	failing := RegexRule{Pattern: `[a-z]+`}
	passing := NumberRule{Kind: NumberInteger}
	alsoFailing := NullRule{}

	tests := []struct {
		name  string
		group RuleGroup
		want  int
	}{
		{name: "AND all pass", group: RuleGroup{Rules: []MatchingRule{passing, TypeRule{}}, Logic: LogicAnd}, want: 0},
		{name: "AND one fails", group: RuleGroup{Rules: []MatchingRule{passing, failing}, Logic: LogicAnd}, want: 1},
		{name: "AND unions mismatches", group: RuleGroup{Rules: []MatchingRule{failing, alsoFailing}, Logic: LogicAnd}, want: 2},
		{name: "OR any passes", group: RuleGroup{Rules: []MatchingRule{failing, passing}, Logic: LogicOr}, want: 0},
		{name: "OR none passes", group: RuleGroup{Rules: []MatchingRule{failing, alsoFailing}, Logic: LogicOr}, want: 2},
		{name: "empty group", group: RuleGroup{}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchGroup(tt.group, []string{"$", "id"}, types.Int(1), types.Int(42), testFactory)
			if len(got) != tt.want {
				t.Errorf("MatchGroup() returned %d mismatches, want %d: %+v", len(got), tt.want, got)
			}
		})
	}
}

// A type rule on {"a":1} vs {"a":"x"} at $.a yields exactly one mismatch at that path.
func TestMatch_TypeMismatchScenario(t *testing.T) {
	expected := value(t, `{"a":1}`).(*types.Map)
	actual := value(t, `{"a":"x"}`).(*types.Map)
	e, _ := expected.Get("a")
	a, _ := actual.Get("a")

	got := Match(TypeRule{}, []string{"$", "a"}, e, a, testFactory)
	if len(got) != 1 {
		t.Fatalf("Match() returned %d mismatches, want 1", len(got))
	}
	if types.JoinPath(got[0].Path) != "$.a" {
		t.Errorf("Path = %v, want $.a", got[0].Path)
	}
}

// Property: an OR group never reports more mismatches than the AND group over the same rules,
// and reports none whenever the AND group reports none.
func TestProperty_OrNoStricterThanAnd(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	pool := []MatchingRule{
		TypeRule{}, NumberRule{Kind: NumberInteger}, NumberRule{Kind: NumberDecimal},
		RegexRule{Pattern: `\d+`}, NullRule{}, IncludeRule{Value: "1"}, EqualityRule{},
	}

	properties.Property("OR is no stricter than AND", prop.ForAll(
		func(picks []int, n int) bool {
			var rs []MatchingRule
			for _, p := range picks {
				rs = append(rs, pool[p])
			}
			actual := types.Int(int64(n))
			and := MatchGroup(RuleGroup{Rules: rs, Logic: LogicAnd}, []string{"$"}, types.Int(1), actual, testFactory)
			or := MatchGroup(RuleGroup{Rules: rs, Logic: LogicOr}, []string{"$"}, types.Int(1), actual, testFactory)
			if len(or) > len(and) {
				return false
			}
			return len(and) != 0 || len(or) == 0
		},
		gen.SliceOf(gen.IntRange(0, len(pool)-1)),
		gen.IntRange(-100, 100),
	))

	properties.TestingRun(t)
}
