package rules

import (
	"encoding/json"
	"reflect"
	"testing"
)

func decodeMap(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("json.Unmarshal(%s): %v", s, err)
	}
	return m
}

func TestRulesFromMap(t *testing.T) {
	tests := []struct {
		name string
		def  string
		want []MatchingRule
	}{
		{name: "regex", def: `{"match":"regex","regex":"\\d+"}`, want: []MatchingRule{RegexRule{Pattern: `\d+`}}},
		{name: "type", def: `{"match":"type"}`, want: []MatchingRule{TypeRule{}}},
		{name: "type with min", def: `{"match":"type","min":1}`, want: []MatchingRule{MinTypeRule{Min: 1}}},
		{name: "type with max", def: `{"match":"type","max":5}`, want: []MatchingRule{MaxTypeRule{Max: 5}}},
		{name: "type with min and max", def: `{"match":"type","min":1,"max":5}`, want: []MatchingRule{MinTypeRule{Min: 1}, MaxTypeRule{Max: 5}}},
		{name: "integer", def: `{"match":"integer"}`, want: []MatchingRule{NumberRule{Kind: NumberInteger}}},
		{name: "decimal", def: `{"match":"decimal"}`, want: []MatchingRule{NumberRule{Kind: NumberDecimal}}},
		{name: "real is decimal", def: `{"match":"real"}`, want: []MatchingRule{NumberRule{Kind: NumberDecimal}}},
		{name: "number", def: `{"match":"number"}`, want: []MatchingRule{NumberRule{Kind: NumberAny}}},
		{name: "date", def: `{"match":"date","date":"yyyy-MM-dd"}`, want: []MatchingRule{DateRule{Format: "yyyy-MM-dd"}}},
		{name: "date with format key", def: `{"match":"date","format":"dd/MM/yyyy"}`, want: []MatchingRule{DateRule{Format: "dd/MM/yyyy"}}},
		{name: "time", def: `{"match":"time","time":"HH:mm"}`, want: []MatchingRule{TimeRule{Format: "HH:mm"}}},
		{name: "timestamp", def: `{"match":"timestamp","timestamp":"yyyy"}`, want: []MatchingRule{TimestampRule{Format: "yyyy"}}},
		{name: "include", def: `{"match":"include","value":"abc"}`, want: []MatchingRule{IncludeRule{Value: "abc"}}},
		{name: "null", def: `{"match":"null"}`, want: []MatchingRule{NullRule{}}},
		{name: "equality", def: `{"match":"equality"}`, want: []MatchingRule{EqualityRule{}}},
		{name: "unknown falls back to equality", def: `{"match":"telepathy"}`, want: []MatchingRule{EqualityRule{}}},
		{name: "v2 regex", def: `{"regex":"x"}`, want: []MatchingRule{RegexRule{Pattern: "x"}}},
		{name: "v2 min", def: `{"min":2}`, want: []MatchingRule{MinTypeRule{Min: 2}}},
		{name: "v2 timestamp", def: `{"timestamp":"yyyy"}`, want: []MatchingRule{TimestampRule{Format: "yyyy"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RulesFromMap(decodeMap(t, tt.def))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RulesFromMap(%s) = %#v, want %#v", tt.def, got, tt.want)
			}
		})
	}
}

func TestGroupFromMap(t *testing.T) {
	group, err := GroupFromMap(decodeMap(t, `{"matchers":[{"match":"regex","regex":"a"},{"match":"null"}],"combine":"OR"}`))
	if err != nil {
		t.Fatalf("GroupFromMap() error = %v, want nil", err)
	}
	if group.Logic != LogicOr {
		t.Errorf("Logic = %v, want OR", group.Logic)
	}
	if len(group.Rules) != 2 {
		t.Errorf("len(Rules) = %d, want 2", len(group.Rules))
	}

	if _, err := GroupFromMap(decodeMap(t, `{"combine":"AND"}`)); err == nil {
		t.Errorf("GroupFromMap() without matchers error = nil, want error")
	}
	if _, err := GroupFromMap(decodeMap(t, `{"matchers":["nope"]}`)); err == nil {
		t.Errorf("GroupFromMap() with non-object matcher error = nil, want error")
	}
}

func TestRuleToMapRoundTrip(t *testing.T) {
	rules := []MatchingRule{
		RegexRule{Pattern: "x"}, TypeRule{}, MinTypeRule{Min: 1}, MaxTypeRule{Max: 3},
		NumberRule{Kind: NumberInteger}, DateRule{Format: "yyyy"}, TimeRule{Format: "HH"},
		TimestampRule{Format: "yyyy"}, IncludeRule{Value: "v"}, NullRule{}, EqualityRule{},
	}
	for _, r := range rules {
		got := RulesFromMap(r.ToMap())
		if len(got) != 1 || !reflect.DeepEqual(got[0], r) {
			t.Errorf("RulesFromMap(%v.ToMap()) = %#v, want %#v", r, got, r)
		}
	}
}
