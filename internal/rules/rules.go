// internal/rules/rules.go
package rules

import (
	"fmt"
	"strings"
)

/*
 * Matching rule variants.
 *
 * MatchingRule is a closed set: every rule kind is a concrete struct in this
 * file and Match dispatches over them exhaustively. Rules are plain values;
 * they carry configuration only and no compiled state.
 *
 * A RuleGroup combines rules under AND (every mismatch is reported) or OR
 * (passes if any rule passes).
 */

// MatchingRule is one matching rule.
type MatchingRule interface {
	// Name is the "match" value used in pact documents.
	Name() string
	// ToMap renders the rule in pact v3 layout.
	ToMap() map[string]any
	isRule()
}

// RegexRule requires the actual value's string form to fully match Pattern.
type RegexRule struct {
	Pattern string
}

// TypeRule requires the actual value to have the expected value's kind.
type TypeRule struct{}

// MinTypeRule requires at least Min list entries or element children.
type MinTypeRule struct {
	Min int
}

// MaxTypeRule allows at most Max list entries or element children.
type MaxTypeRule struct {
	Max int
}

// NumberKind selects the numeric subtype checked by NumberRule.
type NumberKind int

const (
	NumberAny NumberKind = iota
	NumberInteger
	NumberDecimal
)

// String returns the pact name of the subtype.
func (k NumberKind) String() string {
	switch k {
	case NumberInteger:
		return "integer"
	case NumberDecimal:
		return "decimal"
	default:
		return "number"
	}
}

// NumberRule requires a number of the given subtype.
type NumberRule struct {
	Kind NumberKind
}

// DateRule requires the actual value to parse with a Java date pattern.
type DateRule struct {
	Format string
}

// TimeRule requires the actual value to parse with a Java time pattern.
type TimeRule struct {
	Format string
}

// TimestampRule requires the actual value to parse with a Java timestamp pattern.
type TimestampRule struct {
	Format string
}

// IncludeRule requires the actual value's string form to contain Value.
type IncludeRule struct {
	Value string
}

// NullRule requires a null actual value.
type NullRule struct{}

// EqualityRule requires structural equality.
type EqualityRule struct{}

func (RegexRule) isRule()     {}
func (TypeRule) isRule()      {}
func (MinTypeRule) isRule()   {}
func (MaxTypeRule) isRule()   {}
func (NumberRule) isRule()    {}
func (DateRule) isRule()      {}
func (TimeRule) isRule()      {}
func (TimestampRule) isRule() {}
func (IncludeRule) isRule()   {}
func (NullRule) isRule()      {}
func (EqualityRule) isRule()  {}

func (RegexRule) Name() string     { return "regex" }
func (TypeRule) Name() string      { return "type" }
func (MinTypeRule) Name() string   { return "type" }
func (MaxTypeRule) Name() string   { return "type" }
func (r NumberRule) Name() string  { return r.Kind.String() }
func (DateRule) Name() string      { return "date" }
func (TimeRule) Name() string      { return "time" }
func (TimestampRule) Name() string { return "timestamp" }
func (IncludeRule) Name() string   { return "include" }
func (NullRule) Name() string      { return "null" }
func (EqualityRule) Name() string  { return "equality" }

func (r RegexRule) ToMap() map[string]any {
	return map[string]any{"match": "regex", "regex": r.Pattern}
}
func (TypeRule) ToMap() map[string]any { return map[string]any{"match": "type"} }
func (r MinTypeRule) ToMap() map[string]any {
	return map[string]any{"match": "type", "min": r.Min}
}
func (r MaxTypeRule) ToMap() map[string]any {
	return map[string]any{"match": "type", "max": r.Max}
}
func (r NumberRule) ToMap() map[string]any { return map[string]any{"match": r.Kind.String()} }
func (r DateRule) ToMap() map[string]any {
	return map[string]any{"match": "date", "date": r.Format}
}
func (r TimeRule) ToMap() map[string]any {
	return map[string]any{"match": "time", "time": r.Format}
}
func (r TimestampRule) ToMap() map[string]any {
	return map[string]any{"match": "timestamp", "timestamp": r.Format}
}
func (r IncludeRule) ToMap() map[string]any {
	return map[string]any{"match": "include", "value": r.Value}
}
func (NullRule) ToMap() map[string]any     { return map[string]any{"match": "null"} }
func (EqualityRule) ToMap() map[string]any { return map[string]any{"match": "equality"} }

// RuleLogic combines the rules of a group.
type RuleLogic int

const (
	LogicAnd RuleLogic = iota
	LogicOr
)

// String returns "AND" or "OR".
func (l RuleLogic) String() string {
	if l == LogicOr {
		return "OR"
	}
	return "AND"
}

// ParseRuleLogic accepts "AND"/"OR" case-insensitively. Anything else is AND.
func ParseRuleLogic(s string) RuleLogic {
	if strings.EqualFold(s, "OR") {
		return LogicOr
	}
	return LogicAnd
}

// RuleGroup is an ordered list of rules combined by Logic.
type RuleGroup struct {
	Rules []MatchingRule
	Logic RuleLogic
}

// NewRuleGroup creates an AND group.
func NewRuleGroup(rules ...MatchingRule) RuleGroup {
	return RuleGroup{Rules: rules, Logic: LogicAnd}
}

// IsEmpty reports whether the group holds no rules.
func (g RuleGroup) IsEmpty() bool { return len(g.Rules) == 0 }

// ToMap renders the group in pact v3 layout.
func (g RuleGroup) ToMap() map[string]any {
	matchers := make([]any, 0, len(g.Rules))
	for _, r := range g.Rules {
		matchers = append(matchers, r.ToMap())
	}
	return map[string]any{"matchers": matchers, "combine": g.Logic.String()}
}

// String renders the group for diagnostics.
func (g RuleGroup) String() string {
	names := make([]string, 0, len(g.Rules))
	for _, r := range g.Rules {
		names = append(names, fmt.Sprintf("%s%v", r.Name(), ruleArgs(r)))
	}
	return strings.Join(names, " "+g.Logic.String()+" ")
}

func ruleArgs(r MatchingRule) string {
	switch x := r.(type) {
	case RegexRule:
		return "(" + x.Pattern + ")"
	case MinTypeRule:
		return fmt.Sprintf("(min=%d)", x.Min)
	case MaxTypeRule:
		return fmt.Sprintf("(max=%d)", x.Max)
	case DateRule:
		return "(" + x.Format + ")"
	case TimeRule:
		return "(" + x.Format + ")"
	case TimestampRule:
		return "(" + x.Format + ")"
	case IncludeRule:
		return "(" + x.Value + ")"
	default:
		return ""
	}
}
