// internal/rules/compile.go
package rules

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

/*
 * Rule decoding from pact document configuration.
 *
 * Two layouts exist:
 *   - v3: {"match": "type", "min": 1} entries inside {"matchers": [...],
 *     "combine": "AND"}.
 *   - v2: a flat object per path, where the kind is implied by the keys
 *     present ({"regex": ...}, {"min": 1}, {"match": "type"}).
 *
 * A "type" entry carrying both min and max decodes to two rules (MinType
 * then MaxType) in the same group.
 *
 * Configuration problems never fail decoding: an unrecognised kind decodes
 * to EqualityRule and a warning is logged.
 */

// RulesFromMap decodes one rule definition. Most definitions yield one rule.
func RulesFromMap(def map[string]any) []MatchingRule {
	match, hasMatch := def["match"].(string)
	if !hasMatch {
		return rulesFromV2Map(def)
	}

	switch strings.ToLower(match) {
	case "regex":
		return []MatchingRule{RegexRule{Pattern: stringField(def, "regex")}}
	case "equality":
		return []MatchingRule{EqualityRule{}}
	case "null":
		return []MatchingRule{NullRule{}}
	case "include":
		return []MatchingRule{IncludeRule{Value: stringField(def, "value")}}
	case "type":
		return typeRules(def)
	case "min":
		if n, ok := intField(def, "min"); ok {
			return []MatchingRule{MinTypeRule{Min: n}}
		}
	case "max":
		if n, ok := intField(def, "max"); ok {
			return []MatchingRule{MaxTypeRule{Max: n}}
		}
	case "number":
		return []MatchingRule{NumberRule{Kind: NumberAny}}
	case "integer":
		return []MatchingRule{NumberRule{Kind: NumberInteger}}
	case "decimal", "real":
		return []MatchingRule{NumberRule{Kind: NumberDecimal}}
	case "date":
		return []MatchingRule{DateRule{Format: formatField(def, "date")}}
	case "time":
		return []MatchingRule{TimeRule{Format: formatField(def, "time")}}
	case "timestamp":
		return []MatchingRule{TimestampRule{Format: formatField(def, "timestamp")}}
	}

	slog.Warn("rules: unrecognised matcher definition, falling back to equality", "definition", def)
	return []MatchingRule{EqualityRule{}}
}

func rulesFromV2Map(def map[string]any) []MatchingRule {
	switch {
	case def["regex"] != nil:
		return []MatchingRule{RegexRule{Pattern: stringField(def, "regex")}}
	case def["min"] != nil || def["max"] != nil:
		return typeRules(def)
	case def["timestamp"] != nil:
		return []MatchingRule{TimestampRule{Format: stringField(def, "timestamp")}}
	case def["time"] != nil:
		return []MatchingRule{TimeRule{Format: stringField(def, "time")}}
	case def["date"] != nil:
		return []MatchingRule{DateRule{Format: stringField(def, "date")}}
	}
	slog.Warn("rules: unrecognised matcher definition, falling back to equality", "definition", def)
	return []MatchingRule{EqualityRule{}}
}

func typeRules(def map[string]any) []MatchingRule {
	var out []MatchingRule
	if n, ok := intField(def, "min"); ok {
		out = append(out, MinTypeRule{Min: n})
	}
	if n, ok := intField(def, "max"); ok {
		out = append(out, MaxTypeRule{Max: n})
	}
	if len(out) == 0 {
		out = append(out, TypeRule{})
	}
	return out
}

// GroupFromMap decodes a v3 {"matchers": [...], "combine": ...} object.
func GroupFromMap(def map[string]any) (RuleGroup, error) {
	raw, ok := def["matchers"].([]any)
	if !ok {
		return RuleGroup{}, fmt.Errorf("matcher group has no matchers list")
	}
	group := RuleGroup{Logic: ParseRuleLogic(stringField(def, "combine"))}
	for i, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			return RuleGroup{}, fmt.Errorf("matcher %d is not an object", i)
		}
		group.Rules = append(group.Rules, RulesFromMap(m)...)
	}
	return group, nil
}

func stringField(def map[string]any, key string) string {
	switch v := def[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatField reads a date-like format, accepting the generic "format" key as well.
func formatField(def map[string]any, key string) string {
	if s := stringField(def, key); s != "" {
		return s
	}
	return stringField(def, "format")
}

func intField(def map[string]any, key string) (int, bool) {
	switch v := def[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}
