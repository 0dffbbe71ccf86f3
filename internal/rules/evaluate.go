// internal/rules/evaluate.go
package rules

import (
	"github.com/solatis/pactkeeper/internal/javatime"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Rule evaluation.
 *
 * Match dispatches a single rule over the closed rule set. MatchGroup
 * combines a group's rules:
 *   - AND: every rule runs; all mismatches are concatenated in rule order.
 *   - OR: every rule runs; if any returned no mismatches the group passes,
 *     otherwise all mismatches are concatenated.
 *
 * Evaluation is pure apart from debug logging and the regex cache, so it is
 * safe to call from concurrent request handlers.
 */

// Match applies one rule to actual at path and returns the mismatches.
func Match[M any](rule MatchingRule, path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	switch r := rule.(type) {
	case RegexRule:
		return matchRegex(r.Pattern, path, expected, actual, factory)
	case TypeRule:
		return matchType(path, expected, actual, factory)
	case MinTypeRule:
		return matchMinType(r.Min, path, expected, actual, factory)
	case MaxTypeRule:
		return matchMaxType(r.Max, path, expected, actual, factory)
	case NumberRule:
		return matchNumber(r.Kind, path, expected, actual, factory)
	case DateRule:
		return matchPattern("date", orDefault(r.Format, javatime.DefaultDatePattern), path, expected, actual, factory)
	case TimeRule:
		return matchPattern("time", orDefault(r.Format, javatime.DefaultTimePattern), path, expected, actual, factory)
	case TimestampRule:
		return matchPattern("timestamp", orDefault(r.Format, javatime.DefaultTimestampPattern), path, expected, actual, factory)
	case IncludeRule:
		return matchInclude(r.Value, path, expected, actual, factory)
	case NullRule:
		return matchNull(path, actual, factory)
	default:
		return matchEquality(path, expected, actual, factory)
	}
}

// MatchGroup applies every rule of group and combines the results by its logic.
func MatchGroup[M any](group RuleGroup, path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	var all []M
	anyPassed := false
	for _, rule := range group.Rules {
		mismatches := Match(rule, path, expected, actual, factory)
		if len(mismatches) == 0 {
			anyPassed = true
		}
		all = append(all, mismatches...)
	}

	if group.Logic == LogicOr && anyPassed {
		return nil
	}
	return all
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
