// internal/rules/operators.go
package rules

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/solatis/pactkeeper/internal/javatime"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Per-rule comparison logic.
 *
 * One function per rule kind. Each returns zero mismatches on success or
 * exactly one on failure, built through the caller's factory. Every check
 * logs the comparison at debug level.
 *
 * Regex patterns use Java-compatible syntax (regexp2) and must match the
 * whole string. Compiled patterns are cached process-wide; regexp2 values
 * are safe for concurrent matching.
 */

const regexMatchTimeout = time.Second

var regexCache sync.Map // pattern -> *regexp2.Regexp

func compileRegex(pattern string) (*regexp2.Regexp, error) {
	if re, ok := regexCache.Load(pattern); ok {
		return re.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(`\A(?:`+pattern+`)\z`, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = regexMatchTimeout
	actual, _ := regexCache.LoadOrStore(pattern, re)
	return actual.(*regexp2.Regexp), nil
}

// MatchesRegex reports whether s fully matches pattern.
func MatchesRegex(pattern, s string) (bool, error) {
	re, err := compileRegex(pattern)
	if err != nil {
		return false, err
	}
	return re.MatchString(s)
}

func one[M any](factory MismatchFactory[M], expected, actual types.Value, description string, path []string) []M {
	return []M{factory.Create(expected, actual, description, path)}
}

func matchRegex[M any](pattern string, path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	if bothLists(expected, actual) || bothMaps(expected, actual) {
		return nil
	}
	matches, err := MatchesRegex(pattern, SafeToString(actual))
	slog.Debug("rules: comparing with regexp", "actual", ValueOf(actual), "regex", pattern, "path", path, "matches", matches)
	if err != nil {
		return one(factory, expected, actual, fmt.Sprintf("Expected %s to match '%s': %v", ValueOf(actual), pattern, err), path)
	}
	if matches {
		return nil
	}
	return one(factory, expected, actual, fmt.Sprintf("Expected %s to match '%s'", ValueOf(actual), pattern), path)
}

func matchType[M any](path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	slog.Debug("rules: comparing type", "actual", ValueOf(actual), "expected", ValueOf(expected), "path", path)
	switch {
	case sameType(expected, actual):
		return nil
	case types.IsNull(expected):
		if types.IsNull(actual) {
			return nil
		}
		return one(factory, expected, actual, fmt.Sprintf("Expected %s to be null", ValueOf(actual)), path)
	default:
		return one(factory, expected, actual,
			fmt.Sprintf("Expected %s to be the same type as %s", ValueOf(actual), ValueOf(expected)), path)
	}
}

func matchNumber[M any](kind NumberKind, path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	if types.IsNull(expected) && !types.IsNull(actual) {
		return one(factory, expected, actual, fmt.Sprintf("Expected %s to be null", ValueOf(actual)), path)
	}
	slog.Debug("rules: comparing number subtype", "actual", ValueOf(actual), "kind", kind.String(), "path", path)

	n, isNumber := actual.(types.Number)
	switch kind {
	case NumberInteger:
		if !isNumber || !n.IsIntegral() {
			return one(factory, expected, actual, fmt.Sprintf("Expected %s to be an integer", ValueOf(actual)), path)
		}
	case NumberDecimal:
		if !isNumber || n.IsIntegral() {
			return one(factory, expected, actual, fmt.Sprintf("Expected %s to be a decimal number", ValueOf(actual)), path)
		}
	default:
		if !isNumber {
			return one(factory, expected, actual, fmt.Sprintf("Expected %s to be a number", ValueOf(actual)), path)
		}
	}
	return nil
}

// matchPattern backs the date, time and timestamp rules; what names the rule in the message.
func matchPattern[M any](what, pattern string, path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	slog.Debug("rules: comparing with "+what+" pattern", "actual", ValueOf(actual), "pattern", pattern, "path", path)
	if _, err := javatime.Parse(pattern, SafeToString(actual)); err != nil {
		return one(factory, expected, actual,
			fmt.Sprintf("Expected %s to match a %s of '%s': %v", ValueOf(actual), what, pattern, err), path)
	}
	return nil
}

func matchMinType[M any](minimum int, path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	slog.Debug("rules: comparing with minimum", "actual", ValueOf(actual), "min", minimum, "path", path)
	size, ok := countedSize(actual)
	if !ok {
		return matchType(path, expected, actual, factory)
	}
	if size < minimum {
		return one(factory, expected, actual, fmt.Sprintf("Expected %s to have minimum %d", ValueOf(actual), minimum), path)
	}
	return nil
}

func matchMaxType[M any](maximum int, path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	slog.Debug("rules: comparing with maximum", "actual", ValueOf(actual), "max", maximum, "path", path)
	size, ok := countedSize(actual)
	if !ok {
		return matchType(path, expected, actual, factory)
	}
	if size > maximum {
		return one(factory, expected, actual, fmt.Sprintf("Expected %s to have maximum %d", ValueOf(actual), maximum), path)
	}
	return nil
}

func matchInclude[M any](included string, path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	matches := strings.Contains(SafeToString(actual), included)
	slog.Debug("rules: comparing include", "actual", ValueOf(actual), "value", included, "path", path, "matches", matches)
	if matches {
		return nil
	}
	return one(factory, expected, actual, fmt.Sprintf("Expected %s to include %s", ValueOf(actual), quote(included)), path)
}

func matchNull[M any](path []string, actual types.Value, factory MismatchFactory[M]) []M {
	matches := types.IsNull(actual)
	slog.Debug("rules: comparing to null", "actual", ValueOf(actual), "path", path, "matches", matches)
	if matches {
		return nil
	}
	return one(factory, types.Null{}, actual, fmt.Sprintf("Expected %s to be null", ValueOf(actual)), path)
}

func matchEquality[M any](path []string, expected, actual types.Value, factory MismatchFactory[M]) []M {
	matches := types.Equal(expected, actual)
	slog.Debug("rules: comparing equality", "actual", ValueOf(actual), "expected", ValueOf(expected), "path", path, "matches", matches)
	if matches {
		return nil
	}
	return one(factory, expected, actual, fmt.Sprintf("Expected %s to equal %s", ValueOf(actual), ValueOf(expected)), path)
}
