// internal/rules/coercion.go
package rules

import (
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Value rendering and kind classification for rule evaluation.
 *
 * Two renderings are used:
 *   - SafeToString: the string a regex, include or date rule inspects.
 *     Null renders as "", elements render as their text content.
 *   - ValueOf: the rendering used inside mismatch messages. Strings are
 *     single-quoted, null renders as "null".
 *
 * Kind classes for TypeRule: numbers match numbers regardless of subtype,
 * elements match only when their tag names agree.
 */

// SafeToString renders v for content-inspecting rules.
func SafeToString(v types.Value) string {
	switch x := v.(type) {
	case nil, types.Null:
		return ""
	case *types.Element:
		return x.Text()
	default:
		return v.Text()
	}
}

// ValueOf renders v for mismatch messages.
func ValueOf(v types.Value) string {
	switch x := v.(type) {
	case nil, types.Null:
		return "null"
	case types.String:
		return "'" + string(x) + "'"
	case *types.Element:
		out, err := types.EncodeXML(x)
		if err != nil {
			return "<" + x.Name + ">"
		}
		return string(out)
	default:
		return v.Text()
	}
}

// quote renders a raw string the way ValueOf renders a String value.
func quote(s string) string {
	return ValueOf(types.String(s))
}

// sameType reports whether actual has the same kind class as expected.
func sameType(expected, actual types.Value) bool {
	if types.IsNull(expected) || types.IsNull(actual) {
		return false
	}
	if expected.Kind() != actual.Kind() {
		return false
	}
	if e, ok := expected.(*types.Element); ok {
		return e.Name == actual.(*types.Element).Name
	}
	return true
}

// bothLists reports whether expected and actual are both lists.
func bothLists(expected, actual types.Value) bool {
	_, e := expected.(*types.List)
	_, a := actual.(*types.List)
	return e && a
}

// bothMaps reports whether expected and actual are both maps.
func bothMaps(expected, actual types.Value) bool {
	_, e := expected.(*types.Map)
	_, a := actual.(*types.Map)
	return e && a
}

// countedSize returns the size checked by min/max rules: list entries or
// element children. Other values report false and fall back to a type check.
func countedSize(v types.Value) (int, bool) {
	switch x := v.(type) {
	case *types.List:
		return x.Len(), true
	case *types.Element:
		return len(x.Children), true
	default:
		return 0, false
	}
}
