// internal/verification/body.go
package verification

import (
	"fmt"
	"strconv"

	"github.com/solatis/pactkeeper/internal/rules"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Body comparison.
 *
 * JSON bodies are compared as trees. At each node the best matching body
 * rule (if any) is applied first; collections are then descended so rules
 * declared deeper still apply:
 *   - maps: every expected key must be present; keys the expectation does
 *     not name are reported unless allowUnexpected is set.
 *   - lists: with a rule on the list every actual element is compared to the
 *     first expected element; without one, sizes must agree and elements
 *     are compared by index.
 *   - scalars: the rule decides, or equality when no rule applies.
 *
 * XML bodies follow the same pattern over elements, attributes and text.
 * Other content types compare as text.
 */

// CompareBody compares an actual body against the expected one.
// allowUnexpected permits map keys absent from the expectation (response bodies).
func CompareBody(expected, actual types.OptionalBody, contentType types.ContentType, mr *rules.MatchingRules, allowUnexpected bool) []BodyMismatch {
	if expected.IsMissing() {
		return nil
	}
	if !expected.IsPresent() {
		if actual.IsPresent() && expected.State == types.BodyNull {
			return []BodyMismatch{{Path: "$", Message: fmt.Sprintf("Expected an empty body but received '%s'", actual.String())}}
		}
		return nil
	}
	if !actual.IsPresent() {
		return []BodyMismatch{{
			Expected: types.String(expected.String()),
			Path:     "$",
			Message:  fmt.Sprintf("Expected body '%s' but was missing", expected.String()),
		}}
	}

	switch {
	case contentType.IsJSON():
		return compareJSONBody(expected, actual, mr, allowUnexpected)
	case contentType.IsXML():
		return compareXMLBody(expected, actual, mr, allowUnexpected)
	default:
		return compareTextBody(expected, actual, mr)
	}
}

func compareJSONBody(expected, actual types.OptionalBody, mr *rules.MatchingRules, allowUnexpected bool) []BodyMismatch {
	exp, err := types.DecodeJSON(expected.Value)
	if err != nil {
		return []BodyMismatch{{Path: "$", Message: fmt.Sprintf("Failed to parse the expected body: %v", err)}}
	}
	act, err := types.DecodeJSON(actual.Value)
	if err != nil {
		return []BodyMismatch{{
			Expected: exp,
			Path:     "$",
			Message:  fmt.Sprintf("Failed to parse the actual body: %v", err),
		}}
	}
	c := bodyComparer{rules: mr, allowUnexpected: allowUnexpected, factory: BodyMismatchFactory}
	return c.compare([]string{"$"}, exp, act)
}

type bodyComparer struct {
	rules           *rules.MatchingRules
	allowUnexpected bool
	factory         rules.MismatchFactory[BodyMismatch]
}

func (c bodyComparer) group(path []string) (rules.RuleGroup, bool) {
	g, ok := c.rules.Resolve(rules.CategoryBody, path)
	if !ok || g.IsEmpty() {
		return rules.RuleGroup{}, false
	}
	return g, true
}

func (c bodyComparer) compare(path []string, expected, actual types.Value) []BodyMismatch {
	if len(path) > types.MaxDocumentDepth {
		return []BodyMismatch{c.factory.Create(expected, actual, "Document nesting exceeds the maximum depth", path)}
	}
	group, hasRule := c.group(path)

	switch exp := expected.(type) {
	case *types.Map:
		act, ok := actual.(*types.Map)
		if !ok {
			if hasRule {
				return rules.MatchGroup(group, path, expected, actual, c.factory)
			}
			return []BodyMismatch{c.factory.Create(expected, actual,
				fmt.Sprintf("Type mismatch: Expected %s to be a map", rules.ValueOf(actual)), path)}
		}
		var out []BodyMismatch
		if hasRule {
			out = append(out, rules.MatchGroup(group, path, expected, actual, c.factory)...)
		}
		return append(out, c.compareMaps(path, exp, act, hasRule)...)

	case *types.List:
		act, ok := actual.(*types.List)
		if !ok {
			if hasRule {
				return rules.MatchGroup(group, path, expected, actual, c.factory)
			}
			return []BodyMismatch{c.factory.Create(expected, actual,
				fmt.Sprintf("Type mismatch: Expected %s to be a list", rules.ValueOf(actual)), path)}
		}
		if hasRule {
			out := rules.MatchGroup(group, path, expected, actual, c.factory)
			return append(out, c.compareEach(path, exp, act)...)
		}
		return c.compareLists(path, exp, act)

	default:
		if hasRule {
			return rules.MatchGroup(group, path, expected, actual, c.factory)
		}
		return rules.Match(rules.EqualityRule{}, path, expected, actual, c.factory)
	}
}

func (c bodyComparer) compareMaps(path []string, expected, actual *types.Map, typeMatched bool) []BodyMismatch {
	var out []BodyMismatch
	for _, k := range expected.Keys() {
		ev, _ := expected.Get(k)
		av, ok := actual.Get(k)
		if !ok {
			out = append(out, c.factory.Create(expected, actual,
				fmt.Sprintf("Expected %s=%s but was missing", k, rules.ValueOf(ev)), path))
			continue
		}
		out = append(out, c.compare(appendPath(path, k), ev, av)...)
	}
	if c.allowUnexpected || typeMatched {
		return out
	}
	for _, k := range actual.Keys() {
		if _, ok := expected.Get(k); !ok {
			av, _ := actual.Get(k)
			out = append(out, c.factory.Create(expected, actual,
				fmt.Sprintf("Unexpected key %s=%s", k, rules.ValueOf(av)), path))
		}
	}
	return out
}

func (c bodyComparer) compareLists(path []string, expected, actual *types.List) []BodyMismatch {
	var out []BodyMismatch
	if expected.Len() != actual.Len() {
		out = append(out, c.factory.Create(expected, actual,
			fmt.Sprintf("Expected a List with %d elements but received %d elements", expected.Len(), actual.Len()), path))
	}
	for i := 0; i < min(expected.Len(), actual.Len()); i++ {
		out = append(out, c.compare(appendPath(path, strconv.Itoa(i)), expected.Items[i], actual.Items[i])...)
	}
	return out
}

// compareEach compares every actual element against the first expected element.
func (c bodyComparer) compareEach(path []string, expected, actual *types.List) []BodyMismatch {
	if expected.Len() == 0 {
		return nil
	}
	var out []BodyMismatch
	for i, item := range actual.Items {
		out = append(out, c.compare(appendPath(path, strconv.Itoa(i)), expected.Items[0], item)...)
	}
	return out
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, seg)
}

func compareXMLBody(expected, actual types.OptionalBody, mr *rules.MatchingRules, allowUnexpected bool) []BodyMismatch {
	exp, err := types.DecodeXML(expected.Value)
	if err != nil {
		return []BodyMismatch{{Path: "/", Message: fmt.Sprintf("Failed to parse the expected body: %v", err)}}
	}
	act, err := types.DecodeXML(actual.Value)
	if err != nil {
		return []BodyMismatch{{Expected: exp, Path: "/", Message: fmt.Sprintf("Failed to parse the actual body: %v", err)}}
	}
	c := bodyComparer{rules: mr, allowUnexpected: allowUnexpected, factory: XMLMismatchFactory}
	return c.compareElement([]string{"$", exp.Name}, exp, act)
}

func (c bodyComparer) compareElement(path []string, expected, actual *types.Element) []BodyMismatch {
	if len(path) > types.MaxDocumentDepth {
		return []BodyMismatch{c.factory.Create(expected, actual, "Document nesting exceeds the maximum depth", path)}
	}
	group, hasRule := c.group(path)
	if hasRule {
		if out := rules.MatchGroup(group, path, expected, actual, c.factory); len(out) > 0 {
			return out
		}
	} else if expected.Name != actual.Name {
		return []BodyMismatch{c.factory.Create(expected, actual,
			fmt.Sprintf("Expected element %s but received %s", expected.Name, actual.Name), path)}
	}

	var out []BodyMismatch
	for _, attr := range expected.Attrs {
		attrPath := appendPath(path, "@"+attr.Name)
		got, ok := actual.Attr(attr.Name)
		if !ok {
			out = append(out, c.factory.Create(types.String(attr.Value), types.Null{},
				fmt.Sprintf("Expected attribute %s='%s' but was missing", attr.Name, attr.Value), attrPath))
			continue
		}
		ev, av := types.String(attr.Value), types.String(got)
		if g, ok := c.group(attrPath); ok {
			out = append(out, rules.MatchGroup(g, attrPath, ev, av, c.factory)...)
		} else {
			out = append(out, rules.Match(rules.EqualityRule{}, attrPath, ev, av, c.factory)...)
		}
	}
	if !c.allowUnexpected {
		for _, attr := range actual.Attrs {
			if _, ok := expected.Attr(attr.Name); !ok {
				out = append(out, c.factory.Create(expected, actual,
					fmt.Sprintf("Unexpected attribute %s='%s'", attr.Name, attr.Value), path))
			}
		}
	}

	expChildren, actChildren := expected.ChildElements(), actual.ChildElements()
	if len(expChildren) == 0 {
		return append(out, c.compareText(path, expected, actual)...)
	}
	if hasRule {
		for i, child := range actChildren {
			out = append(out, c.compareElement(appendPath(path, child.Name), expChildren[0], actChildren[i])...)
		}
		return out
	}
	if len(expChildren) != len(actChildren) {
		out = append(out, c.factory.Create(expected, actual,
			fmt.Sprintf("Expected %d child elements but received %d", len(expChildren), len(actChildren)), path))
	}
	for i := 0; i < min(len(expChildren), len(actChildren)); i++ {
		out = append(out, c.compareElement(appendPath(path, expChildren[i].Name), expChildren[i], actChildren[i])...)
	}
	return out
}

func (c bodyComparer) compareText(path []string, expected, actual *types.Element) []BodyMismatch {
	textPath := appendPath(path, "#text")
	ev, av := types.String(expected.Text()), types.String(actual.Text())
	if g, ok := c.group(textPath); ok {
		return rules.MatchGroup(g, textPath, ev, av, c.factory)
	}
	if ev == av {
		return nil
	}
	return []BodyMismatch{c.factory.Create(ev, av,
		fmt.Sprintf("Expected value '%s' but received '%s'", ev, av), textPath)}
}

func compareTextBody(expected, actual types.OptionalBody, mr *rules.MatchingRules) []BodyMismatch {
	ev, av := types.String(expected.String()), types.String(actual.String())
	path := []string{"$"}
	if g, ok := mr.Resolve(rules.CategoryBody, path); ok && !g.IsEmpty() {
		return rules.MatchGroup(g, path, ev, av, BodyMismatchFactory)
	}
	if ev == av {
		return nil
	}
	return []BodyMismatch{{
		Expected: ev,
		Actual:   av,
		Path:     "$",
		Message:  fmt.Sprintf("Expected body '%s' to match '%s' using equality but did not match", av, ev),
	}}
}
