// internal/verification/compare.go
package verification

import (
	"fmt"
	"maps"
	"mime"
	"slices"
	"strings"

	"github.com/solatis/pactkeeper/internal/pact"
	"github.com/solatis/pactkeeper/internal/rules"
	"github.com/solatis/pactkeeper/internal/types"
)

// RequestMatch is the outcome of correlating a received request with the expected interactions.
type RequestMatch interface {
	isRequestMatch()
}

// FullRequestMatch means the request satisfied an interaction completely.
type FullRequestMatch struct {
	Interaction *pact.Interaction
}

// PartialRequestMatch means method and path matched an interaction but other parts differ.
type PartialRequestMatch struct {
	Interaction *pact.Interaction
	Mismatches  []RequestPartMismatch
}

// RequestMismatch means no interaction matched method and path.
type RequestMismatch struct{}

func (FullRequestMatch) isRequestMatch()    {}
func (PartialRequestMatch) isRequestMatch() {}
func (RequestMismatch) isRequestMatch()     {}

// MatchRequest correlates actual with interactions. A full match wins over a
// partial one; among equals the first interaction in order wins.
func MatchRequest(interactions []*pact.Interaction, actual *pact.Request) RequestMatch {
	var partial *PartialRequestMatch
	for _, i := range interactions {
		mismatches := CompareRequest(&i.Request, actual)
		if len(mismatches) == 0 {
			return FullRequestMatch{Interaction: i}
		}
		if partial == nil && !hasRoutingMismatch(mismatches) {
			partial = &PartialRequestMatch{Interaction: i, Mismatches: mismatches}
		}
	}
	if partial != nil {
		return *partial
	}
	return RequestMismatch{}
}

func hasRoutingMismatch(mismatches []RequestPartMismatch) bool {
	for _, m := range mismatches {
		switch m.(type) {
		case MethodMismatch, PathMismatch:
			return true
		}
	}
	return false
}

// CompareRequest returns every difference between the expected and actual
// request. Parts are compared independently; nothing short-circuits.
func CompareRequest(expected, actual *pact.Request) []RequestPartMismatch {
	var out []RequestPartMismatch
	if m, ok := compareMethod(expected.Method, actual.Method); !ok {
		out = append(out, m)
	}
	for _, m := range comparePath(expected, actual) {
		out = append(out, m)
	}
	for _, m := range compareQuery(expected, actual) {
		out = append(out, m)
	}
	for _, m := range compareHeaders(expected, actual) {
		out = append(out, m)
	}
	out = append(out, compareRequestBody(expected, actual)...)
	return out
}

func compareMethod(expected, actual string) (MethodMismatch, bool) {
	if strings.EqualFold(expected, actual) {
		return MethodMismatch{}, true
	}
	return MethodMismatch{Expected: strings.ToUpper(expected), Actual: strings.ToUpper(actual)}, false
}

func comparePath(expected, actual *pact.Request) []PathMismatch {
	path := []string{"$", "path"}
	ev, av := types.String(expected.Path), types.String(actual.Path)
	if g, ok := expected.MatchingRules.Group(rules.CategoryPath, ""); ok && !g.IsEmpty() {
		return rules.MatchGroup(g, path, ev, av, PathMismatchFactory)
	}
	if expected.Path == actual.Path {
		return nil
	}
	return []PathMismatch{{Expected: expected.Path, Actual: actual.Path}}
}

func compareQuery(expected, actual *pact.Request) []QueryMismatch {
	var out []QueryMismatch
	for _, name := range slices.Sorted(maps.Keys(expected.Query)) {
		want := expected.Query[name]
		got, ok := actual.Query[name]
		if !ok {
			out = append(out, QueryMismatch{
				Name:     name,
				Expected: strings.Join(want, ","),
				Message:  fmt.Sprintf("Expected query parameter '%s' but was missing", name),
				Path:     "$.query." + name,
			})
			continue
		}

		if g, ok := expected.MatchingRules.Group(rules.CategoryQuery, name); ok && !g.IsEmpty() {
			for i, v := range got {
				ev := types.Value(types.Null{})
				if len(want) > 0 {
					ev = types.String(want[min(i, len(want)-1)])
				}
				out = append(out, rules.MatchGroup(g, []string{"$", "query", name}, ev, types.String(v), QueryMismatchFactory)...)
			}
			continue
		}

		if !slices.Equal(want, got) {
			out = append(out, QueryMismatch{
				Name:     name,
				Expected: strings.Join(want, ","),
				Actual:   strings.Join(got, ","),
				Message: fmt.Sprintf("Expected query parameter '%s' with value(s) [%s] but received [%s]",
					name, strings.Join(want, ", "), strings.Join(got, ", ")),
				Path: "$.query." + name,
			})
		}
	}

	for _, name := range slices.Sorted(maps.Keys(actual.Query)) {
		if _, ok := expected.Query[name]; !ok {
			out = append(out, QueryMismatch{
				Name:    name,
				Actual:  strings.Join(actual.Query[name], ","),
				Message: fmt.Sprintf("Unexpected query parameter '%s' received", name),
				Path:    "$.query." + name,
			})
		}
	}
	return out
}

func compareHeaders(expected, actual *pact.Request) []HeaderMismatch {
	var out []HeaderMismatch
	for _, name := range slices.Sorted(maps.Keys(expected.Headers)) {
		want := expected.Headers[name]
		got, ok := lookupHeader(actual.Headers, name)
		if !ok {
			out = append(out, HeaderMismatch{
				Name:     name,
				Expected: want,
				Message:  fmt.Sprintf("Expected a header '%s' but was missing", name),
			})
			continue
		}
		out = append(out, CompareHeader(name, want, got, expected.MatchingRules)...)
	}
	return out
}

// CompareHeader compares one header value, applying header rules when present.
func CompareHeader(name, expected, actual string, mr *rules.MatchingRules) []HeaderMismatch {
	ev, av := types.String(expected), types.String(actual)
	if g, ok := mr.Group(rules.CategoryHeader, name); ok && !g.IsEmpty() {
		return rules.MatchGroup(g, []string{"$", "headers", name}, ev, av, HeaderMismatchFactory)
	}
	if strings.EqualFold(name, "Content-Type") {
		if sameContentType(expected, actual) {
			return nil
		}
	} else if normalizeHeader(expected) == normalizeHeader(actual) {
		return nil
	}
	return []HeaderMismatch{{
		Name:     name,
		Expected: expected,
		Actual:   actual,
		Message:  fmt.Sprintf("Expected header '%s' to have value '%s' but was '%s'", name, expected, actual),
	}}
}

func lookupHeader(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func normalizeHeader(v string) string {
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}

// sameContentType compares media types case-insensitively and requires every
// expected parameter to be present with the same value.
func sameContentType(expected, actual string) bool {
	emt, eparams, err := mime.ParseMediaType(expected)
	if err != nil {
		return normalizeHeader(expected) == normalizeHeader(actual)
	}
	amt, aparams, err := mime.ParseMediaType(actual)
	if err != nil || emt != amt {
		return false
	}
	for k, v := range eparams {
		if !strings.EqualFold(aparams[k], v) {
			return false
		}
	}
	return true
}

func compareRequestBody(expected, actual *pact.Request) []RequestPartMismatch {
	if expected.Body.IsMissing() {
		return nil
	}
	ect, act := expected.ContentType(), actual.ContentType()
	if expected.Body.IsPresent() && actual.Body.IsPresent() && ect.MediaType() != act.MediaType() &&
		!(ect.IsJSON() && act.IsJSON()) && !(ect.IsXML() && act.IsXML()) {
		return []RequestPartMismatch{BodyTypeMismatch{Expected: ect.MediaType(), Actual: act.MediaType()}}
	}

	var out []RequestPartMismatch
	for _, m := range CompareBody(expected.Body, actual.Body, ect, expected.MatchingRules, false) {
		out = append(out, m)
	}
	return out
}
