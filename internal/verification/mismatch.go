// internal/verification/mismatch.go
package verification

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/solatis/pactkeeper/internal/rules"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Request part mismatches.
 *
 * One variant per part of a request. Body, header and query mismatches are
 * built through rules.MismatchFactory implementations so the rule engine
 * stays unaware of the concrete type. Body mismatches on collections carry
 * a line diff of the pretty-printed values.
 */

// RequestPartMismatch is a difference in one part of a request.
type RequestPartMismatch interface {
	Description() string
	isMismatch()
}

// MethodMismatch is a differing HTTP method.
type MethodMismatch struct {
	Expected string
	Actual   string
}

// PathMismatch is a differing request path.
type PathMismatch struct {
	Expected string
	Actual   string
	Message  string
}

// QueryMismatch is a missing, unexpected or differing query parameter.
type QueryMismatch struct {
	Name     string
	Expected string
	Actual   string
	Message  string
	Path     string
}

// HeaderMismatch is a missing or differing header.
type HeaderMismatch struct {
	Name     string
	Expected string
	Actual   string
	Message  string
}

// BodyTypeMismatch is a differing body content type.
type BodyTypeMismatch struct {
	Expected string
	Actual   string
}

// BodyMismatch is a difference inside a body.
type BodyMismatch struct {
	Expected types.Value
	Actual   types.Value
	Message  string
	Path     string
	Diff     string
}

func (MethodMismatch) isMismatch()   {}
func (PathMismatch) isMismatch()     {}
func (QueryMismatch) isMismatch()    {}
func (HeaderMismatch) isMismatch()   {}
func (BodyTypeMismatch) isMismatch() {}
func (BodyMismatch) isMismatch()     {}

func (m MethodMismatch) Description() string {
	return fmt.Sprintf("Expected method %s but received %s", m.Expected, m.Actual)
}

func (m PathMismatch) Description() string {
	if m.Message != "" {
		return m.Message
	}
	return fmt.Sprintf("Expected path '%s' but received path '%s'", m.Expected, m.Actual)
}

func (m QueryMismatch) Description() string { return m.Message }

func (m HeaderMismatch) Description() string { return m.Message }

func (m BodyTypeMismatch) Description() string {
	return fmt.Sprintf("Expected a body of '%s' but the actual content type was '%s'", m.Expected, m.Actual)
}

func (m BodyMismatch) Description() string {
	out := m.Path + " -> " + m.Message
	if m.Diff != "" {
		out += "\n\nDiff:\n" + m.Diff
	}
	return out
}

// BodyMismatchFactory builds body mismatches, rendering the path as "$.a[0]".
var BodyMismatchFactory = rules.FactoryFunc[BodyMismatch](func(expected, actual types.Value, description string, path []string) BodyMismatch {
	m := BodyMismatch{Expected: expected, Actual: actual, Message: description, Path: types.JoinPath(path)}
	if types.IsCollection(expected) || types.IsCollection(actual) {
		m.Diff = Diff(expected, actual)
	}
	return m
})

// XMLMismatchFactory builds body mismatches for XML documents, rendering the
// path as "/root/child/@attr".
var XMLMismatchFactory = rules.FactoryFunc[BodyMismatch](func(expected, actual types.Value, description string, path []string) BodyMismatch {
	return BodyMismatch{Expected: expected, Actual: actual, Message: description, Path: xmlPath(path)}
})

// HeaderMismatchFactory builds header mismatches. The last path segment is the header name.
var HeaderMismatchFactory = rules.FactoryFunc[HeaderMismatch](func(expected, actual types.Value, description string, path []string) HeaderMismatch {
	return HeaderMismatch{Name: last(path), Expected: rules.SafeToString(expected), Actual: rules.SafeToString(actual), Message: description}
})

// QueryMismatchFactory builds query mismatches. The last path segment is the parameter name.
var QueryMismatchFactory = rules.FactoryFunc[QueryMismatch](func(expected, actual types.Value, description string, path []string) QueryMismatch {
	return QueryMismatch{
		Name:     last(path),
		Expected: rules.SafeToString(expected),
		Actual:   rules.SafeToString(actual),
		Message:  description,
		Path:     strings.Join(path, "."),
	}
})

// PathMismatchFactory builds path mismatches.
var PathMismatchFactory = rules.FactoryFunc[PathMismatch](func(expected, actual types.Value, description string, _ []string) PathMismatch {
	return PathMismatch{Expected: rules.SafeToString(expected), Actual: rules.SafeToString(actual), Message: description}
})

func last(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[len(path)-1]
}

func xmlPath(path []string) string {
	if len(path) > 0 && path[0] == "$" {
		path = path[1:]
	}
	return "/" + strings.Join(path, "/")
}

// Diff renders a line diff between the pretty-printed values. Unchanged lines
// are prefixed with a space, removed lines with "-" and added lines with "+".
func Diff(expected, actual types.Value) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(render(expected), render(actual))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteByte('\n')
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func render(v types.Value) string {
	if types.IsNull(v) {
		return "null\n"
	}
	if e, ok := v.(*types.Element); ok {
		data, err := types.EncodeXML(e)
		if err != nil {
			return e.Text() + "\n"
		}
		return string(data) + "\n"
	}
	return types.PrettyJSON(v) + "\n"
}
