// internal/pact/model.go
package pact

import (
	"fmt"
	"maps"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/pactkeeper/internal/generators"
	"github.com/solatis/pactkeeper/internal/rules"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Pact document model.
 *
 * A Pact is a consumer, a provider and an ordered list of interactions.
 * Each interaction pairs the request the consumer will send with the
 * response the provider is expected to return. Matching rules and
 * generators hang off the request and response they apply to.
 */

// Participant names a consumer or provider.
type Participant struct {
	Name string
}

// ProviderState is a named precondition on the provider, with optional parameters.
type ProviderState struct {
	Name   string
	Params map[string]any
}

// Request is an expected HTTP request.
type Request struct {
	Method        string
	Path          string
	Query         map[string][]string
	Headers       map[string]string
	Body          types.OptionalBody
	MatchingRules *rules.MatchingRules
	Generators    *generators.Generators
}

// Response is the HTTP response returned for a matched request.
type Response struct {
	Status        int
	Headers       map[string]string
	Body          types.OptionalBody
	MatchingRules *rules.MatchingRules
	Generators    *generators.Generators
}

// Interaction is one expected request/response pair.
type Interaction struct {
	Description    string
	ProviderStates []ProviderState
	Request        Request
	Response       Response
}

// Pact is a contract between one consumer and one provider.
type Pact struct {
	Consumer     Participant
	Provider     Participant
	Interactions []*Interaction
	Metadata     map[string]any
	Source       Source
}

// NewRequest returns a GET / request with empty collections.
func NewRequest() Request {
	return Request{
		Method:        http.MethodGet,
		Path:          "/",
		Query:         map[string][]string{},
		Headers:       map[string]string{},
		Body:          types.MissingBody(),
		MatchingRules: rules.NewMatchingRules(),
		Generators:    generators.New(),
	}
}

// NewResponse returns a 200 response with empty collections.
func NewResponse() Response {
	return Response{
		Status:        http.StatusOK,
		Headers:       map[string]string{},
		Body:          types.MissingBody(),
		MatchingRules: rules.NewMatchingRules(),
		Generators:    generators.New(),
	}
}

// ContentType returns the Content-Type header, falling back to body sniffing.
func (r *Request) ContentType() types.ContentType {
	return contentType(r.Headers, r.Body)
}

// ContentType returns the Content-Type header, falling back to body sniffing.
func (r *Response) ContentType() types.ContentType {
	return contentType(r.Headers, r.Body)
}

func contentType(headers map[string]string, body types.OptionalBody) types.ContentType {
	if v, ok := headerValue(headers, "Content-Type"); ok {
		return types.ContentType(v)
	}
	return types.DetectContentType(body)
}

func headerValue(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// String renders the request for reports. Maps are rendered with sorted keys.
func (r *Request) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\tmethod: %s\n", r.Method)
	fmt.Fprintf(&sb, "\tpath: %s\n", r.Path)
	fmt.Fprintf(&sb, "\tquery: %s\n", formatQuery(r.Query))
	fmt.Fprintf(&sb, "\theaders: %s\n", formatHeaders(r.Headers))
	fmt.Fprintf(&sb, "\tbody: %s", r.Body.Describe())
	return sb.String()
}

func formatQuery(q map[string][]string) string {
	keys := slices.Sorted(maps.Keys(q))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(q[k], ","))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func formatHeaders(h map[string]string) string {
	keys := slices.Sorted(maps.Keys(h))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+h[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Clone returns a deep copy of the request's collections and body.
func (r *Request) Clone() Request {
	out := *r
	out.Query = make(map[string][]string, len(r.Query))
	for k, v := range r.Query {
		out.Query[k] = append([]string(nil), v...)
	}
	out.Headers = maps.Clone(r.Headers)
	if out.Headers == nil {
		out.Headers = map[string]string{}
	}
	out.Body.Value = slices.Clone(r.Body.Value)
	return out
}

// Generated returns a copy of the request with its generators applied.
func (r *Request) Generated(registry *generators.Registry) Request {
	out := r.Clone()
	g := r.Generators
	if g.IsEmpty() {
		return out
	}
	out.Method = g.ApplyScalar(generators.CategoryMethod, types.String(out.Method)).Text()
	out.Path = g.ApplyScalar(generators.CategoryPath, types.String(out.Path)).Text()
	applyHeaderGenerators(g, out.Headers)
	g.ApplyGenerator(generators.CategoryQuery, func(key string, gen generators.Generator) {
		values, ok := out.Query[key]
		if !ok {
			return
		}
		for i, v := range values {
			values[i] = gen.Generate(types.String(v)).Text()
		}
	})
	out.Body = g.ApplyBodyGenerators(out.Body, out.ContentType(), registry)
	return out
}

// Clone returns a deep copy of the response's collections and body.
func (r *Response) Clone() Response {
	out := *r
	out.Headers = maps.Clone(r.Headers)
	if out.Headers == nil {
		out.Headers = map[string]string{}
	}
	out.Body.Value = slices.Clone(r.Body.Value)
	return out
}

// Generated returns a copy of the response with its generators applied.
func (r *Response) Generated(registry *generators.Registry) Response {
	out := r.Clone()
	g := r.Generators
	if g.IsEmpty() {
		return out
	}
	status := g.ApplyScalar(generators.CategoryStatus, types.Int(int64(out.Status)))
	if n, err := strconv.Atoi(status.Text()); err == nil {
		out.Status = n
	}
	applyHeaderGenerators(g, out.Headers)
	out.Body = g.ApplyBodyGenerators(out.Body, out.ContentType(), registry)
	return out
}

func applyHeaderGenerators(g *generators.Generators, headers map[string]string) {
	g.ApplyGenerator(generators.CategoryHeader, func(key string, gen generators.Generator) {
		name := key
		for k := range headers {
			if strings.EqualFold(k, key) {
				name = k
				break
			}
		}
		headers[name] = gen.Generate(types.String(headers[name])).Text()
	})
}

// ProviderStateNames returns the names of the interaction's provider states.
func (i *Interaction) ProviderStateNames() []string {
	names := make([]string, len(i.ProviderStates))
	for n, s := range i.ProviderStates {
		names[n] = s.Name
	}
	return names
}

// SortInteractions orders interactions by provider states, then description.
func (p *Pact) SortInteractions() {
	key := func(i *Interaction) string {
		return strings.Join(i.ProviderStateNames(), ",") + i.Description
	}
	sort.SliceStable(p.Interactions, func(a, b int) bool {
		return key(p.Interactions[a]) < key(p.Interactions[b])
	})
}

// SpecVersion reads the pact specification version from the metadata, defaulting to V2.
func (p *Pact) SpecVersion() SpecVersion {
	for _, key := range []string{"pactSpecification", "pact-specification"} {
		section, ok := p.Metadata[key].(map[string]any)
		if !ok {
			continue
		}
		raw, _ := section["version"].(string)
		if v, err := ParseSpecVersion(raw); err == nil {
			return v
		}
	}
	return V2
}
