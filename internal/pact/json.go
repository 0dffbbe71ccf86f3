// internal/pact/json.go
package pact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"net/url"
	"slices"
	"strings"

	"github.com/solatis/pactkeeper/internal/generators"
	"github.com/solatis/pactkeeper/internal/rules"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Pact JSON layout, versions 2 and 3.
 *
 * Differences handled here:
 *   - query: v2 is a query string, v3 an object of string lists.
 *   - provider states: v2 "providerState" string, v3 "providerStates" list.
 *   - matchingRules: v2 flat "$.body..." keys, v3 per-category objects.
 *   - generators: v3 only.
 *
 * Bodies are kept as raw bytes. JSON bodies are re-encoded compactly from
 * the ordered document tree so key order and number literals survive.
 */

// Parse decodes and validates a pact document.
func Parse(data []byte) (*Pact, error) {
	doc, err := types.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidPact, err)
	}
	if err := Validate(types.ToAny(doc)); err != nil {
		return nil, err
	}
	root, ok := doc.(*types.Map)
	if !ok {
		return nil, fmt.Errorf("%w: document is not an object", types.ErrInvalidPact)
	}
	return fromDocument(root)
}

func fromDocument(root *types.Map) (*Pact, error) {
	p := &Pact{
		Consumer: Participant{Name: nameOf(root, "consumer")},
		Provider: Participant{Name: nameOf(root, "provider")},
		Metadata: map[string]any{},
		Source:   UnknownSource{},
	}
	if meta, ok := field[*types.Map](root, "metadata"); ok {
		p.Metadata, _ = types.ToAny(meta).(map[string]any)
	}

	list, _ := field[*types.List](root, "interactions")
	if list == nil {
		return p, nil
	}
	for i, item := range list.Items {
		m, ok := item.(*types.Map)
		if !ok {
			return nil, fmt.Errorf("%w: interaction %d is not an object", types.ErrInvalidPact, i)
		}
		interaction, err := interactionFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("%w: interaction %d: %v", types.ErrInvalidPact, i, err)
		}
		p.Interactions = append(p.Interactions, interaction)
	}
	return p, nil
}

func interactionFromMap(m *types.Map) (*Interaction, error) {
	i := &Interaction{
		Description: stringAt(m, "description"),
		Request:     NewRequest(),
		Response:    NewResponse(),
	}

	if states, ok := field[*types.List](m, "providerStates"); ok {
		for _, s := range states.Items {
			sm, ok := s.(*types.Map)
			if !ok {
				continue
			}
			state := ProviderState{Name: stringAt(sm, "name")}
			if params, ok := field[*types.Map](sm, "params"); ok {
				state.Params, _ = types.ToAny(params).(map[string]any)
			}
			i.ProviderStates = append(i.ProviderStates, state)
		}
	} else if name := stringAt(m, "providerState"); name != "" {
		i.ProviderStates = []ProviderState{{Name: name}}
	}

	if req, ok := field[*types.Map](m, "request"); ok {
		if err := requestFromMap(req, &i.Request); err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}
	}
	if resp, ok := field[*types.Map](m, "response"); ok {
		if err := responseFromMap(resp, &i.Response); err != nil {
			return nil, fmt.Errorf("response: %w", err)
		}
	}
	return i, nil
}

func requestFromMap(m *types.Map, r *Request) error {
	if method := stringAt(m, "method"); method != "" {
		r.Method = strings.ToUpper(method)
	}
	if path := stringAt(m, "path"); path != "" {
		r.Path = path
	}

	if v, ok := m.Get("query"); ok {
		switch q := v.(type) {
		case types.String:
			values, err := url.ParseQuery(string(q))
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			r.Query = values
		case *types.Map:
			for _, k := range q.Keys() {
				item, _ := q.Get(k)
				switch vals := item.(type) {
				case *types.List:
					for _, s := range vals.Items {
						r.Query[k] = append(r.Query[k], s.Text())
					}
				default:
					r.Query[k] = []string{vals.Text()}
				}
			}
		}
	}

	r.Headers = headersFromMap(m)
	r.Body = bodyFromMap(m)
	r.MatchingRules = matchingRulesFromMap(m)
	r.Generators = generatorsFromMap(m)
	return nil
}

func responseFromMap(m *types.Map, r *Response) error {
	if v, ok := field[types.Number](m, "status"); ok {
		rat, ok := v.Rat()
		if !ok || !rat.IsInt() {
			return fmt.Errorf("status %s is not an integer", v.Literal)
		}
		r.Status = int(rat.Num().Int64())
	}
	r.Headers = headersFromMap(m)
	r.Body = bodyFromMap(m)
	r.MatchingRules = matchingRulesFromMap(m)
	r.Generators = generatorsFromMap(m)
	return nil
}

func headersFromMap(m *types.Map) map[string]string {
	out := map[string]string{}
	h, ok := field[*types.Map](m, "headers")
	if !ok {
		return out
	}
	for _, k := range h.Keys() {
		v, _ := h.Get(k)
		out[k] = v.Text()
	}
	return out
}

func bodyFromMap(m *types.Map) types.OptionalBody {
	v, ok := m.Get("body")
	if !ok {
		return types.MissingBody()
	}
	switch b := v.(type) {
	case types.Null:
		return types.NullBody()
	case types.String:
		return types.BodyOf([]byte(string(b)))
	default:
		return types.BodyOf(types.MustEncodeJSON(b))
	}
}

func matchingRulesFromMap(m *types.Map) *rules.MatchingRules {
	raw, ok := field[*types.Map](m, "matchingRules")
	if !ok {
		return rules.NewMatchingRules()
	}
	plain, _ := types.ToAny(raw).(map[string]any)
	for k := range plain {
		if strings.HasPrefix(k, "$") {
			return rules.FromV2Map(plain)
		}
	}
	return rules.FromMap(plain)
}

func generatorsFromMap(m *types.Map) *generators.Generators {
	raw, ok := field[*types.Map](m, "generators")
	if !ok {
		return generators.New()
	}
	plain, _ := types.ToAny(raw).(map[string]any)
	return generators.FromMap(plain)
}

func field[T types.Value](m *types.Map, key string) (T, bool) {
	var zero T
	v, ok := m.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

func stringAt(m *types.Map, key string) string {
	s, _ := field[types.String](m, key)
	return string(s)
}

func nameOf(root *types.Map, key string) string {
	p, ok := field[*types.Map](root, key)
	if !ok {
		return ""
	}
	return stringAt(p, "name")
}

// ToMap renders the pact in the layout of version.
func (p *Pact) ToMap(version SpecVersion) map[string]any {
	interactions := make([]any, 0, len(p.Interactions))
	for _, i := range p.Interactions {
		interactions = append(interactions, i.toMap(version))
	}

	metadata := maps.Clone(p.Metadata)
	if metadata == nil {
		metadata = map[string]any{}
	}
	delete(metadata, "pact-specification")
	metadata["pactSpecification"] = map[string]any{"version": version.String()}

	return map[string]any{
		"consumer":     map[string]any{"name": p.Consumer.Name},
		"provider":     map[string]any{"name": p.Provider.Name},
		"interactions": interactions,
		"metadata":     metadata,
	}
}

func (i *Interaction) toMap(version SpecVersion) map[string]any {
	out := map[string]any{
		"description": i.Description,
		"request":     i.Request.toMap(version),
		"response":    i.Response.toMap(version),
	}
	if len(i.ProviderStates) == 0 {
		return out
	}
	if version.Major() < 3 {
		out["providerState"] = i.ProviderStates[0].Name
		return out
	}
	states := make([]any, 0, len(i.ProviderStates))
	for _, s := range i.ProviderStates {
		sm := map[string]any{"name": s.Name}
		if len(s.Params) > 0 {
			sm["params"] = s.Params
		}
		states = append(states, sm)
	}
	out["providerStates"] = states
	return out
}

func (r *Request) toMap(version SpecVersion) map[string]any {
	out := map[string]any{
		"method": strings.ToUpper(r.Method),
		"path":   r.Path,
	}
	if len(r.Query) > 0 {
		if version.Major() < 3 {
			out["query"] = url.Values(r.Query).Encode()
		} else {
			q := make(map[string]any, len(r.Query))
			for _, k := range slices.Sorted(maps.Keys(r.Query)) {
				q[k] = r.Query[k]
			}
			out["query"] = q
		}
	}
	writeCommon(out, r.Headers, r.Body, r.ContentType(), r.MatchingRules, r.Generators, version)
	return out
}

func (r *Response) toMap(version SpecVersion) map[string]any {
	out := map[string]any{"status": r.Status}
	writeCommon(out, r.Headers, r.Body, r.ContentType(), r.MatchingRules, r.Generators, version)
	return out
}

func writeCommon(out map[string]any, headers map[string]string, body types.OptionalBody, ct types.ContentType,
	mr *rules.MatchingRules, gens *generators.Generators, version SpecVersion) {
	if len(headers) > 0 {
		out["headers"] = headers
	}
	switch body.State {
	case types.BodyNull:
		out["body"] = nil
	case types.BodyEmpty:
		out["body"] = ""
	case types.BodyPresent:
		out["body"] = bodyToAny(body, ct)
	}
	if !mr.IsEmpty() {
		if version.Major() < 3 {
			out["matchingRules"] = mr.ToV2Map()
		} else {
			out["matchingRules"] = mr.ToV3Map()
		}
	}
	if !gens.IsEmpty() && version.Major() >= 3 {
		if m, err := gens.ToMap(version.Major()); err == nil {
			out["generators"] = m
		}
	}
}

// bodyToAny embeds JSON bodies as JSON and everything else as a string.
func bodyToAny(body types.OptionalBody, ct types.ContentType) any {
	if ct.IsJSON() && json.Valid(body.Value) {
		return json.RawMessage(body.Value)
	}
	return body.String()
}

// Marshal renders the pact as indented JSON with interactions sorted.
func Marshal(p *Pact, version SpecVersion) ([]byte, error) {
	p.SortInteractions()
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p.ToMap(version)); err != nil {
		return nil, fmt.Errorf("failed to encode pact: %w", err)
	}
	return buf.Bytes(), nil
}
