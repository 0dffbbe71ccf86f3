// internal/generators/generators.go
package generators

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Generators: per-category generator sets.
 *
 * METHOD, PATH and STATUS hold a single generator under the empty key.
 * HEADER and QUERY are keyed by name, BODY by path expression. Keys keep
 * registration order, which is also application order.
 */

// Generators maps category -> key -> generator.
type Generators struct {
	categories map[Category]*categorySet
}

type categorySet struct {
	keys []string
	gens map[string]Generator
}

func (s *categorySet) put(key string, gen Generator) {
	if _, ok := s.gens[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.gens[key] = gen
}

// New returns an empty generator set.
func New() *Generators {
	return &Generators{categories: make(map[Category]*categorySet)}
}

// FromMap decodes the pact "generators" object. Invalid entries are logged and skipped.
func FromMap(raw map[string]any) *Generators {
	g := New()
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		category, err := ParseCategory(name)
		if err != nil {
			slog.Warn(fmt.Sprintf("Ignoring generator with invalid category '%s'", name))
			continue
		}
		def, ok := raw[name].(map[string]any)
		if !ok {
			slog.Warn(fmt.Sprintf("Ignoring invalid generator config '%v'", raw[name]))
			continue
		}

		if category.singleValued() {
			g.addFromDef(category, "", def)
			continue
		}

		keys := make([]string, 0, len(def))
		for k := range def {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			entry, ok := def[k].(map[string]any)
			if !ok {
				slog.Warn(fmt.Sprintf("Ignoring invalid generator config '%v'", def[k]))
				continue
			}
			g.addFromDef(category, k, entry)
		}
	}
	return g
}

func (g *Generators) addFromDef(category Category, key string, def map[string]any) {
	if _, ok := def["type"]; !ok {
		slog.Warn(fmt.Sprintf("Ignoring invalid generator config '%v'", def))
		return
	}
	gen, ok := Lookup(def)
	if !ok {
		slog.Warn("generators: ignoring unsupported generator", "category", category, "key", key, "type", def["type"])
		return
	}
	g.AddGenerator(category, key, gen)
}

// AddGenerator registers gen under key. Single-valued categories use the empty key.
func (g *Generators) AddGenerator(category Category, key string, gen Generator) *Generators {
	g.set(category).put(key, gen)
	return g
}

// AddGenerators copies every generator of other into category, prefixing keys.
func (g *Generators) AddGenerators(category Category, other map[string]Generator, keyPrefix string) *Generators {
	keys := make([]string, 0, len(other))
	for k := range other {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		g.AddGenerator(category, keyPrefix+k, other[k])
	}
	return g
}

// AddCategory ensures category exists, even without generators.
func (g *Generators) AddCategory(category Category) *Generators {
	g.set(category)
	return g
}

func (g *Generators) set(category Category) *categorySet {
	s, ok := g.categories[category]
	if !ok {
		s = &categorySet{gens: make(map[string]Generator)}
		g.categories[category] = s
	}
	return s
}

// Keys returns the keys registered for category in registration order.
func (g *Generators) Keys(category Category) []string {
	if g == nil {
		return nil
	}
	s, ok := g.categories[category]
	if !ok {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Get returns the generator stored under key.
func (g *Generators) Get(category Category, key string) (Generator, bool) {
	if g == nil {
		return nil, false
	}
	s, ok := g.categories[category]
	if !ok {
		return nil, false
	}
	gen, ok := s.gens[key]
	return gen, ok
}

// ApplyGenerator calls fn for each generator of category in registration order.
func (g *Generators) ApplyGenerator(category Category, fn func(key string, gen Generator)) {
	if g == nil {
		return
	}
	s, ok := g.categories[category]
	if !ok {
		return
	}
	for _, k := range s.keys {
		fn(k, s.gens[k])
	}
}

// ApplyRootPrefix rewrites every key as prefix+key.
func (g *Generators) ApplyRootPrefix(prefix string) {
	for _, s := range g.categories {
		gens := make(map[string]Generator, len(s.gens))
		for i, k := range s.keys {
			s.keys[i] = prefix + k
			gens[prefix+k] = s.gens[k]
		}
		s.gens = gens
	}
}

// ApplyBodyGenerators runs the BODY generators against body using the
// handler registered for contentType. Bodies that are not present, or whose
// content type has no handler, are returned unchanged.
func (g *Generators) ApplyBodyGenerators(body types.OptionalBody, contentType types.ContentType, registry *Registry) types.OptionalBody {
	if !body.IsPresent() || g.isCategoryEmpty(CategoryBody) {
		return body
	}
	if registry == nil {
		registry = DefaultRegistry()
	}

	var handler ContentTypeHandler
	switch {
	case contentType.IsJSON():
		handler, _ = registry.Lookup(string(types.ContentTypeJSON))
	case contentType.IsXML():
		handler, _ = registry.Lookup(string(types.ContentTypeXML))
	}
	if handler == nil {
		return body
	}

	out, err := handler.ProcessBody(body.Value, func(root *types.Value) {
		g.ApplyGenerator(CategoryBody, func(key string, gen Generator) {
			handler.ApplyKey(root, key, gen)
		})
	})
	if err != nil {
		slog.Warn("generators: leaving body unchanged", "content_type", string(contentType), "error", err)
		return body
	}
	return out
}

// ApplyScalar returns the value produced by the single generator of category, if any.
func (g *Generators) ApplyScalar(category Category, current types.Value) types.Value {
	if gen, ok := g.Get(category, ""); ok {
		return gen.Generate(current)
	}
	return current
}

// IsEmpty reports whether no category is registered.
func (g *Generators) IsEmpty() bool {
	return g == nil || len(g.categories) == 0
}

func (g *Generators) isCategoryEmpty(category Category) bool {
	return len(g.Keys(category)) == 0
}

// ToMap renders the pact "generators" object. Generators need pact v3 or later.
func (g *Generators) ToMap(version int) (map[string]any, error) {
	if version < 3 {
		return nil, types.ErrGeneratorsUnsupported
	}
	out := make(map[string]any)
	if g == nil {
		return out, nil
	}
	for category, s := range g.categories {
		if category.singleValued() {
			if gen, ok := s.gens[""]; ok && gen.ToMap() != nil {
				out[category.key()] = gen.ToMap()
			}
			continue
		}
		entries := make(map[string]any, len(s.keys))
		for _, k := range s.keys {
			if m := s.gens[k].ToMap(); m != nil {
				entries[k] = m
			}
		}
		out[category.key()] = entries
	}
	return out, nil
}
