// internal/rules/matching.go
package rules

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/solatis/pactkeeper/internal/fieldpath"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * MatchingRules: rule groups per request part.
 *
 * Categories:
 *   - body: keyed by path expression; lookup picks the best matching
 *     expression for a concrete document path (fieldpath.Best).
 *   - header, query: keyed by name (headers case-insensitively).
 *   - path: a single group under the empty key.
 *
 * Keys keep declaration order; Best breaks ties by it.
 */

// Category names used in pact documents.
const (
	CategoryBody   = "body"
	CategoryHeader = "header"
	CategoryQuery  = "query"
	CategoryPath   = "path"
)

// Category holds the rule groups of one request part.
type Category struct {
	Name   string
	keys   []string
	groups map[string]RuleGroup
	tokens map[string][]types.PathToken
}

func newCategory(name string) *Category {
	return &Category{Name: name, groups: make(map[string]RuleGroup), tokens: make(map[string][]types.PathToken)}
}

// AddRule appends rule to the group stored under key.
func (c *Category) AddRule(key string, rule MatchingRule) {
	g := c.groups[key]
	g.Rules = append(g.Rules, rule)
	c.SetGroup(key, g)
}

// SetGroup stores group under key, replacing any previous group.
func (c *Category) SetGroup(key string, group RuleGroup) {
	if _, ok := c.groups[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.groups[key] = group
	if c.Name != CategoryBody {
		return
	}
	tokens, err := fieldpath.Parse(key)
	if err != nil {
		slog.Warn("rules: ignoring matcher with invalid path", "path", key, "error", err)
		delete(c.tokens, key)
		return
	}
	c.tokens[key] = tokens
}

// Keys returns keys in declaration order.
func (c *Category) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Group returns the group stored under key. Header names compare case-insensitively.
func (c *Category) Group(key string) (RuleGroup, bool) {
	if g, ok := c.groups[key]; ok {
		return g, true
	}
	if c.Name == CategoryHeader {
		for _, k := range c.keys {
			if strings.EqualFold(k, key) {
				return c.groups[k], true
			}
		}
	}
	return RuleGroup{}, false
}

// Resolve returns the group whose path expression best addresses path.
func (c *Category) Resolve(path []string) (RuleGroup, bool) {
	keys := make([]string, 0, len(c.keys))
	candidates := make([][]types.PathToken, 0, len(c.keys))
	for _, k := range c.keys {
		if tokens, ok := c.tokens[k]; ok {
			keys = append(keys, k)
			candidates = append(candidates, tokens)
		}
	}
	idx, ok := fieldpath.Best(candidates, path)
	if !ok {
		return RuleGroup{}, false
	}
	return c.groups[keys[idx]], true
}

// IsEmpty reports whether the category holds no groups.
func (c *Category) IsEmpty() bool { return len(c.keys) == 0 }

// MatchingRules holds the categories of one request or response.
type MatchingRules struct {
	categories map[string]*Category
	order      []string
}

// NewMatchingRules creates an empty rule set.
func NewMatchingRules() *MatchingRules {
	return &MatchingRules{categories: make(map[string]*Category)}
}

// AddCategory returns the named category, creating it if needed.
func (m *MatchingRules) AddCategory(name string) *Category {
	name = normalizeCategory(name)
	if c, ok := m.categories[name]; ok {
		return c
	}
	c := newCategory(name)
	m.categories[name] = c
	m.order = append(m.order, name)
	return c
}

// Category returns the named category if present.
func (m *MatchingRules) Category(name string) (*Category, bool) {
	if m == nil {
		return nil, false
	}
	c, ok := m.categories[normalizeCategory(name)]
	return c, ok
}

// Resolve looks up the body-style group for path in category.
func (m *MatchingRules) Resolve(category string, path []string) (RuleGroup, bool) {
	c, ok := m.Category(category)
	if !ok {
		return RuleGroup{}, false
	}
	return c.Resolve(path)
}

// Group looks up a named group in category.
func (m *MatchingRules) Group(category, key string) (RuleGroup, bool) {
	c, ok := m.Category(category)
	if !ok {
		return RuleGroup{}, false
	}
	return c.Group(key)
}

// IsEmpty reports whether no category holds any group.
func (m *MatchingRules) IsEmpty() bool {
	if m == nil {
		return true
	}
	for _, c := range m.categories {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// FromMap decodes the v3 matchingRules layout. Malformed groups are skipped with a warning.
func FromMap(raw map[string]any) *MatchingRules {
	m := NewMatchingRules()
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		body, ok := raw[name].(map[string]any)
		if !ok {
			slog.Warn("rules: ignoring matching rule category that is not an object", "category", name)
			continue
		}
		c := m.AddCategory(name)

		if _, direct := body["matchers"]; direct {
			group, err := GroupFromMap(body)
			if err != nil {
				slog.Warn("rules: ignoring invalid matcher group", "category", name, "error", err)
				continue
			}
			c.SetGroup("", group)
			continue
		}

		keys := make([]string, 0, len(body))
		for k := range body {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			def, ok := body[k].(map[string]any)
			if !ok {
				slog.Warn("rules: ignoring invalid matcher group", "category", name, "key", k)
				continue
			}
			group, err := GroupFromMap(def)
			if err != nil {
				slog.Warn("rules: ignoring invalid matcher group", "category", name, "key", k, "error", err)
				continue
			}
			c.SetGroup(k, group)
		}
	}
	return m
}

// FromV2Map decodes the flat v2 layout keyed by "$.body...", "$.headers.X", "$.query.x" and "$.path".
func FromV2Map(raw map[string]any) *MatchingRules {
	m := NewMatchingRules()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		def, ok := raw[k].(map[string]any)
		if !ok {
			slog.Warn("rules: ignoring invalid v2 matcher", "path", k)
			continue
		}
		category, key, ok := splitV2Key(k)
		if !ok {
			slog.Warn("rules: ignoring v2 matcher with unknown category", "path", k)
			continue
		}
		m.AddCategory(category).SetGroup(key, NewRuleGroup(RulesFromMap(def)...))
	}
	return m
}

func splitV2Key(k string) (category, key string, ok bool) {
	switch {
	case k == "$.body" || strings.HasPrefix(k, "$.body.") || strings.HasPrefix(k, "$.body["):
		return CategoryBody, "$" + strings.TrimPrefix(k, "$.body"), true
	case strings.HasPrefix(k, "$.headers."):
		return CategoryHeader, strings.TrimPrefix(k, "$.headers."), true
	case strings.HasPrefix(k, "$.header."):
		return CategoryHeader, strings.TrimPrefix(k, "$.header."), true
	case strings.HasPrefix(k, "$.query."):
		return CategoryQuery, strings.TrimPrefix(k, "$.query."), true
	case k == "$.path":
		return CategoryPath, "", true
	default:
		return "", "", false
	}
}

// ToV3Map renders the v3 layout. Empty categories are omitted.
func (m *MatchingRules) ToV3Map() map[string]any {
	out := make(map[string]any)
	if m == nil {
		return out
	}
	for _, name := range m.order {
		c := m.categories[name]
		if c.IsEmpty() {
			continue
		}
		if name == CategoryPath {
			if g, ok := c.groups[""]; ok {
				out[name] = g.ToMap()
				continue
			}
		}
		entries := make(map[string]any, len(c.keys))
		for _, k := range c.keys {
			entries[k] = c.groups[k].ToMap()
		}
		out[name] = entries
	}
	return out
}

// ToV2Map renders the flat v2 layout. v2 holds one rule per path, so only
// the first rule of each group survives.
func (m *MatchingRules) ToV2Map() map[string]any {
	out := make(map[string]any)
	if m == nil {
		return out
	}
	for _, name := range m.order {
		c := m.categories[name]
		for _, k := range c.keys {
			g := c.groups[k]
			if g.IsEmpty() {
				continue
			}
			var key string
			switch name {
			case CategoryBody:
				key = "$.body" + strings.TrimPrefix(k, "$")
			case CategoryHeader:
				key = "$.headers." + k
			case CategoryQuery:
				key = "$.query." + k
			case CategoryPath:
				key = "$.path"
			default:
				continue
			}
			out[key] = g.Rules[0].ToMap()
		}
	}
	return out
}

func normalizeCategory(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "headers" {
		return CategoryHeader
	}
	return name
}
