package rules

import (
	"reflect"
	"testing"
)

func TestFromMap_V3(t *testing.T) {
	raw := decodeMap(t, `{
		"body": {
			"$.items": {"matchers": [{"match": "type", "min": 1}]},
			"$.items[*].id": {"matchers": [{"match": "integer"}]},
			"$.bad[": {"matchers": [{"match": "type"}]}
		},
		"header": {
			"Content-Type": {"matchers": [{"match": "regex", "regex": "application/.*"}], "combine": "AND"}
		},
		"path": {"matchers": [{"match": "regex", "regex": "/orders/\\d+"}]},
		"query": {"q": {"matchers": [{"match": "include", "value": "a"}]}},
		"broken": "not an object"
	}`)

	m := FromMap(raw)

	t.Run("body resolves most specific", func(t *testing.T) {
		g, ok := m.Resolve(CategoryBody, []string{"$", "items", "3", "id"})
		if !ok || !reflect.DeepEqual(g.Rules, []MatchingRule{NumberRule{Kind: NumberInteger}}) {
			t.Errorf("Resolve($.items[3].id) = %v, %v", g, ok)
		}
	})

	t.Run("body inherits ancestor", func(t *testing.T) {
		g, ok := m.Resolve(CategoryBody, []string{"$", "items", "3", "name"})
		if !ok || !reflect.DeepEqual(g.Rules, []MatchingRule{MinTypeRule{Min: 1}}) {
			t.Errorf("Resolve($.items[3].name) = %v, %v", g, ok)
		}
	})

	t.Run("body unrelated path", func(t *testing.T) {
		if _, ok := m.Resolve(CategoryBody, []string{"$", "other"}); ok {
			t.Errorf("Resolve($.other) matched, want no rule")
		}
	})

	t.Run("header case insensitive", func(t *testing.T) {
		if _, ok := m.Group(CategoryHeader, "content-type"); !ok {
			t.Errorf("Group(header, content-type) not found")
		}
	})

	t.Run("path direct group", func(t *testing.T) {
		g, ok := m.Group(CategoryPath, "")
		if !ok || len(g.Rules) != 1 {
			t.Errorf("Group(path) = %v, %v", g, ok)
		}
	})

	t.Run("query", func(t *testing.T) {
		if _, ok := m.Group(CategoryQuery, "q"); !ok {
			t.Errorf("Group(query, q) not found")
		}
	})

	t.Run("round trip", func(t *testing.T) {
		again := FromMap(m.ToV3Map())
		g, ok := again.Resolve(CategoryBody, []string{"$", "items", "0", "id"})
		if !ok || !reflect.DeepEqual(g.Rules, []MatchingRule{NumberRule{Kind: NumberInteger}}) {
			t.Errorf("round trip lost body rule: %v, %v", g, ok)
		}
		if _, ok := again.Group(CategoryPath, ""); !ok {
			t.Errorf("round trip lost path rule")
		}
	})
}

func TestFromV2Map(t *testing.T) {
	m := FromV2Map(decodeMap(t, `{
		"$.body.id": {"match": "type"},
		"$.body.items[*].name": {"regex": "[a-z]+"},
		"$.headers.Accept": {"regex": "json"},
		"$.query.page": {"match": "integer"},
		"$.path": {"regex": "/x/.*"},
		"$.cookies.c": {"match": "type"}
	}`))

	if g, ok := m.Resolve(CategoryBody, []string{"$", "id"}); !ok || !reflect.DeepEqual(g.Rules, []MatchingRule{TypeRule{}}) {
		t.Errorf("body $.id = %v, %v", g, ok)
	}
	if g, ok := m.Resolve(CategoryBody, []string{"$", "items", "1", "name"}); !ok || !reflect.DeepEqual(g.Rules, []MatchingRule{RegexRule{Pattern: "[a-z]+"}}) {
		t.Errorf("body $.items[1].name = %v, %v", g, ok)
	}
	if _, ok := m.Group(CategoryHeader, "Accept"); !ok {
		t.Errorf("header Accept not found")
	}
	if _, ok := m.Group(CategoryQuery, "page"); !ok {
		t.Errorf("query page not found")
	}
	if _, ok := m.Group(CategoryPath, ""); !ok {
		t.Errorf("path rule not found")
	}

	v2 := m.ToV2Map()
	if _, ok := v2["$.body.id"]; !ok {
		t.Errorf("ToV2Map() missing $.body.id: %v", v2)
	}
	if _, ok := v2["$.headers.Accept"]; !ok {
		t.Errorf("ToV2Map() missing $.headers.Accept: %v", v2)
	}
}

func TestMatchingRules_IsEmpty(t *testing.T) {
	var nilRules *MatchingRules
	if !nilRules.IsEmpty() {
		t.Errorf("nil IsEmpty() = false")
	}
	m := NewMatchingRules()
	m.AddCategory(CategoryBody)
	if !m.IsEmpty() {
		t.Errorf("IsEmpty() with empty category = false")
	}
	m.AddCategory("BODY").AddRule("$.a", TypeRule{})
	if m.IsEmpty() {
		t.Errorf("IsEmpty() after AddRule = true")
	}
}
