// internal/generators/generators_test.go
package generators

import (
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/pactkeeper/internal/types"
)

func constant(s string) Generator {
	return Func(func(types.Value) types.Value { return types.String(s) })
}

func TestApplyBodyGenerators(t *testing.T) {
	tests := []struct {
		name        string
		keys        map[string]Generator
		body        types.OptionalBody
		contentType types.ContentType
		want        string
	}{
		{
			name:        "replaces addressed field",
			keys:        map[string]Generator{"$.id": constant("42")},
			body:        types.PresentBody(`{"id":1,"name":"x"}`),
			contentType: types.ContentTypeJSON,
			want:        `{"id":"42","name":"x"}`,
		},
		{
			name:        "wildcard fans out",
			keys:        map[string]Generator{"$.items[*].id": constant("g")},
			body:        types.PresentBody(`{"items":[{"id":1},{"id":2}]}`),
			contentType: "application/json; charset=UTF-8",
			want:        `{"items":[{"id":"g"},{"id":"g"}]}`,
		},
		{
			name:        "missing path leaves body alone",
			keys:        map[string]Generator{"$.nope.deeper": constant("g")},
			body:        types.PresentBody(`{"id":1}`),
			contentType: types.ContentTypeJSON,
			want:        `{"id":1}`,
		},
		{
			name:        "xml has no default handler",
			keys:        map[string]Generator{"$.id": constant("g")},
			body:        types.PresentBody(`<id>1</id>`),
			contentType: types.ContentTypeXML,
			want:        `<id>1</id>`,
		},
		{
			name:        "text is untouched",
			keys:        map[string]Generator{"$": constant("g")},
			body:        types.PresentBody(`hello`),
			contentType: types.ContentTypeText,
			want:        `hello`,
		},
		{
			name:        "invalid json is untouched",
			keys:        map[string]Generator{"$.id": constant("g")},
			body:        types.PresentBody(`{"id":`),
			contentType: types.ContentTypeJSON,
			want:        `{"id":`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New().AddGenerators(CategoryBody, tt.keys, "")
			got := g.ApplyBodyGenerators(tt.body, tt.contentType, DefaultRegistry())
			if string(got.Value) != tt.want {
				t.Errorf("ApplyBodyGenerators() = %s, want %s", got.Value, tt.want)
			}
		})
	}
}

func TestApplyBodyGenerators_NonPresentBodies(t *testing.T) {
	g := New().AddGenerator(CategoryBody, "$", constant("g"))
	for _, body := range []types.OptionalBody{types.MissingBody(), types.NullBody(), types.EmptyBody()} {
		got := g.ApplyBodyGenerators(body, types.ContentTypeJSON, nil)
		if got.State != body.State {
			t.Errorf("ApplyBodyGenerators(%s) state = %s, want unchanged", body.State, got.State)
		}
	}
}

func TestApplyBodyGenerators_IdentityKeepsBytes(t *testing.T) {
	identity := Func(func(v types.Value) types.Value { return v })

	tests := []struct {
		name string
		key  string
		body string
	}{
		{name: "spaced object", key: "$.a", body: `{"a": 1}`},
		{name: "indented and unmatched", key: "$.a", body: "{\n  \"id\": 1\n}"},
		{name: "escaped slash", key: "$.a", body: `{"a":"x\/y"}`},
		{name: "wildcard over list", key: "$[*].n", body: `[ {"n": 1.50}, {"n": 2e3} ]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New().AddGenerator(CategoryBody, tt.key, identity)
			got := g.ApplyBodyGenerators(types.PresentBody(tt.body), types.ContentTypeJSON, nil)
			if string(got.Value) != tt.body {
				t.Errorf("ApplyBodyGenerators() = %q, want %q", got.Value, tt.body)
			}
		})
	}
}

// Property: an identity generator leaves any JSON body byte-for-byte unchanged.
func TestProperty_IdentityGeneratorKeepsBody(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	identity := Func(func(v types.Value) types.Value { return v })
	g := New().AddGenerator(CategoryBody, "$.*", identity)

	properties.Property("identity keeps bytes", prop.ForAll(
		func(key, value string, n int, pad int) bool {
			ws := strings.Repeat(" ", pad)
			body := "{" + ws + `"` + key + `"` + ws + ":" + ws + `"` + value + `",` + ws +
				`"n":` + ws + strconv.Itoa(n) + ws + "}"
			got := g.ApplyBodyGenerators(types.PresentBody(body), types.ContentTypeJSON, nil)
			return string(got.Value) == body
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.IntRange(-1000, 1000),
		gen.IntRange(0, 3),
	))

	properties.TestingRun(t)
}

func TestApplyBodyGenerators_RegisteredOrder(t *testing.T) {
	g := New().
		AddGenerator(CategoryBody, "$.a", constant("first")).
		AddGenerator(CategoryBody, "$.a", constant("second")).
		AddGenerator(CategoryBody, "$.b", Func(func(v types.Value) types.Value { return types.String(v.Text() + "!") }))

	got := g.ApplyBodyGenerators(types.PresentBody(`{"a":0,"b":"x"}`), types.ContentTypeJSON, nil)
	if want := `{"a":"second","b":"x!"}`; string(got.Value) != want {
		t.Errorf("ApplyBodyGenerators() = %s, want %s", got.Value, want)
	}
	if keys := g.Keys(CategoryBody); len(keys) != 2 || keys[0] != "$.a" {
		t.Errorf("Keys() = %v, want [$.a $.b]", keys)
	}
}

type upperXML struct{}

func (upperXML) ProcessBody(data []byte, apply func(root *types.Value)) (types.OptionalBody, error) {
	var root types.Value = types.String(string(data))
	apply(&root)
	return types.BodyOf([]byte(root.Text())), nil
}

func (upperXML) ApplyKey(root *types.Value, _ string, gen Generator) {
	*root = gen.Generate(*root)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	if _, ok := r.Lookup("application/json"); !ok {
		t.Fatalf("Lookup(application/json) ok = false, want true")
	}
	if _, ok := r.Lookup("application/xml"); ok {
		t.Fatalf("Lookup(application/xml) ok = true, want false")
	}

	r.Register("application/xml", upperXML{})
	g := New().AddGenerator(CategoryBody, "$", Func(func(v types.Value) types.Value {
		return types.String(strings.ToUpper(v.Text()))
	}))
	got := g.ApplyBodyGenerators(types.PresentBody("<a/>"), "text/xml", r)
	if string(got.Value) != "<A/>" {
		t.Errorf("ApplyBodyGenerators() with xml handler = %s, want <A/>", got.Value)
	}

	r.Reset()
	if _, ok := r.Lookup("application/xml"); ok {
		t.Errorf("Lookup(application/xml) after Reset ok = true, want false")
	}
}

func TestFromMap(t *testing.T) {
	g := FromMap(map[string]any{
		"body":    map[string]any{"$.id": map[string]any{"type": "RandomInt", "min": 1, "max": 1}, "$.bad": "nope"},
		"header":  map[string]any{"X-Id": map[string]any{"type": "Uuid"}, "X-None": map[string]any{"min": 1}},
		"status":  map[string]any{"type": "RandomInt", "min": 200, "max": 200},
		"path":    map[string]any{"nope": true},
		"unknown": map[string]any{"type": "Uuid"},
	})

	if keys := g.Keys(CategoryBody); len(keys) != 1 || keys[0] != "$.id" {
		t.Errorf("body keys = %v, want [$.id]", keys)
	}
	if keys := g.Keys(CategoryHeader); len(keys) != 1 || keys[0] != "X-Id" {
		t.Errorf("header keys = %v, want [X-Id]", keys)
	}
	if _, ok := g.Get(CategoryPath, ""); ok {
		t.Errorf("path generator without type was kept")
	}
	if got := g.ApplyScalar(CategoryStatus, types.Int(0)); !types.Equal(got, types.Int(200)) {
		t.Errorf("ApplyScalar(STATUS) = %v, want 200", got)
	}
}

func TestParseCategory(t *testing.T) {
	for _, name := range []string{"body", "BODY", "Body"} {
		if c, err := ParseCategory(name); err != nil || c != CategoryBody {
			t.Errorf("ParseCategory(%q) = %v, %v, want BODY", name, c, err)
		}
	}
	if _, err := ParseCategory("cookies"); err == nil {
		t.Errorf("ParseCategory(cookies) error = nil, want error")
	}
}

func TestToMap(t *testing.T) {
	g := New().
		AddGenerator(CategoryStatus, "", RandomInt{Min: 1, Max: 2}).
		AddGenerator(CategoryBody, "$.id", UUID{})

	if _, err := g.ToMap(2); !errors.Is(err, types.ErrGeneratorsUnsupported) {
		t.Fatalf("ToMap(2) error = %v, want ErrGeneratorsUnsupported", err)
	}

	m, err := g.ToMap(3)
	if err != nil {
		t.Fatalf("ToMap(3) error = %v, want nil", err)
	}
	status, ok := m["status"].(map[string]any)
	if !ok || status["type"] != "RandomInt" {
		t.Errorf("ToMap(3)[status] = %v, want RandomInt definition", m["status"])
	}
	body, ok := m["body"].(map[string]any)
	if !ok || body["$.id"] == nil {
		t.Errorf("ToMap(3)[body] = %v, want $.id entry", m["body"])
	}

	back := FromMap(m)
	if keys := back.Keys(CategoryBody); len(keys) != 1 || keys[0] != "$.id" {
		t.Errorf("FromMap(ToMap()) body keys = %v", keys)
	}
}

func TestApplyRootPrefix(t *testing.T) {
	g := New().AddGenerator(CategoryBody, ".id", constant("x"))
	g.ApplyRootPrefix("$")
	if _, ok := g.Get(CategoryBody, "$.id"); !ok {
		t.Errorf("Get($.id) after ApplyRootPrefix ok = false, want true")
	}
	if g.IsEmpty() {
		t.Errorf("IsEmpty() = true, want false")
	}
	if !New().IsEmpty() {
		t.Errorf("New().IsEmpty() = false, want true")
	}
}

func TestGeneratorKinds(t *testing.T) {
	fixed := Clock(func() time.Time { return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC) })

	tests := []struct {
		name  string
		gen   Generator
		check func(types.Value) bool
	}{
		{"random string", RandomString{Size: 7}, func(v types.Value) bool { return len(v.Text()) == 7 }},
		{"hexadecimal", RandomHexadecimal{Digits: 5}, func(v types.Value) bool {
			return len(v.Text()) == 5 && strings.Trim(v.Text(), "0123456789abcdef") == ""
		}},
		{"decimal", RandomDecimal{Digits: 6}, func(v types.Value) bool {
			n, ok := v.(types.Number)
			return ok && !n.IsIntegral() && len(n.Literal) == 7
		}},
		{"boolean", RandomBoolean{}, func(v types.Value) bool { return v.Kind() == types.KindBool }},
		{"uuid", UUID{}, func(v types.Value) bool { _, err := uuid.Parse(v.Text()); return err == nil }},
		{"date", Date{Clock: fixed}, func(v types.Value) bool { return v.Text() == "2024-03-05" }},
		{"time", Time{Format: "HH:mm", Clock: fixed}, func(v types.Value) bool { return v.Text() == "14:07" }},
		{"datetime", DateTime{Format: "yyyy/MM/dd HH:mm:ss", Clock: fixed}, func(v types.Value) bool {
			return v.Text() == "2024/03/05 14:07:09"
		}},
		{"provider state unbound", ProviderState{Expression: "${id}"}, func(v types.Value) bool { return v.Text() == "orig" }},
		{"provider state typed", ProviderState{Expression: "${id}"}.Bind(map[string]any{"id": 7}), func(v types.Value) bool {
			return types.Equal(v, types.Int(7))
		}},
		{"provider state template", ProviderState{Expression: "/users/${id}"}.Bind(map[string]any{"id": 7}), func(v types.Value) bool {
			return v.Text() == "/users/7"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.gen.Generate(types.String("orig"))
			if !tt.check(got) {
				t.Errorf("Generate() = %v", got)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	for _, kind := range []string{"RandomInt", "RandomDecimal", "RandomHexadecimal", "RandomString", "RandomBoolean", "Uuid", "Date", "Time", "DateTime"} {
		gen, ok := Lookup(map[string]any{"type": kind})
		if !ok {
			t.Errorf("Lookup(%s) ok = false, want true", kind)
			continue
		}
		if got := gen.ToMap()["type"]; got != kind {
			t.Errorf("Lookup(%s).ToMap()[type] = %v", kind, got)
		}
	}
	if _, ok := Lookup(map[string]any{"type": "Regex", "regex": "a+"}); ok {
		t.Errorf("Lookup(Regex) ok = true, want false")
	}
}

func TestRandomIntProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("RandomInt stays within bounds", prop.ForAll(
		func(lo, span int) bool {
			v := RandomInt{Min: lo, Max: lo + span}.Generate(types.Null{})
			n, ok := v.(types.Number)
			if !ok {
				return false
			}
			r, _ := n.Rat()
			i := r.Num().Int64()
			return i >= int64(lo) && i <= int64(lo+span)
		},
		gen.IntRange(-1000, 1000),
		gen.IntRange(0, 1000),
	))

	properties.TestingRun(t)
}
