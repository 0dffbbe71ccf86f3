// internal/types/value.go
package types

import (
	"math/big"
	"strings"
)

/*
 * Structured values for request/response documents.
 *
 * Value is a closed variant over the shapes a decoded body can take:
 * Null, String, Number, Bool, *Map, *List and *Element (XML). Maps keep
 * insertion order so that re-encoding a decoded document reproduces the
 * original key order.
 *
 * Mutability: *Map, *List and *Element are reference types. Write-back
 * cursors from internal/fieldpath mutate them in place; scalar variants are
 * immutable.
 *
 * Numbers keep their source literal. Integral vs decimal is decided from
 * the literal (no '.', 'e' or 'E' means integral).
 */

// Kind identifies the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindMap
	KindList
	KindElement
)

// String returns the lower-case kind name used in mismatch messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindMap:
		return "map"
	case KindList:
		return "list"
	case KindElement:
		return "element"
	default:
		return "unknown"
	}
}

// Value is a node of a structured document.
type Value interface {
	Kind() Kind
	// Text is the native string conversion of the value.
	Text() string
	isValue()
}

// Null is the JSON null.
type Null struct{}

// String is a text scalar.
type String string

// Bool is a boolean scalar.
type Bool bool

// Number is a numeric scalar holding its source literal.
type Number struct {
	Literal string
}

// Map is an insertion-ordered map of values.
type Map struct {
	keys    []string
	entries map[string]Value
}

// List is an ordered sequence of values.
type List struct {
	Items []Value
}

// Attr is an XML attribute.
type Attr struct {
	Name  string
	Value string
}

// Element is an XML element. Children are *Element or String (text nodes).
type Element struct {
	Name     string
	Attrs    []Attr
	Children []Value
}

func (Null) isValue()     {}
func (String) isValue()   {}
func (Bool) isValue()     {}
func (Number) isValue()   {}
func (*Map) isValue()     {}
func (*List) isValue()    {}
func (*Element) isValue() {}

func (Null) Kind() Kind     { return KindNull }
func (String) Kind() Kind   { return KindString }
func (Bool) Kind() Kind     { return KindBool }
func (Number) Kind() Kind   { return KindNumber }
func (*Map) Kind() Kind     { return KindMap }
func (*List) Kind() Kind    { return KindList }
func (*Element) Kind() Kind { return KindElement }

func (Null) Text() string     { return "null" }
func (s String) Text() string { return string(s) }
func (n Number) Text() string { return n.Literal }

func (b Bool) Text() string {
	if b {
		return "true"
	}
	return "false"
}

func (m *Map) Text() string  { return string(MustEncodeJSON(m)) }
func (l *List) Text() string { return string(MustEncodeJSON(l)) }

// Text of an element is the concatenated text of all descendants.
func (e *Element) Text() string {
	var sb strings.Builder
	for _, c := range e.Children {
		switch child := c.(type) {
		case String:
			sb.WriteString(string(child))
		case *Element:
			sb.WriteString(child.Text())
		}
	}
	return sb.String()
}

// NewMap creates an empty ordered map.
func NewMap() *Map {
	return &Map{entries: make(map[string]Value)}
}

// NewList creates a list holding items.
func NewList(items ...Value) *List {
	return &List{Items: items}
}

// Int creates an integral Number.
func Int(n int64) Number {
	return Number{Literal: big.NewInt(n).String()}
}

// Len returns the number of entries.
func (m *Map) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Get returns the value stored under key.
func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.entries[key]
	return v, ok
}

// Set stores value under key. New keys are appended; existing keys keep their position.
func (m *Map) Set(key string, value Value) {
	if m.entries == nil {
		m.entries = make(map[string]Value)
	}
	if _, ok := m.entries[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.entries[key] = value
}

// Delete removes key if present.
func (m *Map) Delete(key string) {
	if _, ok := m.entries[key]; !ok {
		return
	}
	delete(m.entries, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of items.
func (l *List) Len() int { return len(l.Items) }

// ChildElements returns only the element children.
func (e *Element) ChildElements() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// IsNull reports whether v is absent or the null variant.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// IsIntegral reports whether the literal denotes an integer.
func (n Number) IsIntegral() bool {
	return !strings.ContainsAny(n.Literal, ".eE")
}

// Rat parses the literal as an exact rational.
func (n Number) Rat() (*big.Rat, bool) {
	return new(big.Rat).SetString(n.Literal)
}

// Size returns the collection size of v, or -1 for scalars.
// Element size counts all children, text nodes included.
func Size(v Value) int {
	switch c := v.(type) {
	case *Map:
		return c.Len()
	case *List:
		return c.Len()
	case *Element:
		return len(c.Children)
	default:
		return -1
	}
}

// IsCollection reports whether v is a map, list or element.
func IsCollection(v Value) bool {
	return Size(v) >= 0
}

// Equal compares two values structurally. Numbers compare by value.
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch x := a.(type) {
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Number:
		y, ok := b.(Number)
		if !ok {
			return false
		}
		rx, okx := x.Rat()
		ry, oky := y.Rat()
		if !okx || !oky {
			return x.Literal == y.Literal
		}
		return rx.Cmp(ry) == 0
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for _, k := range x.keys {
			yv, ok := y.entries[k]
			if !ok || !Equal(x.entries[k], yv) {
				return false
			}
		}
		return true
	case *List:
		y, ok := b.(*List)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i := range x.Items {
			if !Equal(x.Items[i], y.Items[i]) {
				return false
			}
		}
		return true
	case *Element:
		y, ok := b.(*Element)
		if !ok || x.Name != y.Name || len(x.Attrs) != len(y.Attrs) || len(x.Children) != len(y.Children) {
			return false
		}
		for _, attr := range x.Attrs {
			if v, ok := y.Attr(attr.Name); !ok || v != attr.Value {
				return false
			}
		}
		for i := range x.Children {
			if !Equal(x.Children[i], y.Children[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// Clone deep-copies v. Scalars are returned as-is.
func Clone(v Value) Value {
	switch c := v.(type) {
	case *Map:
		out := NewMap()
		for _, k := range c.keys {
			out.Set(k, Clone(c.entries[k]))
		}
		return out
	case *List:
		items := make([]Value, len(c.Items))
		for i, item := range c.Items {
			items[i] = Clone(item)
		}
		return &List{Items: items}
	case *Element:
		out := &Element{Name: c.Name, Attrs: append([]Attr(nil), c.Attrs...)}
		for _, child := range c.Children {
			out.Children = append(out.Children, Clone(child))
		}
		return out
	default:
		return v
	}
}
