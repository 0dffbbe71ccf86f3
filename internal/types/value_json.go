// internal/types/value_json.go
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
)

/*
 * JSON codec for Value.
 *
 * Decoding walks the token stream so map key order and number literals
 * survive. Encoding is compact with HTML escaping disabled, so decoding and
 * re-encoding compact JSON reproduces the input bytes.
 */

// DecodeJSON parses a single JSON document into a Value.
func DecodeJSON(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after document", ErrInvalidBody)
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null{}, nil
	case string:
		return String(t), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return Number{Literal: t.String()}, nil
	case json.Delim:
		switch t {
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, errors.New("object key is not a string")
				}
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			l := NewList()
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				l.Items = append(l.Items, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return l, nil
		}
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// EncodeJSON renders v as compact JSON. Elements are rendered as XML strings.
func EncodeJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeValue(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MustEncodeJSON is EncodeJSON for values known to be encodable.
func MustEncodeJSON(v Value) []byte {
	out, err := EncodeJSON(v)
	if err != nil {
		return []byte(fmt.Sprintf("%q", err.Error()))
	}
	return out
}

// PrettyJSON renders v as JSON indented by two spaces.
func PrettyJSON(v Value) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, MustEncodeJSON(v), "", "  "); err != nil {
		return string(MustEncodeJSON(v))
	}
	return buf.String()
}

func encodeValue(buf *bytes.Buffer, v Value) error {
	switch x := v.(type) {
	case nil, Null:
		buf.WriteString("null")
	case String:
		return encodeString(buf, string(x))
	case Bool:
		buf.WriteString(x.Text())
	case Number:
		if !json.Valid([]byte(x.Literal)) {
			return fmt.Errorf("invalid number literal %q", x.Literal)
		}
		buf.WriteString(x.Literal)
	case *Map:
		buf.WriteByte('{')
		for i, k := range x.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeString(buf, k); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := encodeValue(buf, x.entries[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case *List:
		buf.WriteByte('[')
		for i, item := range x.Items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := encodeValue(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Element:
		out, err := EncodeXML(x)
		if err != nil {
			return err
		}
		return encodeString(buf, string(out))
	default:
		return fmt.Errorf("unsupported value %T", v)
	}
	return nil
}

func encodeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encoder appends a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// FromAny converts decoded Go values (encoding/json output or literals) into a Value.
// Plain map keys are sorted since Go maps carry no order.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null{}
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Bool(x)
	case json.Number:
		return Number{Literal: x.String()}
	case float64:
		return Number{Literal: strconv.FormatFloat(x, 'f', -1, 64)}
	case int:
		return Number{Literal: strconv.Itoa(x)}
	case int64:
		return Number{Literal: strconv.FormatInt(x, 10)}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMap()
		for _, k := range keys {
			m.Set(k, FromAny(x[k]))
		}
		return m
	case []any:
		l := NewList()
		for _, item := range x {
			l.Items = append(l.Items, FromAny(item))
		}
		return l
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// ToAny converts a Value into plain Go values. Numbers become json.Number.
func ToAny(v Value) any {
	switch x := v.(type) {
	case nil, Null:
		return nil
	case String:
		return string(x)
	case Bool:
		return bool(x)
	case Number:
		return json.Number(x.Literal)
	case *Map:
		out := make(map[string]any, x.Len())
		for _, k := range x.keys {
			out[k] = ToAny(x.entries[k])
		}
		return out
	case *List:
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			out[i] = ToAny(item)
		}
		return out
	case *Element:
		return x.Text()
	default:
		return nil
	}
}

// MarshalJSON implements json.Marshaler for ordered maps.
func (m *Map) MarshalJSON() ([]byte, error) { return EncodeJSON(m) }

// MarshalJSON implements json.Marshaler.
func (l *List) MarshalJSON() ([]byte, error) { return EncodeJSON(l) }
