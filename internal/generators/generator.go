// internal/generators/generator.go
package generators

import (
	"encoding/hex"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/solatis/pactkeeper/internal/javatime"
	"github.com/solatis/pactkeeper/internal/types"
)

/*
 * Generator kinds.
 *
 * A generator is a function from the current value to a replacement value.
 * The kinds below are the ones pact documents name in their "type" field.
 * Random kinds draw from math/rand/v2; date kinds format the current time
 * with a Java pattern.
 */

// Generator produces a replacement for a value.
type Generator interface {
	Generate(current types.Value) types.Value
	// ToMap renders the generator in pact v3 layout.
	ToMap() map[string]any
}

// Func adapts a plain function to Generator. It has no pact representation.
type Func func(current types.Value) types.Value

func (f Func) Generate(current types.Value) types.Value { return f(current) }
func (f Func) ToMap() map[string]any                    { return nil }

// RandomInt generates an integer in [Min, Max].
type RandomInt struct {
	Min, Max int
}

func (g RandomInt) Generate(types.Value) types.Value {
	lo, hi := g.Min, g.Max
	if hi < lo {
		lo, hi = hi, lo
	}
	return types.Int(int64(lo + rand.IntN(hi-lo+1)))
}

func (g RandomInt) ToMap() map[string]any {
	return map[string]any{"type": "RandomInt", "min": g.Min, "max": g.Max}
}

// RandomDecimal generates a decimal number with Digits significant digits.
type RandomDecimal struct {
	Digits int
}

func (g RandomDecimal) Generate(types.Value) types.Value {
	digits := max(g.Digits, 2)
	var sb strings.Builder
	sb.WriteByte(byte('1' + rand.IntN(9)))
	for i := 1; i < digits; i++ {
		sb.WriteByte(byte('0' + rand.IntN(10)))
	}
	s := sb.String()
	point := 1 + rand.IntN(digits-1)
	return types.Number{Literal: s[:point] + "." + s[point:]}
}

func (g RandomDecimal) ToMap() map[string]any {
	return map[string]any{"type": "RandomDecimal", "digits": g.Digits}
}

// RandomHexadecimal generates a lower-case hex string of Digits characters.
type RandomHexadecimal struct {
	Digits int
}

func (g RandomHexadecimal) Generate(types.Value) types.Value {
	n := max(g.Digits, 1)
	buf := make([]byte, (n+1)/2)
	for i := range buf {
		buf[i] = byte(rand.IntN(256))
	}
	return types.String(hex.EncodeToString(buf)[:n])
}

func (g RandomHexadecimal) ToMap() map[string]any {
	return map[string]any{"type": "RandomHexadecimal", "digits": g.Digits}
}

const alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// RandomString generates an alphanumeric string of Size characters.
type RandomString struct {
	Size int
}

func (g RandomString) Generate(types.Value) types.Value {
	n := g.Size
	if n <= 0 {
		n = 10
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = alphanumeric[rand.IntN(len(alphanumeric))]
	}
	return types.String(b)
}

func (g RandomString) ToMap() map[string]any {
	return map[string]any{"type": "RandomString", "size": g.Size}
}

// RandomBoolean generates true or false.
type RandomBoolean struct{}

func (RandomBoolean) Generate(types.Value) types.Value { return types.Bool(rand.IntN(2) == 1) }
func (RandomBoolean) ToMap() map[string]any           { return map[string]any{"type": "RandomBoolean"} }

// UUID generates a random (v4) UUID string.
type UUID struct{}

func (UUID) Generate(types.Value) types.Value { return types.String(uuid.New().String()) }
func (UUID) ToMap() map[string]any           { return map[string]any{"type": "Uuid"} }

// Clock returns the current time. Tests replace it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

// Date generates the current date formatted with a Java pattern.
type Date struct {
	Format string
	Clock  Clock
}

func (g Date) Generate(current types.Value) types.Value {
	return formatNow(g.Format, javatime.DefaultDatePattern, g.Clock, current)
}

func (g Date) ToMap() map[string]any { return dateMap("Date", g.Format) }

// Time generates the current time of day formatted with a Java pattern.
type Time struct {
	Format string
	Clock  Clock
}

func (g Time) Generate(current types.Value) types.Value {
	return formatNow(g.Format, javatime.DefaultTimePattern, g.Clock, current)
}

func (g Time) ToMap() map[string]any { return dateMap("Time", g.Format) }

// DateTime generates the current timestamp formatted with a Java pattern.
type DateTime struct {
	Format string
	Clock  Clock
}

func (g DateTime) Generate(current types.Value) types.Value {
	return formatNow(g.Format, javatime.DefaultTimestampPattern, g.Clock, current)
}

func (g DateTime) ToMap() map[string]any { return dateMap("DateTime", g.Format) }

func formatNow(format, def string, clock Clock, current types.Value) types.Value {
	if format == "" {
		format = def
	}
	out, err := javatime.Format(format, clock.now())
	if err != nil {
		return current
	}
	return types.String(out)
}

func dateMap(kind, format string) map[string]any {
	m := map[string]any{"type": kind}
	if format != "" {
		m["format"] = format
	}
	return m
}

var stateExpression = regexp.MustCompile(`\$\{([^}]+)\}`)

// ProviderState substitutes ${name} placeholders from provider state values.
// Without bound values the current value is kept.
type ProviderState struct {
	Expression string
	Values     map[string]any
}

// Bind returns a copy of g that resolves placeholders from values.
func (g ProviderState) Bind(values map[string]any) ProviderState {
	return ProviderState{Expression: g.Expression, Values: values}
}

func (g ProviderState) Generate(current types.Value) types.Value {
	if g.Values == nil {
		return current
	}
	// A lone placeholder keeps the bound value's type.
	if m := stateExpression.FindStringSubmatch(g.Expression); m != nil && m[0] == g.Expression {
		if v, ok := g.Values[m[1]]; ok {
			return types.FromAny(v)
		}
		return current
	}
	out := stateExpression.ReplaceAllStringFunc(g.Expression, func(placeholder string) string {
		name := placeholder[2 : len(placeholder)-1]
		if v, ok := g.Values[name]; ok {
			return fmt.Sprintf("%v", v)
		}
		return placeholder
	})
	return types.String(out)
}

func (g ProviderState) ToMap() map[string]any {
	return map[string]any{"type": "ProviderState", "expression": g.Expression}
}

// Lookup builds a generator from its pact definition. Unknown or unsupported
// types report false.
func Lookup(def map[string]any) (Generator, bool) {
	kind, _ := def["type"].(string)
	switch kind {
	case "RandomInt":
		return RandomInt{Min: intOr(def["min"], 0), Max: intOr(def["max"], 2147483647)}, true
	case "RandomDecimal":
		return RandomDecimal{Digits: intOr(def["digits"], 10)}, true
	case "RandomHexadecimal":
		return RandomHexadecimal{Digits: intOr(def["digits"], 10)}, true
	case "RandomString":
		return RandomString{Size: intOr(def["size"], 10)}, true
	case "RandomBoolean":
		return RandomBoolean{}, true
	case "Uuid":
		return UUID{}, true
	case "Date":
		return Date{Format: stringOf(def["format"])}, true
	case "Time":
		return Time{Format: stringOf(def["format"])}, true
	case "DateTime", "Timestamp":
		return DateTime{Format: stringOf(def["format"])}, true
	case "ProviderState":
		expr := stringOf(def["expression"])
		if expr == "" {
			return nil, false
		}
		return ProviderState{Expression: expr}, true
	default:
		return nil, false
	}
}

func intOr(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	case interface{ Int64() (int64, error) }:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return def
}

func stringOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
