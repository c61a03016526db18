package domain

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ToNumber returns the numeric value of v for any integer or float type.
func ToNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Stringify renders a value the way it appears when joined into a key:
// null and missing values become the empty string.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	}
	if f, ok := ToNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// Truthy reports whether v counts as true in a boolean context.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	if f, ok := ToNumber(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

// LooseEqual compares two values with numeric coercion: 2 equals "2" and
// 2.0, true equals 1. Strings compare exactly.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return as == bs
		}
	}
	fa, aok := coerceNumber(a)
	fb, bok := coerceNumber(b)
	if aok && bok {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders two values. Numbers compare numerically, strings
// lexicographically, and a numeric string against a number numerically.
// The second result is false when the values are not comparable.
func Compare(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	as, aStr := a.(string)
	bs, bStr := b.(string)
	if aStr && bStr {
		return strings.Compare(as, bs), true
	}
	fa, aok := coerceNumber(a)
	fb, bok := coerceNumber(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case fa < fb:
		return -1, true
	case fa > fb:
		return 1, true
	default:
		return 0, true
	}
}

func coerceNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return ToNumber(v)
}

// StrictEqual compares without coercion between kinds: numbers equal
// numbers of any width, strings equal strings, booleans equal booleans.
func StrictEqual(a, b any) bool {
	fa, aok := ToNumber(a)
	fb, bok := ToNumber(b)
	if aok || bok {
		return aok && bok && fa == fb
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return false
	}
}
