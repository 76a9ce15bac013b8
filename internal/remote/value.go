package remote

import "strconv"

// Value wraps an untyped value read from the remote store. The store is
// dynamically typed and upstream writers have historically stored the same
// field as a string in one record and a number in the next, so every field
// access goes through an explicit coercion that returns a typed default
// instead of assuming shape.
//
// The underlying representation is what encoding/json produces for untyped
// decoding: map[string]any, []any, string, float64, bool or nil.
type Value struct {
	raw any
}

// NewValue wraps a raw value.
func NewValue(raw any) Value {
	return Value{raw: raw}
}

// Raw returns the untyped underlying value.
func (v Value) Raw() any {
	return v.raw
}

// IsMissing reports whether there is no value at all.
func (v Value) IsMissing() bool {
	return v.raw == nil
}

// IsRecord reports whether the value is a key/value record.
func (v Value) IsRecord() bool {
	_, ok := v.raw.(map[string]any)
	return ok
}

// Child returns the named field of a record, or a missing Value when the
// value is not a record or the field is absent.
func (v Value) Child(key string) Value {
	m, ok := v.raw.(map[string]any)
	if !ok {
		return Value{}
	}
	return Value{raw: m[key]}
}

// AsString losslessly stringifies a scalar. Records, lists and missing
// values yield ("", false); everything else is rendered the way the writer
// would have rendered it.
func (v Value) AsString() (string, bool) {
	switch raw := v.raw.(type) {
	case string:
		return raw, true
	case float64:
		return strconv.FormatFloat(raw, 'f', -1, 64), true
	case int64:
		return strconv.FormatInt(raw, 10), true
	case int:
		return strconv.Itoa(raw), true
	case bool:
		return strconv.FormatBool(raw), true
	default:
		return "", false
	}
}

// AsFloat returns the value as a number. Numeric values are used as-is,
// strings are parsed; anything else yields (0, false).
func (v Value) AsFloat() (float64, bool) {
	switch raw := v.raw.(type) {
	case float64:
		return raw, true
	case int64:
		return float64(raw), true
	case int:
		return float64(raw), true
	case string:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// StringOr returns the scalar rendering of the value, or def.
func (v Value) StringOr(def string) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	return def
}

// FloatOr returns the numeric rendering of the value, or def.
func (v Value) FloatOr(def float64) float64 {
	if f, ok := v.AsFloat(); ok {
		return f
	}
	return def
}
