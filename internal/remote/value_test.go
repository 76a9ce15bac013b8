package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_AsString(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
		ok   bool
	}{
		{"string", "hello", "hello", true},
		{"float", float64(19.99), "19.99", true},
		{"whole float", float64(42), "42", true},
		{"int", 7, "7", true},
		{"int64", int64(9), "9", true},
		{"bool", true, "true", true},
		{"missing", nil, "", false},
		{"record", map[string]any{"a": 1}, "", false},
		{"list", []any{"a"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewValue(tt.raw).AsString()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_AsFloat(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
		ok   bool
	}{
		{"float", float64(19.99), 19.99, true},
		{"int", 7, 7, true},
		{"numeric string", "123.5", 123.5, true},
		{"non-numeric string", "abc", 0, false},
		{"missing", nil, 0, false},
		{"record", map[string]any{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NewValue(tt.raw).AsFloat()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_Defaults(t *testing.T) {
	assert.Equal(t, "fallback", NewValue(nil).StringOr("fallback"))
	assert.Equal(t, "99", NewValue(float64(99)).StringOr("fallback"))
	assert.Equal(t, 5.0, NewValue(nil).FloatOr(5))
	assert.Equal(t, 2.5, NewValue("2.5").FloatOr(5))
}

func TestValue_Child(t *testing.T) {
	v := NewValue(map[string]any{
		"title": "Dune",
		"meta":  map[string]any{"pages": float64(412)},
	})

	assert.True(t, v.IsRecord())
	assert.Equal(t, "Dune", v.Child("title").StringOr(""))
	assert.Equal(t, 412.0, v.Child("meta").Child("pages").FloatOr(0))
	assert.True(t, v.Child("absent").IsMissing())
	assert.True(t, NewValue("scalar").Child("x").IsMissing())
}

func TestSnapshot_ChildrenSorted(t *testing.T) {
	snap := NewSnapshot("books", map[string]any{
		"c": map[string]any{"title": "Third"},
		"a": map[string]any{"title": "First"},
		"b": map[string]any{"title": "Second"},
	})

	assert.True(t, snap.Exists())
	children := snap.Children()
	if assert.Len(t, children, 3) {
		assert.Equal(t, "a", children[0].Key)
		assert.Equal(t, "b", children[1].Key)
		assert.Equal(t, "c", children[2].Key)
	}
	assert.Equal(t, "Second", snap.Child("b").Value.Child("title").StringOr(""))
	assert.False(t, snap.Child("zzz").Exists())
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "carts/u1/book42", Join("carts", "u1", "book42"))
	assert.Equal(t, "a/b", Join("/a/", "", "b/"))
	assert.Equal(t, "", Join("", "/"))
}
