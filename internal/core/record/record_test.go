package record

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/ppersist/pkg/value"
)

func loaded(pairs ...any) *value.Bundle {
	b := value.BundleOf(pairs...)
	names := make([]any, 0, b.Len())
	for _, n := range b.Names() {
		names = append(names, n)
	}
	b.Set(value.NamesKey, names)
	return b
}

func TestProject_UsesNamesOrder(t *testing.T) {
	b := value.BundleOf("b", 2, "a", 1, value.NamesKey, []any{"a", "b"})

	r, err := Project(b)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, r.Names())
	assert.Equal(t, []any{1, 2}, r.Values())
	assert.Equal(t, 2, r.Len())
	assert.False(t, r.Has(value.NamesKey))
}

func TestProject_WithoutNamesUsesBundleOrder(t *testing.T) {
	r, err := Project(value.BundleOf("z", 1, "y", 2))
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "y"}, r.Names())
}

func TestProject_UnlistedEntriesFollow(t *testing.T) {
	r, err := Project(value.BundleOf("x", 1, "extra", 2, value.NamesKey, []any{"x"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "extra"}, r.Names())
}

func TestProject_Empty(t *testing.T) {
	r, err := Project(loaded())
	require.NoError(t, err)
	assert.Zero(t, r.Len())
	assert.Equal(t, "Record with fields:", r.String())
	assert.Equal(t, "<Record()>", r.GoString())

	r, err = Project(nil)
	require.NoError(t, err)
	assert.Zero(t, r.Len())
}

func TestProject_MalformedNames(t *testing.T) {
	cases := map[string]any{
		"not_a_list":    "a",
		"not_strings":   []any{1},
		"missing_field": []any{"a", "ghost"},
		"duplicate":     []any{"a", "a"},
		"self":          []any{value.NamesKey},
	}
	for name, names := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Project(value.BundleOf("a", 1, value.NamesKey, names))
			assert.ErrorIs(t, err, ErrMalformedNames)
		})
	}
}

func TestRecord_Access(t *testing.T) {
	r, err := Project(loaded("count", 3, "label", "hi", "grid", value.Vector(1.0)))
	require.NoError(t, err)

	v, err := r.Get("label")
	require.NoError(t, err)
	assert.Equal(t, "hi", v)

	_, err = r.Get("missing")
	assert.ErrorIs(t, err, ErrFieldNotFound)

	v, err = r.At(0)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	v, err = r.At(-1)
	require.NoError(t, err)
	assert.IsType(t, &value.Array{}, v)

	_, err = r.At(3)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	_, err = r.At(-4)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)

	assert.True(t, r.Has("grid"))
	assert.False(t, r.Has("grids"))
}

func TestRecord_Strings(t *testing.T) {
	r, err := Project(loaded("a", 1, "b", 2))
	require.NoError(t, err)

	assert.Equal(t, "Record with fields:\n  a\n  b", r.String())
	assert.Equal(t, "<Record('a', 'b')>", r.GoString())
	assert.Equal(t, "<Record('a', 'b')>", fmt.Sprintf("%#v", r))
}

func TestRecord_Unpack(t *testing.T) {
	r, err := Project(loaded("count", 3, "label", "hi", "none", nil, "any", 1.5))
	require.NoError(t, err)

	var (
		count int
		label string
		none  = "preset"
		whole any
	)
	require.NoError(t, r.Unpack(&count, &label, &none, &whole))
	assert.Equal(t, 3, count)
	assert.Equal(t, "hi", label)
	assert.Empty(t, none)
	assert.Equal(t, 1.5, whole)

	require.NoError(t, r.Unpack(nil, &label, nil, nil))

	assert.Error(t, r.Unpack(&count))
	assert.Error(t, r.Unpack(&label, nil, nil, nil), "int into string")
	assert.Error(t, r.Unpack(count, nil, nil, nil), "not a pointer")
}

func TestRecord_BundleDropsNames(t *testing.T) {
	r, err := Project(loaded("a", 1, "b", 2))
	require.NoError(t, err)

	b := r.Bundle()
	assert.Equal(t, []string{"a", "b"}, b.Names())
	_, ok := b.Get(value.NamesKey)
	assert.False(t, ok)
}

func TestRecord_ValuesAreCopies(t *testing.T) {
	r, err := Project(loaded("a", 1))
	require.NoError(t, err)

	vals := r.Values()
	vals[0] = 99
	names := r.Names()
	names[0] = "z"

	v, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}
