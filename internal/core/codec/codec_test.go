package codec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/ppersist/internal/core/schema/registry"
	"github.com/zeusync/ppersist/pkg/value"
)

func roundTrip(t *testing.T, b *value.Bundle) *value.Bundle {
	t.Helper()
	blob, err := NewEncoder().Encode(b)
	require.NoError(t, err)
	out, err := NewDecoder(nil).Decode(blob)
	require.NoError(t, err)
	return out
}

func mustGet(t *testing.T, b *value.Bundle, name string) any {
	t.Helper()
	v, ok := b.Get(name)
	require.True(t, ok, "missing %q", name)
	return v
}

func TestRoundTrip_Scenario(t *testing.T) {
	grid := value.MustArray([]int{2, 2}, []float64{1, 2, 3, 4})
	in := value.BundleOf("count", 3, "label", "hi", "grid", grid)

	out := roundTrip(t, in)

	assert.Equal(t, []string{"count", "label", "grid", value.NamesKey}, out.Names())
	assert.Equal(t, 3, mustGet(t, out, "count"))
	assert.Equal(t, "hi", mustGet(t, out, "label"))

	got, ok := mustGet(t, out, "grid").(*value.Array)
	require.True(t, ok)
	assert.True(t, grid.Equal(got))
	assert.Equal(t, []int{2, 2}, got.Shape())
	assert.Equal(t, []any{"count", "label", "grid"}, mustGet(t, out, value.NamesKey))
}

func TestRoundTrip_Primitives(t *testing.T) {
	cases := []struct {
		name string
		in   any
	}{
		{"none", nil},
		{"true", true},
		{"false", false},
		{"int", 42},
		{"negative", -7},
		{"max_int", math.MaxInt64},
		{"float", 2.5},
		{"inf", math.Inf(-1)},
		{"string", "héllo"},
		{"empty_string", ""},
		{"complex", complex(1.5, -2)},
		{"int32", int32(-9)},
		{"int64", int64(1) << 40},
		{"float32", float32(0.25)},
		{"complex64", complex64(complex(3, 4))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := roundTrip(t, value.BundleOf("v", tc.in))
			assert.Equal(t, tc.in, mustGet(t, out, "v"))
		})
	}
}

func TestRoundTrip_NaN(t *testing.T) {
	out := roundTrip(t, value.BundleOf("v", math.NaN()))
	f, ok := mustGet(t, out, "v").(float64)
	require.True(t, ok)
	assert.True(t, math.IsNaN(f))
}

func TestRoundTrip_Arrays(t *testing.T) {
	arrays := map[string]*value.Array{
		"bool":       value.Vector(true, false, true),
		"int8":       value.Vector[int8](-1, 2),
		"uint16":     value.Vector[uint16](1, 65535),
		"int64":      value.Vector[int64](1, -2, 3),
		"float32":    value.Vector[float32](1.5),
		"float64_3d": value.MustArray([]int{2, 1, 3}, []float64{1, 2, 3, 4, 5, 6}),
		"complex128": value.Vector(complex(1, 2)),
		"strings":    value.MustArray([]int{2, 2}, []string{"a", "b", "", "d"}),
		"empty":      value.Vector[float64](),
		"nan":        value.Vector(math.NaN(), math.Inf(1)),
		"scalar":     value.MustArray(nil, []float64{7}),
	}

	for name, arr := range arrays {
		t.Run(name, func(t *testing.T) {
			out := roundTrip(t, value.BundleOf("a", arr))
			got, ok := mustGet(t, out, "a").(*value.Array)
			require.True(t, ok)
			assert.Equal(t, arr.DType(), got.DType())
			assert.Equal(t, arr.Shape(), got.Shape())
			assert.True(t, arr.Equal(got))
		})
	}
}

func TestRoundTrip_Collections(t *testing.T) {
	set, err := value.NewSet(1, "two", 3.0)
	require.NoError(t, err)
	frozen, err := value.NewFrozenSet("x", "y")
	require.NoError(t, err)

	in := value.BundleOf(
		"list", []any{1, "a", []any{}, nil},
		"tuple", value.Tuple{1, value.Tuple{2.5, "b"}},
		"mapping", map[string]any{"z": 1, "a": []any{true}, "m": map[string]any{}},
		"set", set,
		"frozen", frozen,
		"empty_set", mustSet(t),
		"nested", map[string]any{"arr": value.Vector(1.0, 2.0)},
	)

	out := roundTrip(t, in)

	assert.Equal(t, []any{1, "a", []any{}, nil}, mustGet(t, out, "list"))
	assert.Equal(t, value.Tuple{1, value.Tuple{2.5, "b"}}, mustGet(t, out, "tuple"))
	assert.Equal(t, map[string]any{"z": 1, "a": []any{true}, "m": map[string]any{}}, mustGet(t, out, "mapping"))

	gotSet, ok := mustGet(t, out, "set").(*value.Set)
	require.True(t, ok)
	assert.ElementsMatch(t, set.Items(), gotSet.Items())

	gotFrozen, ok := mustGet(t, out, "frozen").(*value.FrozenSet)
	require.True(t, ok)
	assert.True(t, gotFrozen.Contains("x"))
	assert.True(t, gotFrozen.Contains("y"))
	assert.Equal(t, 2, gotFrozen.Len())

	gotEmpty, ok := mustGet(t, out, "empty_set").(*value.Set)
	require.True(t, ok)
	assert.Zero(t, gotEmpty.Len())

	nested, ok := mustGet(t, out, "nested").(map[string]any)
	require.True(t, ok)
	assert.True(t, value.Vector(1.0, 2.0).Equal(nested["arr"].(*value.Array)))
}

func TestRoundTrip_ListTypeDecodesAsSlice(t *testing.T) {
	out := roundTrip(t, value.BundleOf("l", value.List{1, 2}))
	assert.Equal(t, []any{1, 2}, mustGet(t, out, "l"))
}

func mustSet(t *testing.T, items ...any) *value.Set {
	t.Helper()
	s, err := value.NewSet(items...)
	require.NoError(t, err)
	return s
}

func TestRoundTrip_Frame(t *testing.T) {
	index, err := value.NewIndex(value.Vector[int64](10, 20, 30), "id")
	require.NoError(t, err)

	frame, err := value.NewFrame(index,
		value.Column{Name: "x", Values: value.Vector(1.0, 2.0, 3.0)},
		value.Column{Name: "y", Values: value.Vector(4.0, 5.0, 6.0)},
		value.Column{Name: "n", Values: value.Vector[int64](7, 8, 9)},
		value.Column{Name: "tag", Values: value.Vector("a", "b", "c")},
		value.Column{Name: "w", Values: value.Vector(0.5, 0.25, 0.125)},
	)
	require.NoError(t, err)

	out := roundTrip(t, value.BundleOf("df", frame))
	got, ok := mustGet(t, out, "df").(*value.Frame)
	require.True(t, ok)

	assert.Equal(t, frame.Columns(), got.Columns())
	assert.Equal(t, 3, got.NumRows())
	assert.Equal(t, "id", got.Index().Name())
	assert.True(t, index.Values().Equal(got.Index().Values()))
	for i := 0; i < frame.NumCols(); i++ {
		want := frame.ColumnAt(i)
		have := got.ColumnAt(i)
		assert.Equal(t, want.Name, have.Name)
		assert.True(t, want.Values.Equal(have.Values), "column %s", want.Name)
	}
}

func TestRoundTrip_FrameDefaultIndex(t *testing.T) {
	frame, err := value.NewFrame(nil, value.Column{Name: "a", Values: value.Vector[int32](1, 2)})
	require.NoError(t, err)

	out := roundTrip(t, value.BundleOf("df", frame))
	got := mustGet(t, out, "df").(*value.Frame)

	r, ok := got.Index().Range()
	require.True(t, ok)
	assert.Equal(t, value.Range{Start: 0, Stop: 2, Step: 1}, r)
	assert.Equal(t, frame, got)
}

func TestRoundTrip_EmptyFrame(t *testing.T) {
	frame, err := value.NewFrame(nil)
	require.NoError(t, err)

	out := roundTrip(t, value.BundleOf("df", frame))
	got := mustGet(t, out, "df").(*value.Frame)
	assert.Zero(t, got.NumCols())
	assert.Zero(t, got.NumRows())
}

func TestRoundTrip_Series(t *testing.T) {
	index, err := value.NewRangeIndex(5, 11, 2, "step")
	require.NoError(t, err)
	series, err := value.NewSeries("price", value.Vector(1.5, 2.5, 3.5), index)
	require.NoError(t, err)

	out := roundTrip(t, value.BundleOf("s", series))
	got, ok := mustGet(t, out, "s").(*value.Series)
	require.True(t, ok)

	assert.Equal(t, "price", got.Name())
	assert.True(t, series.Values().Equal(got.Values()))
	assert.Equal(t, "step", got.Index().Name())
	r, ok := got.Index().Range()
	require.True(t, ok)
	assert.Equal(t, value.Range{Start: 5, Stop: 11, Step: 2}, r)
}

func TestRoundTrip_UnnamedStringSeries(t *testing.T) {
	series, err := value.NewSeries("", value.Vector("a", "b"), nil)
	require.NoError(t, err)

	out := roundTrip(t, value.BundleOf("s", series))
	assert.Equal(t, series, mustGet(t, out, "s"))
}

func TestRoundTrip_PreservesOrder(t *testing.T) {
	in := value.NewBundle()
	names := []string{"zeta", "alpha", "mid", "_under", "b2"}
	for i, n := range names {
		in.Set(n, i)
	}

	out := roundTrip(t, in)
	assert.Equal(t, append(names, value.NamesKey), out.Names())
}

func TestRoundTrip_EmptyBundle(t *testing.T) {
	out := roundTrip(t, value.NewBundle())
	assert.Equal(t, []string{value.NamesKey}, out.Names())
	assert.Equal(t, []any{}, mustGet(t, out, value.NamesKey))
}

func TestEncode_Deterministic(t *testing.T) {
	m := map[string]any{}
	for _, k := range []string{"q", "w", "e", "r", "t", "y", "u", "i", "o", "p"} {
		m[k] = k
	}
	b := value.BundleOf("m", m)

	first, err := NewEncoder().Encode(b)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := NewEncoder().Encode(b)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEncode_ValidationBeforeOutput(t *testing.T) {
	cases := []struct {
		name string
		key  string
		v    any
	}{
		{"leading_digit", "1a", 1},
		{"dash", "a-b", 1},
		{"space", "a b", 1},
		{"empty", "", 1},
		{"non_ascii", "é", 1},
		{"reserved", value.NamesKey, 1},
		{"unsupported_value", "f", func() {}},
		{"nested_unsupported", "l", []any{1, struct{}{}}},
		{"object_array", "o", mustObjectArray(t, 1)},
		{"nil_array", "a", (*value.Array)(nil)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := value.BundleOf("ok", 1, tc.key, tc.v)
			blob, err := NewEncoder().Encode(b)
			require.Error(t, err)
			assert.Nil(t, blob)
			assert.True(t, IsValidation(err))

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, ErrorCodeValidation, e.Code)
			assert.Equal(t, tc.key, e.Key)
		})
	}
}

func TestEncode_UnsupportedCarriesPath(t *testing.T) {
	_, err := NewEncoder().Encode(value.BundleOf("cfg", map[string]any{"hook": make(chan int)}))
	require.Error(t, err)

	var unsupported *value.UnsupportedError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "hook", unsupported.Path)
	assert.Equal(t, "chan int", unsupported.Type)
}

func TestEncode_ValidNames(t *testing.T) {
	for _, name := range []string{"_", "a", "A1", "_x_", "snake_case", "CamelCase"} {
		_, err := NewEncoder().Encode(value.BundleOf(name, 1))
		assert.NoError(t, err, name)
	}
}

func TestEncodeUnchecked_StillValidatesNames(t *testing.T) {
	_, err := NewEncoder().EncodeUnchecked(value.BundleOf("not valid", 1))
	assert.True(t, IsValidation(err))
}

func TestTags(t *testing.T) {
	set := mustSet(t, 1)
	blob, err := NewEncoder().Encode(value.BundleOf("z", complex(1, 1), "s", set, "w", complex(2, 2), "p", 1))
	require.NoError(t, err)

	tags, err := Tags(blob)
	require.NoError(t, err)
	assert.Equal(t, []registry.Tag{registry.TagComplex, registry.TagSet}, tags)
}

func TestTags_Frame(t *testing.T) {
	frame, err := value.NewFrame(nil, value.Column{Name: "a", Values: value.Vector(1.0)})
	require.NoError(t, err)
	blob, err := NewEncoder().Encode(value.BundleOf("df", frame))
	require.NoError(t, err)

	tags, err := Tags(blob)
	require.NoError(t, err)
	require.NotEmpty(t, tags)
	assert.Equal(t, registry.TagDataFrame, tags[0])
	for _, tag := range tags {
		assert.True(t, registry.Default().IsAllowed(tag), tag.String())
	}
	assert.Contains(t, tags, registry.TagRestoreBlock)
	assert.Contains(t, tags, registry.TagRangeIndex)
}

func TestTags_PrimitivesOnly(t *testing.T) {
	blob, err := NewEncoder().Encode(value.BundleOf("a", 1, "b", "x"))
	require.NoError(t, err)

	tags, err := Tags(blob)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func mustObjectArray(t *testing.T, items ...any) *value.Array {
	t.Helper()
	a, err := value.NewObjectArray([]int{len(items)}, items)
	require.NoError(t, err)
	return a
}
