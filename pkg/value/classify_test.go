package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct{ X, Y int }

func TestSupported(t *testing.T) {
	set, err := NewSet(1, "a")
	require.NoError(t, err)
	frozen, err := NewFrozenSet(2.5)
	require.NoError(t, err)
	frame, err := NewFrame(nil, Column{Name: "c", Values: Vector(1.0)})
	require.NoError(t, err)
	series, err := NewSeries("s", Vector("a"), nil)
	require.NoError(t, err)

	supported := map[string]any{
		"nil":         nil,
		"bool":        true,
		"int":         1,
		"int32":       int32(1),
		"int64":       int64(1),
		"float32":     float32(1),
		"float64":     math.NaN(),
		"complex64":   complex64(1),
		"complex128":  complex(1, 1),
		"string":      "s",
		"array":       Vector(math.Inf(1)),
		"empty_array": Vector[int8](),
		"string_arr":  Vector("a"),
		"index":       DefaultIndex(3),
		"frame":       frame,
		"series":      series,
		"list":        []any{1, []any{}},
		"typed_list":  List{1},
		"tuple":       Tuple{Tuple{}},
		"set":         set,
		"frozenset":   frozen,
		"mapping":     map[string]any{"a": map[string]any{"b": Tuple{1}}},
		"empty_map":   map[string]any{},
	}
	for name, v := range supported {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, Check(v))
			assert.True(t, Supported(v))
		})
	}
}

func TestUnsupported(t *testing.T) {
	objects, err := NewObjectArray([]int{1}, []any{point{}})
	require.NoError(t, err)
	objFrame, err := NewFrame(nil, Column{Name: "o", Values: objects})
	require.NoError(t, err)

	cases := []struct {
		name string
		in   any
		path string
		typ  string
	}{
		{"struct", point{}, "", "value.point"},
		{"pointer", &point{}, "", "*value.point"},
		{"func", func() {}, "", "func()"},
		{"uint", uint(1), "", "uint"},
		{"int8", int8(1), "", "int8"},
		{"bytes", []byte("x"), "", "[]uint8"},
		{"typed_slice", []int{1}, "", "[]int"},
		{"int_map", map[int]any{}, "", "map[int]interface {}"},
		{"nil_array", (*Array)(nil), "", "*value.Array"},
		{"nil_frame", (*Frame)(nil), "", "*value.Frame"},
		{"object_array", objects, "", "*value.Array"},
		{"in_list", []any{1, 2, point{}}, "[2]", "value.point"},
		{"in_tuple", Tuple{[]any{point{}}}, "[0][0]", "value.point"},
		{"in_mapping", map[string]any{"a": map[string]any{"b": point{}}}, "a.b", "value.point"},
		{"frame_column", objFrame, "o", "*value.Array"},
		{"nested_frame", map[string]any{"df": objFrame}, "df.o", "*value.Array"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Check(tc.in)
			require.Error(t, err)
			assert.False(t, Supported(tc.in))

			var unsupported *UnsupportedError
			require.ErrorAs(t, err, &unsupported)
			assert.Equal(t, tc.path, unsupported.Path)
			assert.Equal(t, tc.typ, unsupported.Type)
		})
	}
}

func TestUnsupportedError_Message(t *testing.T) {
	err := Check(map[string]any{"cfg": point{}})
	assert.EqualError(t, err, "cannot save value.point at cfg")

	err = Check((*Series)(nil))
	assert.EqualError(t, err, "cannot save *value.Series: nil series")
}

func TestValidName(t *testing.T) {
	valid := []string{"a", "_", "_a1", "Count", "x_y_z", "A9"}
	invalid := []string{"", "1a", "a-b", "a b", "a.b", "é", "a\n"}

	for _, name := range valid {
		assert.True(t, ValidName(name), name)
	}
	for _, name := range invalid {
		assert.False(t, ValidName(name), name)
	}
}
