package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBundle_Order(t *testing.T) {
	b := BundleOf("z", 1, "a", 2, "m", 3)
	assert.Equal(t, []string{"z", "a", "m"}, b.Names())

	b.Set("a", 20)
	assert.Equal(t, []string{"z", "a", "m"}, b.Names(), "replacing keeps position")
	v, ok := b.Get("a")
	require.True(t, ok)
	assert.Equal(t, 20, v)

	b.Delete("z")
	b.Delete("missing")
	assert.Equal(t, []string{"a", "m"}, b.Names())
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, map[string]any{"a": 20, "m": 3}, b.Map())

	b.Set("z", nil)
	assert.Equal(t, []string{"a", "m", "z"}, b.Names())
	v, ok = b.Get("z")
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestBundleOf_Panics(t *testing.T) {
	assert.Panics(t, func() { BundleOf("a") })
	assert.Panics(t, func() { BundleOf(1, 2) })
}

func TestSet(t *testing.T) {
	s, err := NewSet(1, 2, 1, "1")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []any{1, 2, "1"}, s.Items())
	assert.True(t, s.Contains("1"))
	assert.False(t, s.Contains(3))
	assert.False(t, s.Contains([]any{}))

	_, err = NewSet([]any{1})
	assert.Error(t, err)

	f, err := NewFrozenSet(true, nil)
	require.NoError(t, err)
	assert.True(t, f.Contains(nil))
	assert.Equal(t, 2, f.Len())
}
