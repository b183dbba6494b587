package registry

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAllowList(t *testing.T) {
	reg := Default()
	require.Equal(t, 20, reg.Len())

	for _, tag := range allowed {
		assert.True(t, reg.IsAllowed(tag), tag.String())
	}

	assert.False(t, reg.IsAllowed(Tag{"builtins", "eval"}))
	assert.False(t, reg.IsAllowed(Tag{"os", "system"}))
	assert.False(t, reg.IsAllowed(Tag{"table", "*"}))
	assert.False(t, reg.IsAllowed(Tag{"", ""}))
	// Matching is exact on both parts.
	assert.False(t, reg.IsAllowed(Tag{"ndarray", "DataFrame"}))
	assert.False(t, reg.IsAllowed(Tag{"Builtins", "complex"}))
}

func TestDefaultIsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestEmptyAndNilRegistry(t *testing.T) {
	assert.Equal(t, 0, Empty().Len())
	assert.False(t, Empty().IsAllowed(TagComplex))

	var reg *Registry
	assert.False(t, reg.IsAllowed(TagComplex))
	assert.Equal(t, 0, reg.Len())
	assert.Nil(t, reg.Tags())
}

func TestTagsSorted(t *testing.T) {
	reg := New(TagSeries, TagComplex, TagDType, TagBlockManager)
	assert.Equal(t, []Tag{TagComplex, TagDType, TagBlockManager, TagSeries}, reg.Tags())
}

func TestTagString(t *testing.T) {
	assert.Equal(t, "table.DataFrame", TagDataFrame.String())
}

func TestConcurrentReads(t *testing.T) {
	reg := Default()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, tag := range allowed {
				if !reg.IsAllowed(tag) {
					t.Errorf("tag %s not allowed", tag)
				}
			}
		}()
	}
	wg.Wait()
}
