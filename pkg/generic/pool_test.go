package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_ResetsOnPut(t *testing.T) {
	created := 0
	p := NewPool(func() *bytes.Buffer {
		created++
		return &bytes.Buffer{}
	}, (*bytes.Buffer).Reset)

	buf := p.Get()
	buf.WriteString("dirty")
	p.Put(buf)

	assert.Zero(t, buf.Len())
	assert.Zero(t, p.Get().Len())
	assert.GreaterOrEqual(t, created, 1)
}

func TestPool_NilReset(t *testing.T) {
	p := NewPool(func() []int { return make([]int, 0, 4) }, nil)
	s := p.Get()
	assert.Equal(t, 4, cap(s))
	p.Put(s)
}
