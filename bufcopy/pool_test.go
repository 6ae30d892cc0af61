package bufcopy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBytePool(t *testing.T) {
	p := newBytePool(1, 8)

	b := p.Get()
	assert.Len(t, b, 8)

	p.Put(b)
	assert.Len(t, p.freeList, 1)

	// the pool is full, the extra buffer is dropped
	p.Put(make([]byte, 8))
	assert.Len(t, p.freeList, 1)

	// wrong size is never pooled
	<-p.freeList
	p.Put(make([]byte, 4))
	assert.Len(t, p.freeList, 0)

	// a resliced buffer comes back at full length
	p.Put(b[:3])
	assert.Len(t, p.Get(), 8)
}
