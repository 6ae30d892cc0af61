package bufcopy

// bytePool is a fixed-size buffer free list.
type bytePool struct {
	freeList chan []byte
	bufSize  int // size of each buffer
}

func newBytePool(bufNum, bufSize int) *bytePool {
	return &bytePool{
		freeList: make(chan []byte, bufNum),
		bufSize:  bufSize,
	}
}

// Get returns a pooled buffer or allocates a new one.
func (p *bytePool) Get() (b []byte) {
	select {
	case b = <-p.freeList:
	default:
		b = make([]byte, p.bufSize)
	}
	return
}

// Put returns b to the pool. Buffers of the wrong size, and buffers that do
// not fit in a full pool, are dropped.
func (p *bytePool) Put(b []byte) {
	if cap(b) != p.bufSize {
		return
	}
	select {
	case p.freeList <- b[:p.bufSize]:
	default:
	}
}
