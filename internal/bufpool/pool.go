// Package bufpool provides pooled scratch buffers for the diff
// engine's payload assembly, sized the way the teacher's queue buffer
// pool sizes I/O buffers: a handful of power-of-two buckets, sync.Pool
// underneath, pointer-to-slice to dodge sync.Pool's interface-boxing
// allocation on the hot path.
package bufpool

import "sync"

// Bucket sizes cover the page sizes diff.Compute is realistically
// configured with: a page at the 4 KiB default up through the 256 KiB
// figure the broader specification calls for, so a single page's
// payload never needs a pool miss.
const (
	size4k   = 4 * 1024
	size16k  = 16 * 1024
	size64k  = 64 * 1024
	size256k = 256 * 1024
)

var globalPool = struct {
	pool4k   sync.Pool
	pool16k  sync.Pool
	pool64k  sync.Pool
	pool256k sync.Pool
}{
	pool4k:   sync.Pool{New: func() any { b := make([]byte, size4k); return &b }},
	pool16k:  sync.Pool{New: func() any { b := make([]byte, size16k); return &b }},
	pool64k:  sync.Pool{New: func() any { b := make([]byte, size64k); return &b }},
	pool256k: sync.Pool{New: func() any { b := make([]byte, size256k); return &b }},
}

// Get returns a pooled buffer of at least size bytes. Requests larger
// than the biggest bucket bypass the pool entirely. Callers must call
// Put when done.
func Get(size int) []byte {
	switch {
	case size <= size4k:
		return (*globalPool.pool4k.Get().(*[]byte))[:size]
	case size <= size16k:
		return (*globalPool.pool16k.Get().(*[]byte))[:size]
	case size <= size64k:
		return (*globalPool.pool64k.Get().(*[]byte))[:size]
	case size <= size256k:
		return (*globalPool.pool256k.Get().(*[]byte))[:size]
	default:
		return make([]byte, size)
	}
}

// Put returns buf to the pool it came from, determined by its
// capacity. Buffers of non-standard capacity (i.e. never obtained from
// Get, or obtained via the oversized bypass) are simply dropped.
func Put(buf []byte) {
	c := cap(buf)
	buf = buf[:c]
	switch c {
	case size4k:
		globalPool.pool4k.Put(&buf)
	case size16k:
		globalPool.pool16k.Put(&buf)
	case size64k:
		globalPool.pool64k.Put(&buf)
	case size256k:
		globalPool.pool256k.Put(&buf)
	}
}
