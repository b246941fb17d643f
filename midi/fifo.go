package midi

import "sync/atomic"

// FIFO is a bounded single-producer/single-consumer lock-free ring. Neither
// side ever blocks the other. When the ring is full, Push drops the element
// being pushed (drop-newest), so events already queued keep their timing
// within the block.
//
// Exactly one goroutine may call Push and exactly one may call Pop.
type FIFO[T any] struct {
	buf  []T
	mask uint32

	head    atomic.Uint32 // next slot to pop
	tail    atomic.Uint32 // next slot to push
	dropped atomic.Uint64
}

// NewFIFO creates a ring holding at least capacity elements, rounded up to a
// power of two.
func NewFIFO[T any](capacity int) *FIFO[T] {
	n := uint32(1)
	for int(n) < capacity {
		n <<= 1
	}
	return &FIFO[T]{buf: make([]T, n), mask: n - 1}
}

// Cap returns the ring's effective capacity.
func (f *FIFO[T]) Cap() int { return len(f.buf) }

// Len returns the number of queued elements. Callable from either side.
func (f *FIFO[T]) Len() int {
	return int(f.tail.Load() - f.head.Load())
}

// Dropped returns how many elements have been discarded by the overflow
// policy since creation.
func (f *FIFO[T]) Dropped() uint64 { return f.dropped.Load() }

// Push enqueues v. Producer side only. Returns false when the ring was full
// and v was dropped.
func (f *FIFO[T]) Push(v T) bool {
	tail := f.tail.Load()
	if tail-f.head.Load() == uint32(len(f.buf)) {
		f.dropped.Add(1)
		return false
	}
	f.buf[tail&f.mask] = v
	f.tail.Store(tail + 1)
	return true
}

// Pop dequeues the oldest element. Consumer side only.
func (f *FIFO[T]) Pop() (T, bool) {
	var zero T
	head := f.head.Load()
	if head == f.tail.Load() {
		return zero, false
	}
	v := f.buf[head&f.mask]
	f.buf[head&f.mask] = zero
	f.head.Store(head + 1)
	return v, true
}
