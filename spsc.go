// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"code.hybscloud.com/atomix"
)

// SPSC is a single-producer single-consumer bounded queue.
//
// Based on Lamport's ring buffer with cached index optimization.
// The producer caches the consumer's dequeue index, and vice versa,
// reducing cross-core cache line traffic.
//
// Every operation is wait-free: O(1) for singles, O(count) for bulk.
//
// Memory: O(capacity) with minimal per-slot overhead
type SPSC[T any] struct {
	_          pad
	head       atomix.Uint64 // Consumer reads from here
	_          pad
	cachedTail uint64 // Consumer's cached view of tail
	_          pad
	tail       atomix.Uint64 // Producer writes here
	_          pad
	cachedHead uint64 // Producer's cached view of head
	_          pad
	buffer     []T
	mask       uint64
}

// NewSPSC creates a new SPSC queue.
// Capacity rounds up to the next power of 2. Panics if capacity < 2.
func NewSPSC[T any](capacity int) *SPSC[T] {
	if capacity < 2 {
		panic("weave: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	return &SPSC[T]{
		buffer: make([]T, n),
		mask:   n - 1,
	}
}

// Enqueue adds an element to the queue (producer only).
// Returns ErrWouldBlock if the queue is full.
func (q *SPSC[T]) Enqueue(elem *T) error {
	tail := q.tail.LoadRelaxed()
	if tail-q.cachedHead > q.mask {
		q.cachedHead = q.head.LoadAcquire()
		if tail-q.cachedHead > q.mask {
			return ErrWouldBlock
		}
	}

	q.buffer[tail&q.mask] = *elem
	q.tail.StoreRelease(tail + 1)
	return nil
}

// EnqueueBulk adds all elements of elems, or none (producer only).
// Returns ErrWouldBlock when the queue lacks room for the whole batch.
func (q *SPSC[T]) EnqueueBulk(elems []T) error {
	count := uint64(len(elems))
	tail := q.tail.LoadRelaxed()
	if tail+count-q.cachedHead > q.mask+1 {
		q.cachedHead = q.head.LoadAcquire()
		if tail+count-q.cachedHead > q.mask+1 {
			return ErrWouldBlock
		}
	}

	pos := tail & q.mask
	n := copy(q.buffer[pos:], elems)
	copy(q.buffer, elems[n:])

	q.tail.StoreRelease(tail + count)
	return nil
}

// Dequeue removes and returns an element (consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *SPSC[T]) Dequeue() (T, error) {
	head := q.head.LoadRelaxed()
	if head >= q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head >= q.cachedTail {
			var zero T
			return zero, ErrWouldBlock
		}
	}

	elem := q.buffer[head&q.mask]
	var zero T
	q.buffer[head&q.mask] = zero
	q.head.StoreRelease(head + 1)
	return elem, nil
}

// DequeueBulk fills out completely, or not at all (consumer only).
// Returns ErrWouldBlock when fewer than len(out) elements are readable.
func (q *SPSC[T]) DequeueBulk(out []T) error {
	count := uint64(len(out))
	head := q.head.LoadRelaxed()
	if head+count > q.cachedTail {
		q.cachedTail = q.tail.LoadAcquire()
		if head+count > q.cachedTail {
			return ErrWouldBlock
		}
	}

	var zero T
	for i := uint64(0); i < count; i++ {
		j := (head + i) & q.mask
		out[i] = q.buffer[j]
		q.buffer[j] = zero
	}

	q.head.StoreRelease(head + count)
	return nil
}

// Empty reports whether the queue was observed empty.
func (q *SPSC[T]) Empty() bool {
	return q.head.Load() == q.tail.LoadAcquire()
}

// Full reports whether the queue was observed full.
func (q *SPSC[T]) Full() bool {
	return q.tail.Load()-q.head.LoadAcquire() > q.mask
}

// Cap returns the queue capacity.
func (q *SPSC[T]) Cap() int {
	return int(q.mask + 1)
}
