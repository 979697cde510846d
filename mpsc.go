// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"code.hybscloud.com/atomix"
)

// MPSC is a wait-free multi-producer single-consumer bounded queue.
//
// Producers reserve room by decrementing a shared writable count, then
// claim positions with a fetch-and-add on the write head. Each slot
// carries a journal flag; the producer stores the value first and sets
// the flag last, which is the synchronization point for the consumer.
//
// A producer that has reserved a slot but not yet set its flag delays the
// consumer at that slot only: reservations are handed out in fetch-add
// order, so a stalled producer creates head-of-line delay, never
// deadlock.
//
// Memory: n slots for capacity n (journal flag + value per slot)
type MPSC[T any] struct {
	_        pad
	head     atomix.Uint64 // Producer reservation index (FAA)
	_        pad
	writable atomix.Int64 // Free slots remaining
	_        pad
	tail     uint64 // Consumer-local dequeue index
	_        pad
	buffer   []mpscSlot[T]
	mask     uint64
}

type mpscSlot[T any] struct {
	full atomix.Bool // Journal: value present
	data T
	_    padShort
}

// NewMPSC creates a new MPSC queue.
// Capacity rounds up to the next power of 2. Panics if capacity < 2.
func NewMPSC[T any](capacity int) *MPSC[T] {
	if capacity < 2 {
		panic("weave: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	q := &MPSC[T]{
		buffer: make([]mpscSlot[T], n),
		mask:   n - 1,
	}
	q.writable.StoreRelaxed(int64(n))
	return q
}

// reserve claims count consecutive slots for writing.
// Fails without effect when fewer than count slots are free.
func (q *MPSC[T]) reserve(count int64) (uint64, bool) {
	if q.writable.AddAcqRel(-count) < 0 {
		q.writable.AddAcqRel(count)
		return 0, false
	}
	return q.head.AddAcqRel(uint64(count)) - uint64(count), true
}

// Enqueue adds an element to the queue (multiple producers safe).
// Returns ErrWouldBlock if the queue is full.
//
// Progress: wait-free, O(1).
func (q *MPSC[T]) Enqueue(elem *T) error {
	pos, ok := q.reserve(1)
	if !ok {
		return ErrWouldBlock
	}

	slot := &q.buffer[pos&q.mask]
	slot.data = *elem
	slot.full.StoreRelease(true)
	return nil
}

// EnqueueBulk adds all elements of elems, or none (multiple producers
// safe). Returns ErrWouldBlock when the queue lacks room for the whole
// batch.
//
// Progress: wait-free, O(count).
func (q *MPSC[T]) EnqueueBulk(elems []T) error {
	count := int64(len(elems))
	if count == 0 {
		return nil
	}

	pos, ok := q.reserve(count)
	if !ok {
		return ErrWouldBlock
	}

	for i := range elems {
		slot := &q.buffer[(pos+uint64(i))&q.mask]
		slot.data = elems[i]
		slot.full.StoreRelease(true)
	}
	return nil
}

// Dequeue removes and returns an element (single consumer only).
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
//
// Progress: wait-free, O(1).
func (q *MPSC[T]) Dequeue() (T, error) {
	slot := &q.buffer[q.tail&q.mask]
	if !slot.full.LoadAcquire() {
		var zero T
		return zero, ErrWouldBlock
	}

	elem := slot.data
	var zero T
	slot.data = zero
	slot.full.StoreRelease(false)
	q.tail++
	q.writable.AddAcqRel(1)
	return elem, nil
}

// DequeueBulk fills out completely, or not at all (single consumer only).
// Returns ErrWouldBlock when fewer than len(out) elements are readable.
//
// Progress: wait-free, O(count).
func (q *MPSC[T]) DequeueBulk(out []T) error {
	count := uint64(len(out))
	if count > uint64(len(q.buffer)) {
		return ErrWouldBlock
	}

	for i := uint64(0); i < count; i++ {
		if !q.buffer[(q.tail+i)&q.mask].full.LoadAcquire() {
			return ErrWouldBlock
		}
	}

	var zero T
	for i := uint64(0); i < count; i++ {
		slot := &q.buffer[(q.tail+i)&q.mask]
		out[i] = slot.data
		slot.data = zero
		slot.full.StoreRelease(false)
	}

	q.tail += count
	q.writable.AddAcqRel(int64(count))
	return nil
}

// Empty reports whether the next slot to dequeue holds no value.
// Meaningful on the consumer goroutine only.
func (q *MPSC[T]) Empty() bool {
	return !q.buffer[q.tail&q.mask].full.LoadAcquire()
}

// Full reports whether the queue was observed full.
func (q *MPSC[T]) Full() bool {
	return q.writable.LoadAcquire() < 1
}

// Cap returns the queue capacity.
func (q *MPSC[T]) Cap() int {
	return len(q.buffer)
}
