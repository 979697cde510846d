// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

const (
	mpmcEmpty uint64 = iota
	mpmcFull
)

// MPMC is a lock-free multi-producer multi-consumer bounded queue.
//
// Producers and consumers reserve positions by CAS on full-word iteration
// counters; a slot's state transitions empty→full by exactly one producer
// and full→empty by exactly one consumer. Reservation order defines FIFO;
// the slot-state store finalizes visibility.
//
// An individual Enqueue or Dequeue can retry under contention, but some
// competing operation always completes its reservation, so the system as
// a whole makes progress.
//
// Memory: n slots for capacity n (state word + value per slot)
type MPMC[T any] struct {
	_        pad
	writePos atomix.Uint64 // Producer iteration counter (CAS)
	_        pad
	readPos  atomix.Uint64 // Consumer iteration counter (CAS)
	_        pad
	buffer   []mpmcSlot[T]
	mask     uint64
}

type mpmcSlot[T any] struct {
	state atomix.Uint64 // mpmcEmpty or mpmcFull
	data  T
	_     padShort
}

// NewMPMC creates a new MPMC queue.
// Capacity rounds up to the next power of 2. Panics if capacity < 2.
func NewMPMC[T any](capacity int) *MPMC[T] {
	if capacity < 2 {
		panic("weave: capacity must be >= 2")
	}

	n := uint64(roundToPow2(capacity))
	return &MPMC[T]{
		buffer: make([]mpmcSlot[T], n),
		mask:   n - 1,
	}
}

// Enqueue adds an element to the queue.
// Returns ErrWouldBlock if the queue is full.
//
// Progress: lock-free.
func (q *MPMC[T]) Enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		iter := q.writePos.LoadAcquire()
		slot := &q.buffer[iter&q.mask]

		if slot.state.LoadAcquire() == mpmcFull {
			// Re-read to distinguish a full queue from a stale snapshot.
			if q.writePos.LoadAcquire() == iter {
				return ErrWouldBlock
			}
			sw.Once()
			continue
		}

		if q.writePos.CompareAndSwapAcqRel(iter, iter+1) {
			slot.data = *elem
			slot.state.StoreRelease(mpmcFull)
			return nil
		}
		sw.Once()
	}
}

// Dequeue removes and returns an element from the queue.
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
//
// Progress: lock-free.
func (q *MPMC[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		iter := q.readPos.LoadAcquire()
		slot := &q.buffer[iter&q.mask]

		if slot.state.LoadAcquire() == mpmcEmpty {
			if q.readPos.LoadAcquire() == iter {
				var zero T
				return zero, ErrWouldBlock
			}
			sw.Once()
			continue
		}

		if q.readPos.CompareAndSwapAcqRel(iter, iter+1) {
			elem := slot.data
			var zero T
			slot.data = zero
			slot.state.StoreRelease(mpmcEmpty)
			return elem, nil
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMC[T]) Cap() int {
	return len(q.buffer)
}
