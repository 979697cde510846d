// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// Set is an unordered set with blocking mutation and lock-free
// iteration.
//
// Elements are compared with ==. Nodes are kept as a singly-linked list
// sorted by node address; the address order is not user-visible, it is
// what lets an iterator that restarted after racing a removal skip every
// node it has already visited, at the cost of possibly missing elements
// inserted during the traversal.
//
// An iterator never assists a removal: completing one could deallocate,
// and iteration must stay lock-free even when reclamation is not. When
// the current node's removed flag is set, its link no longer makes the
// rest of the list reachable from the head, so the iterator restarts
// from the head instead of following it.
type Set[T comparable] struct {
	head *setNode[T] // sentinel, never removed
	mu   sync.Mutex
}

type setNode[T comparable] struct {
	next    atomic.Pointer[setNode[T]]
	removed atomix.Bool
	value   T
}

// NewSet creates an empty set.
func NewSet[T comparable]() *Set[T] {
	return &Set[T]{head: &setNode[T]{}}
}

// Empty reports whether the set contains no elements.
//
// Progress: wait-free, O(1).
func (s *Set[T]) Empty() bool {
	return s.head.next.Load() == nil
}

// Insert adds value if it is not already present.
//
// Progress: blocking, O(n).
func (s *Set[T]) Insert(value T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for n := s.head.next.Load(); n != nil; n = n.next.Load() {
		if n.value == value {
			return
		}
	}

	node := &setNode[T]{value: value}

	// Keep nodes in increasing address order.
	prev := s.head
	for next := prev.next.Load(); next != nil && nodeAddr(next) < nodeAddr(node); next = prev.next.Load() {
		prev = next
	}

	node.next.Store(prev.next.Load())
	prev.next.Store(node)
}

// Remove deletes value if it is present and reports whether it was.
//
// Progress: blocking, O(n) plus reclamation.
func (s *Set[T]) Remove(value T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.head
	for cur := prev.next.Load(); cur != nil; cur = prev.next.Load() {
		if cur.value == value {
			prev.next.Store(cur.next.Load())
			cur.removed.Store(true)
			retireSetNode(cur)
			return true
		}
		prev = cur
	}
	return false
}

// Clear removes all elements.
//
// Progress: blocking, O(n) plus reclamation.
func (s *Set[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.head.next.Load()
	s.head.next.Store(nil)
	for n != nil {
		next := n.next.Load()
		n.removed.Store(true)
		retireSetNode(n)
		n = next
	}
}

// retireSetNode schedules n for destruction once no iterator protects it.
// Destruction clears the value so anything it references is collectible.
func retireSetNode[T comparable](n *setNode[T]) {
	Retire(unsafe.Pointer(n), func() {
		var zero T
		n.value = zero
		n.next.Store(nil)
	})
}

// Contains reports whether value is in the set.
//
// Progress: lock-free, O(n).
func (s *Set[T]) Contains(value T) bool {
	found := false
	s.Each(func(v T) bool {
		if v == value {
			found = true
			return false
		}
		return true
	})
	return found
}

// Each calls fn for each element until fn returns false.
// The traversal is lock-free; see Iterate for its guarantees.
func (s *Set[T]) Each(fn func(T) bool) {
	it := s.Iterate()
	defer it.Close()
	for it.Next() {
		if !fn(it.Value()) {
			return
		}
	}
}

// SetIterator is a lock-free iterator over a Set.
//
// The iterator visits each element present for the whole traversal at
// most once. Elements removed during the traversal may or may not be
// visited; elements inserted during it may be missed. The element
// reference returned by Value is protected by the iterator's hazard
// slots and is valid until the next call to Next or Close.
type SetIterator[T comparable] struct {
	set *Set[T]
	h0  *Hazard // protects the current node
	h1  *Hazard // protects the next node during a step
	cur *setNode[T]
	// Highest node address visited; after a restart, nodes at or below
	// it were already visited and are skipped.
	last uintptr
}

// Iterate returns an iterator positioned before the first element.
// The iterator claims two hazard slots; Close releases them.
//
// Progress: wait-free, O(1).
func (s *Set[T]) Iterate() *SetIterator[T] {
	it := &SetIterator[T]{set: s, h0: mustAcquireHazard(), h1: mustAcquireHazard(), cur: s.head}
	it.h0.Protect(unsafe.Pointer(s.head))
	return it
}

// Next advances to the next unvisited element and reports whether one
// exists.
//
// Progress: lock-free; restarts are bounded by concurrent removals.
func (it *SetIterator[T]) Next() bool {
	cur := it.cur
	if cur == nil {
		return false
	}

	for {
		next := cur.next.Load()
		it.h1.Protect(unsafe.Pointer(next))

		if cur.removed.Load() {
			// The link out of a removed node no longer reaches the rest
			// of the list; restart from the head.
			cur = it.set.head
			it.h0.Protect(unsafe.Pointer(cur))
			continue
		}
		if cur.next.Load() != next {
			continue
		}

		// next is protected and was reachable; make it current.
		cur = next
		it.h0.Protect(unsafe.Pointer(cur))
		if cur == nil {
			it.cur = nil
			return false
		}
		if nodeAddr(cur) > it.last {
			break
		}
		// Already visited before a restart; keep stepping.
	}

	it.last = nodeAddr(cur)
	it.cur = cur
	return true
}

// Value returns the current element. Valid only after Next returned true
// and before the following Next or Close.
func (it *SetIterator[T]) Value() T {
	return it.cur.value
}

// Close releases the iterator's hazard slots. The iterator must not be
// used afterwards.
func (it *SetIterator[T]) Close() {
	it.h0.Release()
	it.h1.Release()
	it.cur = nil
}

func nodeAddr[T comparable](n *setNode[T]) uintptr {
	return uintptr(unsafe.Pointer(n))
}
