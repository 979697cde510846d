// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// Cell is a single-value container of any type, read and written through
// any number of CellReader and CellWriter handles.
//
// Values live in nodes held by a per-cell arena; a node is always in
// exactly one place: published as current, owned privately by a handle,
// parked on the free list, or retired awaiting reclamation. The free-list
// head packs a version counter next to the node index, so a pop racing a
// pop-push cycle of the same node fails its CAS instead of corrupting the
// list. Node reclamation goes through the hazard pointer pool, which lets
// a reader take a reference on the current node without the writer ever
// waiting for it.
//
// Invariants: a node's reference count is 0 exactly while it is parked,
// retired, or owned privately by a writer; the current node's count is
// always at least 1.
type Cell[T any] struct {
	// First field: the 16-byte CAS on the free-list head needs 16-byte
	// alignment, which the start of the heap-allocated Cell provides.
	free    atomix.Uint128 // lo: pop/push version, hi: arena index + 1
	current atomic.Pointer[cellNode[T]]

	// Arena bookkeeping. Chunks are fixed once allocated; the chunk table
	// is replaced wholesale on growth so lock-free readers can follow it.
	mu      sync.Mutex
	chunks  atomic.Pointer[[]*cellChunk[T]]
	freeIdx []uint32
	count   uint32
}

type cellNode[T any] struct {
	value T
	ref   atomix.Int64
	next  atomix.Int64 // arena index + 1, meaningful only while parked
	idx   uint32
}

const (
	cellChunkBits = 6
	cellChunkSize = 1 << cellChunkBits
	cellChunkMask = cellChunkSize - 1
)

type cellChunk[T any] struct {
	slots [cellChunkSize]atomic.Pointer[cellNode[T]]
}

// NewCell creates a cell holding the zero value of T.
func NewCell[T any]() *Cell[T] {
	c := &Cell[T]{}
	chunks := make([]*cellChunk[T], 0)
	c.chunks.Store(&chunks)

	cur := c.newNode()
	cur.ref.StoreRelaxed(1)
	c.current.Store(cur)
	return c
}

// NewCellValue creates a cell holding value.
func NewCellValue[T any](value T) *Cell[T] {
	c := NewCell[T]()
	c.current.Load().value = value
	return c
}

// Close destroys the current node and drains the free list.
// The caller must have closed every handle first.
func (c *Cell[T]) Close() {
	for n := c.pop(); n != nil; n = c.pop() {
		c.dropNode(n)
	}
	if cur := c.current.Swap(nil); cur != nil {
		c.dropNode(cur)
	}
}

// newNode allocates an arena node, reusing a vacated slot when one
// exists.
func (c *Cell[T]) newNode() *cellNode[T] {
	c.mu.Lock()
	var idx uint32
	if k := len(c.freeIdx); k > 0 {
		idx = c.freeIdx[k-1]
		c.freeIdx = c.freeIdx[:k-1]
	} else {
		idx = c.count
		c.count++
		chunks := *c.chunks.Load()
		if int(idx>>cellChunkBits) >= len(chunks) {
			grown := make([]*cellChunk[T], len(chunks)+1)
			copy(grown, chunks)
			grown[len(chunks)] = &cellChunk[T]{}
			c.chunks.Store(&grown)
		}
	}
	n := &cellNode[T]{idx: idx}
	(*c.chunks.Load())[idx>>cellChunkBits].slots[idx&cellChunkMask].Store(n)
	c.mu.Unlock()
	return n
}

// dropNode vacates a node's arena slot, making the node collectible and
// its index reusable.
func (c *Cell[T]) dropNode(n *cellNode[T]) {
	c.mu.Lock()
	(*c.chunks.Load())[n.idx>>cellChunkBits].slots[n.idx&cellChunkMask].Store(nil)
	c.freeIdx = append(c.freeIdx, n.idx)
	c.mu.Unlock()
}

// retireNode hands a node to the hazard pointer reclaimer.
func (c *Cell[T]) retireNode(n *cellNode[T]) {
	Retire(unsafe.Pointer(n), func() { c.dropNode(n) })
}

func (c *Cell[T]) nodeAt(idx uint32) *cellNode[T] {
	chunks := *c.chunks.Load()
	return chunks[idx>>cellChunkBits].slots[idx&cellChunkMask].Load()
}

// push parks a reference-count-0 node on the free list.
func (c *Cell[T]) push(n *cellNode[T]) {
	for {
		ver, head := c.free.LoadAcquire()
		n.next.StoreRelaxed(int64(head))
		if c.free.CompareAndSwapAcqRel(ver, head, ver+1, uint64(n.idx)+1) {
			return
		}
	}
}

// pop takes a node off the free list, or returns nil when it is empty.
func (c *Cell[T]) pop() *cellNode[T] {
	for {
		ver, head := c.free.LoadAcquire()
		if head == 0 {
			return nil
		}
		n := c.nodeAt(uint32(head - 1))
		if n == nil {
			// The node at head was retired and reclaimed after the
			// snapshot; the version has moved on, reload.
			continue
		}
		next := uint64(n.next.LoadRelaxed())
		if c.free.CompareAndSwapAcqRel(ver, head, ver+1, next) {
			return n
		}
	}
}

// unref drops one reference, parking the node when the count hits 0.
func (c *Cell[T]) unref(n *cellNode[T]) {
	if n.ref.AddAcqRel(-1) == 0 {
		c.push(n)
	}
}

// makeCurrent publishes n (reference count 0, private to the caller),
// releases the displaced node and returns a fresh private node.
func (c *Cell[T]) makeCurrent(n *cellNode[T]) *cellNode[T] {
	n.ref.Store(1)
	old := c.current.Swap(n)
	c.unref(old)
	if fresh := c.pop(); fresh != nil {
		return fresh
	}
	return c.newNode()
}

// getCurrent exchanges the reference held on node for a reference on the
// current node. If node already is current, it is returned unchanged.
func (c *Cell[T]) getCurrent(node *cellNode[T]) *cellNode[T] {
	cur := c.current.Load()
	if cur == node {
		return node
	}

	// Claim the hazard slot before releasing node, so the held reference
	// stays valid if the pool is exhausted.
	h := mustAcquireHazard()
	c.unref(node)

	sw := spin.Wait{}
	for {
		cur = c.current.Load()
		h.Protect(unsafe.Pointer(cur))
		if c.current.Load() != cur {
			sw.Once()
			continue
		}
		// A count of 0 means cur was just displaced and parked or
		// retired; only join a node that still has holders.
		ref := cur.ref.Load()
		if ref == 0 {
			sw.Once()
			continue
		}
		if cur.ref.CompareAndSwapAcqRel(ref, ref+1) {
			break
		}
		sw.Once()
	}

	h.Release()
	return cur
}

// CellWriter publishes values into a Cell.
//
// A writer owns a private unpublished node between stores. Multiple
// writers on one cell are safe against each other; a single writer's
// methods are not safe against themselves.
type CellWriter[T any] struct {
	cell *Cell[T]
	node *cellNode[T]
}

// NewCellWriter creates a writer handle on cell.
//
// Progress: blocking (arena mutex).
func NewCellWriter[T any](cell *Cell[T]) *CellWriter[T] {
	return &CellWriter[T]{cell: cell, node: cell.newNode()}
}

// Value returns the writer's staging value, published by the next Store.
// The pointer is valid only until that Store.
func (w *CellWriter[T]) Value() *T {
	return &w.node.value
}

// Store publishes the staged value.
//
// Progress: lock-free while the free list holds a node; otherwise
// blocking (arena mutex) to allocate the writer's next private node.
func (w *CellWriter[T]) Store() {
	w.node = w.cell.makeCurrent(w.node)
}

// StoreValue stages value and publishes it.
//
// Progress: as Store.
func (w *CellWriter[T]) StoreValue(value T) {
	w.node.value = value
	w.Store()
}

// Close retires the writer's private node. The writer must not be used
// afterwards.
func (w *CellWriter[T]) Close() {
	w.cell.retireNode(w.node)
	w.node = nil
}

// CellReader observes values published into a Cell.
//
// A reader holds a reference on the node of its last load. Multiple
// readers on one cell are safe against each other and against writers; a
// single reader's methods are not safe against themselves.
type CellReader[T any] struct {
	cell *Cell[T]
	node *cellNode[T]
}

// NewCellReader creates a reader handle on cell. Until the first Load,
// the reader's Value is the zero value of T.
//
// Progress: blocking (arena mutex).
func NewCellReader[T any](cell *Cell[T]) *CellReader[T] {
	n := cell.newNode()
	n.ref.StoreRelaxed(1)
	return &CellReader[T]{cell: cell, node: n}
}

// Value returns the value of the last Load without synchronizing.
func (r *CellReader[T]) Value() T {
	return r.node.value
}

// Load returns the most recent value published to the cell.
//
// Progress: lock-free.
func (r *CellReader[T]) Load() T {
	r.node = r.cell.getCurrent(r.node)
	return r.node.value
}

// Close releases the reader's reference and retires one free-list node,
// keeping free-list growth bounded by the number of live handles. The
// reader must not be used afterwards.
func (r *CellReader[T]) Close() {
	r.cell.unref(r.node)
	r.node = nil
	if n := r.cell.pop(); n != nil {
		r.cell.retireNode(n)
	}
}
