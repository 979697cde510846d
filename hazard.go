// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"sync"
	"unsafe"

	"code.hybscloud.com/atomix"
)

// HazardCount is the number of hazard pointer slots in the process-wide
// pool. Must be a power of two.
const HazardCount = 256

// RetireThreshold is the retired-list length that triggers a reclamation
// scan. Kept equal to HazardCount: a scan can retain at most HazardCount
// entries, so the list length stays bounded by 2*HazardCount between scans.
const RetireThreshold = HazardCount

// Hazard is one slot of the process-wide hazard pointer pool.
//
// A slot is held exclusively by one goroutine for the duration of a
// protected read: publish the address about to be dereferenced with
// Protect, re-verify the source location still refers to it, and Release
// the slot when done. While the address is published, Retire will not run
// its destructor.
type Hazard struct {
	ptr  atomix.Uintptr
	used atomix.Uint64
	_    [64 - 16]byte
}

// Protect publishes p as protected. Overwrites any previously protected
// address in this slot.
func (h *Hazard) Protect(p unsafe.Pointer) {
	h.ptr.Store(uintptr(p))
}

// Clear withdraws the protection published in this slot.
func (h *Hazard) Clear() {
	h.ptr.Store(0)
}

// Release clears the slot and returns it to the pool.
func (h *Hazard) Release() {
	h.ptr.Store(0)
	h.used.StoreRelease(0)
}

var (
	hazardPool [HazardCount]Hazard
	hazardHint atomix.Uint64
)

// AcquireHazard claims a free slot from the pool.
//
// The pool is probed starting just past a shared hint index; each slot is
// visited at most once per call. Returns ErrHazardExhausted when all
// HazardCount slots are in use.
//
// Progress: wait-free, O(HazardCount) worst case.
func AcquireHazard() (*Hazard, error) {
	const mask = HazardCount - 1
	i := hazardHint.Load() & mask
	for j := (i + 1) & mask; ; j = (j + 1) & mask {
		if hazardPool[j].used.CompareAndSwapAcqRel(0, 1) {
			hazardHint.Store(j)
			return &hazardPool[j], nil
		}
		if j == i {
			return nil, ErrHazardExhausted
		}
	}
}

// mustAcquireHazard is for internal readers whose API has no error path.
// Pool exhaustion is a configuration error there.
func mustAcquireHazard() *Hazard {
	h, err := AcquireHazard()
	if err != nil {
		panic(err)
	}
	return h
}

type retiredEntry struct {
	addr    uintptr
	destroy func()
}

var (
	retiredMu sync.Mutex
	retired   []retiredEntry
	// scanning suppresses nested scans: a destructor that retires more
	// nodes appends to the list but never re-enters the scan.
	scanning atomix.Uint64
)

// Retire records that the object at p is no longer reachable from live
// structures and schedules destroy to run once no hazard slot protects p.
//
// The destroy closure keeps the object reachable for the garbage collector
// until it has run; structures that recycle or unregister nodes do so
// inside it.
//
// Progress: blocking (short list mutex); destructors of unprotected
// entries may run in the calling goroutine.
func Retire(p unsafe.Pointer, destroy func()) {
	retiredMu.Lock()
	retired = append(retired, retiredEntry{addr: uintptr(p), destroy: destroy})
	n := len(retired)
	retiredMu.Unlock()

	if n >= RetireThreshold {
		scanRetired()
	}
}

// scanRetired destroys every retired entry not currently protected by a
// hazard slot. Entries protected at snapshot time are kept for a later
// scan.
func scanRetired() {
	if !scanning.CompareAndSwapAcqRel(0, 1) {
		return
	}

	protected := make(map[uintptr]struct{}, HazardCount)
	for i := range hazardPool {
		if p := hazardPool[i].ptr.Load(); p != 0 {
			protected[p] = struct{}{}
		}
	}

	retiredMu.Lock()
	kept := retired[:0]
	var doomed []retiredEntry
	for _, e := range retired {
		if _, ok := protected[e.addr]; ok {
			kept = append(kept, e)
		} else {
			doomed = append(doomed, e)
		}
	}
	retired = kept
	retiredMu.Unlock()

	// Destructors run outside the list lock so that they can retire
	// further nodes.
	for _, e := range doomed {
		e.destroy()
	}

	scanning.StoreRelease(0)
}
