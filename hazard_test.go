// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave_test

import (
	"errors"
	"testing"
	"unsafe"

	"code.hybscloud.com/weave"
)

// forceScan retires enough throwaway entries to push the retired list
// past the scan threshold.
func forceScan() {
	for range weave.RetireThreshold {
		p := new(int)
		weave.Retire(unsafe.Pointer(p), func() {})
	}
}

// TestHazardExhaustion acquires every slot of the pool and checks the
// next acquire reports exhaustion.
func TestHazardExhaustion(t *testing.T) {
	slots := make([]*weave.Hazard, 0, weave.HazardCount)
	defer func() {
		for _, h := range slots {
			h.Release()
		}
	}()

	for range weave.HazardCount {
		h, err := weave.AcquireHazard()
		if err != nil {
			t.Fatalf("acquire %d: %v", len(slots), err)
		}
		slots = append(slots, h)
	}

	if _, err := weave.AcquireHazard(); !errors.Is(err, weave.ErrHazardExhausted) {
		t.Fatalf("acquire past pool size: got %v, want ErrHazardExhausted", err)
	}
}

// TestHazardReacquire checks released slots become acquirable again.
func TestHazardReacquire(t *testing.T) {
	for range 3 * weave.HazardCount {
		h, err := weave.AcquireHazard()
		if err != nil {
			t.Fatalf("acquire: %v", err)
		}
		h.Release()
	}
}

// TestRetireProtection checks that a protected pointer survives a scan
// and is destroyed by the first scan after protection is withdrawn.
func TestRetireProtection(t *testing.T) {
	p := new(int)
	destroyed := false

	h, err := weave.AcquireHazard()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	h.Protect(unsafe.Pointer(p))

	weave.Retire(unsafe.Pointer(p), func() { destroyed = true })
	forceScan()

	if destroyed {
		t.Fatal("protected pointer was destroyed")
	}

	h.Release()
	forceScan()

	if !destroyed {
		t.Fatal("unprotected pointer was not destroyed")
	}
}

// TestRetireUnprotected checks an unprotected retired pointer is
// destroyed by the next scan.
func TestRetireUnprotected(t *testing.T) {
	destroyed := false
	p := new(int)
	weave.Retire(unsafe.Pointer(p), func() { destroyed = true })
	forceScan()

	if !destroyed {
		t.Fatal("retired pointer was not destroyed")
	}
}

// TestRetireFromDestructor checks a destructor may retire further
// entries without recursing into another scan.
func TestRetireFromDestructor(t *testing.T) {
	nestedDestroyed := false
	p := new(int)
	weave.Retire(unsafe.Pointer(p), func() {
		nested := new(int)
		weave.Retire(unsafe.Pointer(nested), func() { nestedDestroyed = true })
	})
	forceScan()

	if nestedDestroyed {
		t.Fatal("nested retirement must not be destroyed by a nested scan")
	}

	forceScan()
	if !nestedDestroyed {
		t.Fatal("nested retirement was not destroyed by the following scan")
	}
}

// TestProtectClear checks Clear withdraws protection without releasing
// the slot.
func TestProtectClear(t *testing.T) {
	p := new(int)
	destroyed := false

	h, err := weave.AcquireHazard()
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer h.Release()

	h.Protect(unsafe.Pointer(p))
	h.Clear()

	weave.Retire(unsafe.Pointer(p), func() { destroyed = true })
	forceScan()

	if !destroyed {
		t.Fatal("cleared pointer was not destroyed")
	}
}
