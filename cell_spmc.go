// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"reflect"
	"sync/atomic"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SPMCCell is a single-writer multi-reader cell for bitwise-copyable
// values.
//
// The cell keeps two stamped copies of the value. The writer owns one
// copy privately, readers share the other through an atomic pointer, and
// every store swaps the two. A store stamps the private copy before and
// after writing the value; a load accepts a copy only when both stamps
// agree, so a read torn by an overlapping store is detected and retried.
//
// Store is wait-free; Load is lock-free with retries bounded by
// concurrent stores. Stamps are 64-bit: a load would have to overlap
// 2^64 completed stores to be fooled by a wrapped stamp.
//
// The value type must be bitwise-copyable (no pointers, maps, chans,
// funcs, interfaces, slices or strings at any depth); construction fails
// with ErrInvalidValueType otherwise. The copy itself is unsynchronized
// and relies on stamp validation for consistency, which is also why
// concurrent SPMCCell stress tests are excluded from race builds.
type SPMCCell[T any] struct {
	version uint64 // writer-local store counter

	writing *spmcCopy[T]
	reading atomic.Pointer[spmcCopy[T]]
	copies  [2]spmcCopy[T]
}

type spmcCopy[T any] struct {
	pre   atomix.Uint64 // stamped before the value is written
	value T
	post  atomix.Uint64 // stamped after the value is written
}

// NewSPMCCell creates a cell holding the zero value of T.
// Returns ErrInvalidValueType if T is not bitwise-copyable.
func NewSPMCCell[T any]() (*SPMCCell[T], error) {
	if !bitwiseCopyable(reflect.TypeOf((*T)(nil)).Elem()) {
		return nil, ErrInvalidValueType
	}

	c := &SPMCCell[T]{}
	c.writing = &c.copies[0]
	c.reading.Store(&c.copies[1])
	return c, nil
}

// NewSPMCCellValue creates a cell holding value.
// Returns ErrInvalidValueType if T is not bitwise-copyable.
func NewSPMCCellValue[T any](value T) (*SPMCCell[T], error) {
	c, err := NewSPMCCell[T]()
	if err != nil {
		return nil, err
	}
	c.reading.Load().value = value
	return c, nil
}

// Store publishes value (single writer only).
//
// Progress: wait-free, O(1).
func (c *SPMCCell[T]) Store(value T) {
	c.version++
	w := c.writing
	w.pre.Store(c.version)
	w.value = value
	w.post.Store(c.version)
	c.writing = c.reading.Swap(w)
}

// Load returns the last value stored (any number of readers).
//
// Progress: lock-free; retries only while a store overlaps the read.
func (c *SPMCCell[T]) Load() T {
	sw := spin.Wait{}
	for {
		r := c.reading.Load()
		post := r.post.Load()
		value := r.value
		pre := r.pre.Load()
		if pre == post {
			return value
		}
		sw.Once()
	}
}

// bitwiseCopyable reports whether a value of type t can be duplicated by
// an unsynchronized memory copy without producing an unsafe value:
// no pointer-shaped data at any depth.
func bitwiseCopyable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr,
		reflect.Float32, reflect.Float64,
		reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Array:
		return bitwiseCopyable(t.Elem())
	case reflect.Struct:
		for i := range t.NumField() {
			if !bitwiseCopyable(t.Field(i).Type) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
