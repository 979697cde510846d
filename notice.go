// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

// Notice broadcasts a bitwise-copyable value to connected readers, each
// woken through its own signal on every post. It is the lean sibling of
// State: no node allocation, no reader handles on the hot path, at the
// price of the SPMCCell value-type constraint.

type noticeData[T any] struct {
	cell    *SPMCCell[T]
	readers *Set[*noticeReaderData]
}

type noticeReaderData struct {
	signal *Signal
}

// Notice posts values read by connected NoticeReaders.
//
// A Notice is single-goroutine on the posting side; readers run on
// their own goroutines.
type Notice[T any] struct {
	d *noticeData[T]
}

// NewNotice creates a notice holding the zero value of T.
// Returns ErrInvalidValueType if T is not bitwise-copyable.
func NewNotice[T any]() (*Notice[T], error) {
	cell, err := NewSPMCCell[T]()
	if err != nil {
		return nil, err
	}
	return &Notice[T]{d: &noticeData[T]{cell: cell, readers: NewSet[*noticeReaderData]()}}, nil
}

// NewNoticeValue creates a notice holding value.
// Returns ErrInvalidValueType if T is not bitwise-copyable.
func NewNoticeValue[T any](value T) (*Notice[T], error) {
	cell, err := NewSPMCCellValue(value)
	if err != nil {
		return nil, err
	}
	return &Notice[T]{d: &noticeData[T]{cell: cell, readers: NewSet[*noticeReaderData]()}}, nil
}

// Post stores value and notifies every connected reader.
//
// Progress: lock-free, O(readers).
func (n *Notice[T]) Post(value T) {
	n.d.cell.Store(value)
	n.d.readers.Each(func(r *noticeReaderData) bool {
		r.signal.Notify()
		return true
	})
}

// NoticeReader reads the latest value posted to a connected Notice.
type NoticeReader[T any] struct {
	d            *noticeReaderData
	notice       *noticeData[T]
	defaultValue T
}

// NewNoticeReader creates an unconnected reader that reports
// defaultValue until it is connected.
func NewNoticeReader[T any](defaultValue T) (*NoticeReader[T], error) {
	sig, err := NewSignal()
	if err != nil {
		return nil, err
	}
	return &NoticeReader[T]{d: &noticeReaderData{signal: sig}, defaultValue: defaultValue}, nil
}

// Connect attaches the reader to notice, detaching it first if it was
// connected elsewhere.
//
// Progress: blocking.
func (r *NoticeReader[T]) Connect(notice *Notice[T]) {
	r.Disconnect()
	notice.d.readers.Insert(r.d)
	r.notice = notice.d
}

// Disconnect detaches the reader. No effect when unconnected.
//
// Progress: blocking.
func (r *NoticeReader[T]) Disconnect() {
	if r.notice == nil {
		return
	}
	r.notice.readers.Remove(r.d)
	r.notice = nil
}

// Load returns the latest posted value, or the reader's default when
// unconnected.
//
// Progress: lock-free.
func (r *NoticeReader[T]) Load() T {
	if r.notice == nil {
		return r.defaultValue
	}
	return r.notice.cell.Load()
}

// Changed returns the momentary event activated by each post.
func (r *NoticeReader[T]) Changed() Event {
	return r.d.signal.Event()
}

// Close disconnects the reader and releases its signal.
func (r *NoticeReader[T]) Close() error {
	r.Disconnect()
	return r.d.signal.Close()
}
