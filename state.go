// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

// State broadcasts a value of any type to connected observers, each of
// which is woken through its own signal when a new value is published.

type stateData[T any] struct {
	cell      *Cell[T]
	observers *Set[*stateObserverData]
}

type stateObserverData struct {
	signal *Signal
}

// State stores a value read by connected StateObservers.
//
// A State is single-goroutine; observers run on their own goroutines.
type State[T any] struct {
	d *stateData[T]
	w *CellWriter[T]
}

// NewState creates a state holding the zero value of T.
func NewState[T any]() *State[T] {
	d := &stateData[T]{cell: NewCell[T](), observers: NewSet[*stateObserverData]()}
	return &State[T]{d: d, w: NewCellWriter(d.cell)}
}

// NewStateValue creates a state holding value.
func NewStateValue[T any](value T) *State[T] {
	s := NewState[T]()
	s.Store(value)
	return s
}

// Value returns the staging value made visible by the next Publish.
// The pointer is valid only until that Publish.
func (s *State[T]) Value() *T {
	return s.w.Value()
}

// Publish makes the staged value available to observers and notifies
// them through their changed events.
//
// Progress: O(observers); lock-free except where the underlying
// CellWriter.Store blocks to allocate a node.
func (s *State[T]) Publish() {
	s.w.Store()
	s.d.observers.Each(func(o *stateObserverData) bool {
		o.signal.Notify()
		return true
	})
}

// Store publishes value and notifies observers.
//
// Progress: as Publish.
func (s *State[T]) Store(value T) {
	*s.w.Value() = value
	s.Publish()
}

// Close releases the writer handle. Connected observers keep reading the
// last published value until they disconnect.
func (s *State[T]) Close() {
	s.w.Close()
}

// StateObserver reads the latest value published by a connected State.
type StateObserver[T any] struct {
	d      *stateObserverData
	state  *stateData[T]
	reader *CellReader[T]
}

// NewStateObserver creates an unconnected observer.
func NewStateObserver[T any]() (*StateObserver[T], error) {
	sig, err := NewSignal()
	if err != nil {
		return nil, err
	}
	return &StateObserver[T]{d: &stateObserverData{signal: sig}}, nil
}

// Connect attaches the observer to state, detaching it first if it was
// connected elsewhere.
//
// Progress: blocking.
func (o *StateObserver[T]) Connect(state *State[T]) {
	o.Disconnect()
	state.d.observers.Insert(o.d)
	o.state = state.d
	o.reader = NewCellReader(state.d.cell)
}

// Disconnect detaches the observer. No effect when unconnected.
//
// Progress: blocking.
func (o *StateObserver[T]) Disconnect() {
	if o.state == nil {
		return
	}
	o.state.observers.Remove(o.d)
	o.reader.Close()
	o.state = nil
	o.reader = nil
}

// Load returns the latest published value, or the zero value of T when
// unconnected.
//
// Progress: lock-free.
func (o *StateObserver[T]) Load() T {
	if o.reader == nil {
		var zero T
		return zero
	}
	return o.reader.Load()
}

// Changed returns the momentary event activated by each publish.
func (o *StateObserver[T]) Changed() Event {
	return o.d.signal.Event()
}

// Close disconnects the observer and releases its signal.
func (o *StateObserver[T]) Close() error {
	o.Disconnect()
	return o.d.signal.Close()
}
