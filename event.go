// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"fmt"

	"code.hybscloud.com/weave/internal/osevent"
)

// Event describes a host handle that can be waited on.
//
// An event with a non-nil Clear action is momentary: whichever handler
// observes it clears it, and it stays inactive until the next notify.
// An event with a nil Clear is conditional: it remains active for as
// long as the underlying condition holds.
type Event struct {
	// FD is the host handle to wait on.
	FD int
	// Write selects write-readiness instead of read-readiness.
	Write bool
	// Clear is the action that deactivates a momentary event.
	Clear func() error
}

// Momentary reports whether observing the event clears it.
func (e Event) Momentary() bool {
	return e.Clear != nil
}

// Wait blocks until e is active, then clears it if momentary.
// Returns ErrEventWait (with the cause attached) when the host wait
// fails.
func Wait(e Event) error {
	if _, err := osevent.Wait([]osevent.WaitFD{{FD: e.FD, Write: e.Write}}); err != nil {
		return fmt.Errorf("%w: %w", ErrEventWait, err)
	}
	if e.Clear != nil {
		if err := e.Clear(); err != nil {
			return fmt.Errorf("%w: %w", ErrEventWait, err)
		}
	}
	return nil
}

// WaitAny blocks until one of events is active, clears that one if
// momentary, and returns its index.
func WaitAny(events []Event) (int, error) {
	fds := make([]osevent.WaitFD, len(events))
	for i, e := range events {
		fds[i] = osevent.WaitFD{FD: e.FD, Write: e.Write}
	}

	i, err := osevent.Wait(fds)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrEventWait, err)
	}
	if clear := events[i].Clear; clear != nil {
		if err := clear(); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrEventWait, err)
		}
	}
	return i, nil
}

// RunMode selects how Reactor.Run dispatches.
type RunMode int

const (
	// NoWait dispatches the currently active events and returns.
	NoWait RunMode = iota
	// WaitOnce blocks until at least one event is active, dispatches,
	// and returns.
	WaitOnce
	// WaitUntilQuit dispatches rounds of active events until Quit is
	// called.
	WaitUntilQuit
)

// Reactor multiplexes events and dispatches callbacks for them.
//
// Dispatch is fair: within one round, each active event is handled at
// most once before any event is handled a second time. A momentary
// event is cleared before its callback runs. Callback panics propagate
// out of Run.
//
// A Reactor is single-goroutine; its methods are not safe for
// concurrent use.
type Reactor struct {
	poller  *osevent.Poller
	subs    []reactorSub
	running bool
}

type reactorSub struct {
	clear func() error
	cb    func()
}

// NewReactor creates an empty reactor.
func NewReactor() (*Reactor, error) {
	poller, err := osevent.NewPoller()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventWait, err)
	}
	return &Reactor{poller: poller}, nil
}

// Subscribe registers callback to run whenever event is active during a
// Run.
func (r *Reactor) Subscribe(event Event, callback func()) error {
	if err := r.poller.Add(event.FD, event.Write, uint32(len(r.subs))); err != nil {
		return fmt.Errorf("%w: %w", ErrEventWait, err)
	}
	r.subs = append(r.subs, reactorSub{clear: event.Clear, cb: callback})
	return nil
}

// Run dispatches subscribed events according to mode.
//
// With WaitUntilQuit, Run keeps dispatching rounds until Quit is called
// from a callback. Quit also cuts the current round short.
func (r *Reactor) Run(mode RunMode) error {
	r.running = true

	ready := make([]uint32, len(r.subs))
	if len(ready) == 0 {
		ready = make([]uint32, 1)
	}

	for {
		n, err := r.poller.Wait(ready, mode != NoWait)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrEventWait, err)
		}

		for i := 0; i < n && r.running; i++ {
			sub := &r.subs[ready[i]]
			if sub.clear != nil {
				if err := sub.clear(); err != nil {
					return fmt.Errorf("%w: %w", ErrEventWait, err)
				}
			}
			sub.cb()
		}

		if mode != WaitUntilQuit || !r.running {
			return nil
		}
	}
}

// Quit stops Run. Call from inside a callback.
func (r *Reactor) Quit() {
	r.running = false
}

// Close releases the reactor's resources.
func (r *Reactor) Close() error {
	return r.poller.Close()
}
