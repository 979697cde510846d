// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package weave provides lock-free and wait-free primitives for
// interconnecting concurrent producers, consumers and observers.
//
// The package is built from a small set of layered parts:
//
//   - Hazard pointers: safe memory reclamation for lock-free readers
//   - SPMCCell: single-writer multi-reader cell for bitwise-copyable values
//   - Cell: single-value cell for arbitrary values, refcounted nodes
//   - Set: unordered set with blocking mutation and lock-free iteration
//   - SPSC / MPSC / MPMC: bounded FIFO queues
//   - Client / Server: a connection graph binding endpoints to shared data
//   - Signal, Event, Reactor: a thin event-wait substrate
//   - Streams, State, Notice: assemblies of the above
//
// # Queues
//
// Three bounded queue variants cover the producer/consumer patterns:
//
//	q := weave.NewSPSC[Sample](1024)  // one producer, one consumer, wait-free
//	q := weave.NewMPSC[Sample](1024)  // many producers, one consumer, wait-free
//	q := weave.NewMPMC[Sample](1024)  // many producers, many consumers, lock-free
//
// All queues share the same non-blocking interface:
//
//	v := sample()
//	if err := q.Enqueue(&v); weave.IsWouldBlock(err) {
//	    // queue full - handle backpressure
//	}
//
//	elem, err := q.Dequeue()
//	if weave.IsWouldBlock(err) {
//	    // queue empty - try again later
//	}
//
// SPSC and MPSC additionally offer all-or-nothing bulk transfers:
//
//	batch := make([]Sample, 16)
//	if err := q.EnqueueBulk(batch); err != nil {
//	    // not enough room for the whole batch; nothing was enqueued
//	}
//
// The builder selects the algorithm from declared constraints:
//
//	q := weave.Build[Sample](weave.New(1024).SingleProducer().SingleConsumer()) // → SPSC
//	q := weave.Build[Sample](weave.New(1024).SingleConsumer())                  // → MPSC
//	q := weave.Build[Sample](weave.New(1024))                                   // → MPMC
//
// # Cells
//
// A Cell holds a single value of any type, updated and read through
// writer and reader handles. Readers never block writers and never
// observe a torn or reclaimed value; node reclamation goes through the
// hazard pointer pool.
//
//	cell := weave.NewCell[Config]()
//	w := weave.NewCellWriter(cell)
//	r := weave.NewCellReader(cell)
//
//	w.StoreValue(cfg)     // writer goroutine
//	cfg := r.Load()       // reader goroutines, lock-free
//
// SPMCCell is the leaner variant for bitwise-copyable values. It keeps two
// stamped copies and detects torn reads by stamp comparison, so a load
// retries only while a store overlaps it:
//
//	cell, err := weave.NewSPMCCellValue(Position{X: 1, Y: 2, Z: 3})
//	cell.Store(Position{X: 4, Y: 5, Z: 6}) // single writer
//	p := cell.Load()                       // any number of readers
//
// # Connection graph
//
// Clients and Servers form a graph of endpoints sharing data. A Server
// owns a value; connecting a Client to it shares that value. Connecting
// two Clients creates a value just for that connection.
//
//	srv := weave.NewServer[Mailbox]()
//	cli := weave.NewClient[Mailbox]()
//	weave.Connect(cli, srv)
//
//	cli.Each(func(m *Mailbox) bool {
//	    m.Deliver(msg)
//	    return true
//	})
//
// Endpoint teardown is safe from either side: Close removes the mirror
// links from every connected peer.
//
// # Events and signals
//
// Signal is a one-to-one notifier built on a host event handle. Its event
// is momentary: observing it clears it, and Notify is idempotent until the
// next clear. The Reactor multiplexes any number of events with callbacks:
//
//	sig, _ := weave.NewSignal()
//	r, _ := weave.NewReactor()
//	r.Subscribe(sig.Event(), func() { r.Quit() })
//	go sig.Notify()
//	r.Run(weave.WaitUntilQuit)
//
// # Streams
//
// Streams compose the connection graph, MPSC queues and signals into a
// many-to-many data channel with event-driven consumption:
//
//	cons, err := weave.NewStreamConsumer[Tick](256)
//	prod := weave.NewStreamProducer[Tick]()
//	weave.ConnectStream(prod, cons)
//
//	prod.Push(tick)                  // producer side, wait-free per queue
//	weave.Wait(cons.ReceiveEvent())  // consumer side
//	tick, err := cons.Pop()
//
// # Progress guarantees
//
// Operations are labeled wait-free (bounded steps), lock-free (bounded by
// concurrent interference) or blocking (short internal mutex) in their
// method documentation. Blocking operations are confined to structure
// mutation paths (set insert/remove, connect/disconnect, handle
// construction) and to Cell stores that find the free list empty and
// allocate a node; every other hot-path read or transfer is at least
// lock-free.
//
// # Error handling
//
// Queues and streams return [ErrWouldBlock] when an operation cannot
// proceed. This error is sourced from [code.hybscloud.com/iox] for
// ecosystem consistency; use [IsWouldBlock] to classify it. Constructors
// return [ErrInvalidValueType] or [ErrInvalidCapacity] for unusable
// configurations, and [AcquireHazard] returns [ErrHazardExhausted] when
// the process-wide pool is out of slots.
//
// # Race detection
//
// Go's race detector cannot observe happens-before established through
// atomic memory orderings on separate variables, and SPMCCell relies on a
// deliberately racy value copy validated by stamps. These algorithms are
// correct, but stress tests that exercise them skip themselves in race
// builds by checking [RaceEnabled], and the examples are excluded from
// race builds via //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU pause instructions,
// and [golang.org/x/sys/unix] for the host event facility.
package weave
