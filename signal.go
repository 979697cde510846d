// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weave

import (
	"fmt"

	"code.hybscloud.com/weave/internal/osevent"
)

// Signal is a one-to-one notifier.
//
// Notify makes the signal's momentary event active; it stays active,
// and further notifies are absorbed, until a waiter or reactor observes
// and clears it.
type Signal struct {
	fd int
}

// NewSignal creates a signal.
func NewSignal() (*Signal, error) {
	fd, err := osevent.NewEventFD()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventWait, err)
	}
	return &Signal{fd: fd}, nil
}

// Notify activates the signal's event. Idempotent until the next clear.
// Safe to call from any goroutine.
func (s *Signal) Notify() {
	_ = osevent.Notify(s.fd)
}

// Wait blocks until the signal is notified, then clears it.
func (s *Signal) Wait() error {
	return Wait(s.Event())
}

// Event returns the signal's momentary event.
func (s *Signal) Event() Event {
	return Event{
		FD:    s.fd,
		Clear: func() error { return osevent.Drain(s.fd) },
	}
}

// Close releases the signal's handle.
func (s *Signal) Close() error {
	return osevent.Close(s.fd)
}

// SignalChannel is the record shared between connected signal senders
// and receivers.
type SignalChannel struct {
	fd int
}

func newSignalChannel() (*SignalChannel, error) {
	fd, err := osevent.NewEventFD()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEventWait, err)
	}
	return &SignalChannel{fd: fd}, nil
}

func (ch *SignalChannel) notify() {
	_ = osevent.Notify(ch.fd)
}

func (ch *SignalChannel) clear() error {
	return osevent.Drain(ch.fd)
}

// SignalSender notifies every connected SignalReceiver.
//
// Senders and receivers form a many-to-many graph through the
// connection fabric: connect with ConnectSignal, disconnect with
// DisconnectSignal or by closing either side.
type SignalSender struct {
	*Client[SignalChannel]
}

// NewSignalSender creates an unconnected sender.
func NewSignalSender() *SignalSender {
	return &SignalSender{Client: NewClient[SignalChannel]()}
}

// Notify activates the event of every connected receiver.
//
// Progress: lock-free.
func (s *SignalSender) Notify() {
	s.Each(func(ch *SignalChannel) bool {
		ch.notify()
		return true
	})
}

// SignalReceiver owns a signal channel shared with connected senders.
type SignalReceiver struct {
	*Server[SignalChannel]
}

// NewSignalReceiver creates a receiver with its own channel.
func NewSignalReceiver() (*SignalReceiver, error) {
	ch, err := newSignalChannel()
	if err != nil {
		return nil, err
	}
	return &SignalReceiver{Server: NewServerShared(ch)}, nil
}

// Wait blocks until some connected sender notifies, then clears.
func (r *SignalReceiver) Wait() error {
	return Wait(r.Event())
}

// Event returns the receiver's momentary event.
func (r *SignalReceiver) Event() Event {
	ch := r.Data()
	return Event{
		FD:    ch.fd,
		Clear: ch.clear,
	}
}

// Close disconnects every sender and releases the channel handle.
func (r *SignalReceiver) Close() error {
	r.Server.Close()
	return osevent.Close(r.Data().fd)
}

// ConnectSignal connects a sender to a receiver.
// Connecting an already-connected pair has no effect.
func ConnectSignal(s *SignalSender, r *SignalReceiver) {
	Connect(s.Client, r.Server)
}

// DisconnectSignal removes the connection between a sender and a
// receiver. No effect when they are not connected.
func DisconnectSignal(s *SignalSender, r *SignalReceiver) {
	Disconnect(s.Client, r.Server)
}
