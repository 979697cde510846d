// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package weave_test

import (
	"testing"
	"time"

	"code.hybscloud.com/weave"
)

func TestSignalNotifyWait(t *testing.T) {
	sig, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer sig.Close()

	sig.Notify()
	if err := sig.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func TestSignalNotifyFromGoroutine(t *testing.T) {
	sig, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer sig.Close()

	go func() {
		time.Sleep(10 * time.Millisecond)
		sig.Notify()
	}()

	if err := sig.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

// TestSignalIdempotent notifies several times, then checks one wait
// clears the event entirely.
func TestSignalIdempotent(t *testing.T) {
	sig, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer sig.Close()

	sig.Notify()
	sig.Notify()
	sig.Notify()

	if err := sig.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}

	// Cleared: a reactor in NoWait mode must see nothing.
	r, err := weave.NewReactor()
	if err != nil {
		t.Fatalf("NewReactor: %v", err)
	}
	defer r.Close()

	fired := 0
	if err := r.Subscribe(sig.Event(), func() { fired++ }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := r.Run(weave.NoWait); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fired != 0 {
		t.Fatalf("cleared signal fired %d times, want 0", fired)
	}
}

func TestWaitAny(t *testing.T) {
	s1, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer s1.Close()
	s2, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer s2.Close()

	s2.Notify()

	i, err := weave.WaitAny([]weave.Event{s1.Event(), s2.Event()})
	if err != nil {
		t.Fatalf("WaitAny: %v", err)
	}
	if i != 1 {
		t.Fatalf("WaitAny: got index %d, want 1", i)
	}
}

func TestEventMomentary(t *testing.T) {
	sig, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer sig.Close()

	if !sig.Event().Momentary() {
		t.Fatal("signal event should be momentary")
	}
	cond := weave.Event{FD: 0}
	if cond.Momentary() {
		t.Fatal("event without clear action should be conditional")
	}
}

// TestReactorDispatch subscribes two signals and checks each active
// event's callback runs exactly once per round.
func TestReactorDispatch(t *testing.T) {
	s1, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer s1.Close()
	s2, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer s2.Close()

	r, err := weave.NewReactor()
	if err != nil {
		t.Fatalf("NewReactor: %v", err)
	}
	defer r.Close()

	var fired1, fired2 int
	if err := r.Subscribe(s1.Event(), func() { fired1++ }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := r.Subscribe(s2.Event(), func() { fired2++ }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	s1.Notify()
	s2.Notify()

	if err := r.Run(weave.NoWait); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fired1 != 1 || fired2 != 1 {
		t.Fatalf("got fired1=%d fired2=%d, want 1 and 1", fired1, fired2)
	}

	// Both events were cleared before their callbacks; nothing left.
	if err := r.Run(weave.NoWait); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if fired1 != 1 || fired2 != 1 {
		t.Fatalf("events fired again after being cleared: fired1=%d fired2=%d", fired1, fired2)
	}
}

func TestReactorWaitOnce(t *testing.T) {
	sig, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer sig.Close()

	r, err := weave.NewReactor()
	if err != nil {
		t.Fatalf("NewReactor: %v", err)
	}
	defer r.Close()

	fired := 0
	if err := r.Subscribe(sig.Event(), func() { fired++ }); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	go func() {
		time.Sleep(10 * time.Millisecond)
		sig.Notify()
	}()

	if err := r.Run(weave.WaitOnce); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fired != 1 {
		t.Fatalf("fired %d times, want 1", fired)
	}
}

// TestReactorRunUntilQuit dispatches until a callback quits.
func TestReactorRunUntilQuit(t *testing.T) {
	sig, err := weave.NewSignal()
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	defer sig.Close()

	r, err := weave.NewReactor()
	if err != nil {
		t.Fatalf("NewReactor: %v", err)
	}
	defer r.Close()

	fired := 0
	if err := r.Subscribe(sig.Event(), func() {
		fired++
		if fired == 3 {
			r.Quit()
			return
		}
		sig.Notify()
	}); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	sig.Notify()
	if err := r.Run(weave.WaitUntilQuit); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fired != 3 {
		t.Fatalf("fired %d times, want 3", fired)
	}
}

// TestSignalSenderReceiver connects signal endpoints through the
// fabric and checks fan-out notification.
func TestSignalSenderReceiver(t *testing.T) {
	sender := weave.NewSignalSender()
	r1, err := weave.NewSignalReceiver()
	if err != nil {
		t.Fatalf("NewSignalReceiver: %v", err)
	}
	r2, err := weave.NewSignalReceiver()
	if err != nil {
		t.Fatalf("NewSignalReceiver: %v", err)
	}

	weave.ConnectSignal(sender, r1)
	weave.ConnectSignal(sender, r2)

	sender.Notify()

	if err := r1.Wait(); err != nil {
		t.Fatalf("receiver 1 Wait: %v", err)
	}
	if err := r2.Wait(); err != nil {
		t.Fatalf("receiver 2 Wait: %v", err)
	}

	weave.DisconnectSignal(sender, r1)
	sender.Close()
	if err := r1.Close(); err != nil {
		t.Fatalf("close receiver 1: %v", err)
	}
	if err := r2.Close(); err != nil {
		t.Fatalf("close receiver 2: %v", err)
	}
}
