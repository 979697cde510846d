// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !linux

package osevent

import "errors"

// ErrUnsupported is returned on platforms without an event facility
// implementation.
var ErrUnsupported = errors.New("osevent: not supported on this platform")

// NewEventFD is a stub for unsupported platforms.
func NewEventFD() (int, error) { return -1, ErrUnsupported }

// Notify is a stub for unsupported platforms.
func Notify(fd int) error { return ErrUnsupported }

// Drain is a stub for unsupported platforms.
func Drain(fd int) error { return ErrUnsupported }

// Close is a stub for unsupported platforms.
func Close(fd int) error { return ErrUnsupported }

// WaitFD names one handle to wait on and the readiness direction.
type WaitFD struct {
	FD    int
	Write bool
}

// Wait is a stub for unsupported platforms.
func Wait(fds []WaitFD) (int, error) { return 0, ErrUnsupported }

// Poller is a stub for unsupported platforms.
type Poller struct{}

// NewPoller is a stub for unsupported platforms.
func NewPoller() (*Poller, error) { return nil, ErrUnsupported }

// Add is a stub for unsupported platforms.
func (p *Poller) Add(fd int, write bool, token uint32) error { return ErrUnsupported }

// Wait is a stub for unsupported platforms.
func (p *Poller) Wait(ready []uint32, block bool) (int, error) { return 0, ErrUnsupported }

// Close is a stub for unsupported platforms.
func (p *Poller) Close() error { return ErrUnsupported }
