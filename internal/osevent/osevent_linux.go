// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build linux

package osevent

import (
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// NewEventFD creates a non-blocking eventfd counter handle.
func NewEventFD() (int, error) {
	return unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
}

// Notify adds one to the counter, making the handle read-ready.
// Idempotent from the reader's point of view until the next Drain.
func Notify(fd int) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			// Counter saturated; the handle is already read-ready.
			return nil
		}
		return err
	}
}

// Drain zeroes the counter, clearing readiness.
// A handle that was not ready is left as is.
func Drain(fd int) error {
	var buf [8]byte
	for {
		_, err := unix.Read(fd, buf[:])
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			return nil
		}
		return err
	}
}

// Close releases the handle.
func Close(fd int) error {
	return unix.Close(fd)
}

// WaitFD names one handle to wait on and the readiness direction.
type WaitFD struct {
	FD    int
	Write bool
}

// Wait blocks until one of fds is ready and returns its index.
func Wait(fds []WaitFD) (int, error) {
	pollFDs := make([]unix.PollFd, len(fds))
	for i, f := range fds {
		ev := int16(unix.POLLIN)
		if f.Write {
			ev = unix.POLLOUT
		}
		pollFDs[i] = unix.PollFd{Fd: int32(f.FD), Events: ev}
	}

	for {
		n, err := unix.Poll(pollFDs, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		if n > 0 {
			for i := range pollFDs {
				if pollFDs[i].Revents != 0 {
					return i, nil
				}
			}
		}
	}
}

// Poller multiplexes readiness of registered handles.
type Poller struct {
	epfd int
}

// NewPoller creates an empty multiplexer.
func NewPoller() (*Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &Poller{epfd: epfd}, nil
}

// Add registers fd under the given token.
func (p *Poller) Add(fd int, write bool, token uint32) error {
	events := uint32(unix.EPOLLIN)
	if write {
		events = unix.EPOLLOUT
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &unix.EpollEvent{
		Events: events,
		Fd:     int32(token),
	})
}

// Wait fills ready with the tokens of ready handles and returns how many.
// With block false it returns immediately, possibly with zero tokens.
// Each registered handle appears at most once per call.
func (p *Poller) Wait(ready []uint32, block bool) (int, error) {
	events := make([]unix.EpollEvent, len(ready))
	timeout := 0
	if block {
		timeout = -1
	}

	for {
		n, err := unix.EpollWait(p.epfd, events, timeout)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		for i := range n {
			ready[i] = uint32(events[i].Fd)
		}
		return n, nil
	}
}

// Close releases the multiplexer.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}
