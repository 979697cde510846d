// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package osevent wraps the host's event facility: a notifiable counter
// handle, a wait-on-handles call, and a readiness multiplexer.
//
// The Linux implementation uses eventfd, poll and epoll. Other platforms
// get stubs that fail with ErrUnsupported; the exported surface of the
// parent package degrades accordingly.
//
// Interrupted calls (EINTR) are retried inside this package; every other
// failure is returned to the caller.
package osevent
