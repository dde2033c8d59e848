// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/httpq/request"
)

// A Policy decides the timeout the HTTP transport applies to a request.
// The timeout bounds connection establishment, including the TLS
// handshake, and each individual read from the connection.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to apply when executing r. A zero or
	// negative return value means no timeout.
	Timeout(r request.Request) time.Duration
}

// DefaultPolicy is the default timeout policy. It uses the timeout the
// request declares, falling back to 2.5 seconds.
var DefaultPolicy Policy = Declared(2500 * time.Millisecond)

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value for every
// request, ignoring any timeout the request declares.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

// Declared constructs a timeout policy that uses the timeout declared by
// the request, or fallback when the request declares none.
//
// Use Declared when most requests share one timeout but a few, such as
// large uploads, need their own.
func Declared(fallback time.Duration) Policy {
	return declared(fallback)
}

type fixed time.Duration

func (p fixed) Timeout(_ request.Request) time.Duration {
	return time.Duration(p)
}

type declared time.Duration

func (p declared) Timeout(r request.Request) time.Duration {
	if d := r.Timeout(); d > 0 {
		return d
	}
	return time.Duration(p)
}
