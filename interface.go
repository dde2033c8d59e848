// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"context"

	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/network"
	"github.com/gogama/httpq/request"
)

// Queue is the interface that wraps the basic Take method.
//
// Take removes and returns the next pending request, blocking until one
// is available or ctx is done. Take must be safe for concurrent use by
// multiple dispatch loops. queue.FIFO implements Queue.
type Queue interface {
	Take(ctx context.Context) (request.Request, error)
}

// Executor is the interface that wraps the basic Execute method.
//
// Execute performs one HTTP exchange for r, sending the extra header
// fields in addition to the request's own, and returns the response
// with its body unread. An unsuccessful status code is a response, not
// an error. transport.Transport implements Executor.
type Executor interface {
	Execute(ctx context.Context, r request.Request, extra map[string]string) (*network.Response, error)
}

// Delivery is the interface for posting the outcome of a request back
// to its caller.
//
// The dispatch loop calls exactly one of PostResult and PostError for
// every request it executes. Implementations decide on which goroutine
// the caller is notified, and are responsible for finishing the
// request.
type Delivery interface {
	PostResult(r request.Request, result interface{})
	PostError(r request.Request, err *failure.Error)
}
