// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package queue provides the default request queue: an unbounded FIFO
// which many producers may add to and many dispatch loops may take
// from.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/gogama/httpq/request"
)

// ErrClosed is returned by Add and Take once the queue is closed.
var ErrClosed = errors.New("httpq/queue: queue closed")

// A FIFO is an unbounded, thread-safe, first-in first-out request queue
// whose Take blocks until a request is available. The zero value is an
// empty, open queue.
type FIFO struct {
	mu     sync.Mutex
	items  []request.Request
	ready  chan struct{}
	closed bool
}

// Add appends r to the tail of the queue and wakes any blocked Take
// calls. It adds the marker "add-to-queue" to r.
func (q *FIFO) Add(r request.Request) error {
	if r == nil {
		panic("httpq/queue: nil request")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}
	r.AddMarker("add-to-queue")
	q.items = append(q.items, r)
	q.broadcast()
	return nil
}

// Take removes and returns the request at the head of the queue,
// blocking until one is available, ctx is done or the queue is closed.
func (q *FIFO) Take(ctx context.Context) (request.Request, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			r := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			q.mu.Unlock()
			return r, nil
		}
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		ready := q.wait()
		q.mu.Unlock()

		select {
		case <-ready:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of requests waiting in the queue.
func (q *FIFO) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close closes the queue. Further Add calls fail with ErrClosed. Take
// keeps returning queued requests and then fails with ErrClosed.
func (q *FIFO) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.broadcast()
}

// wait returns the channel that the next broadcast closes. It must be
// called with mu held.
func (q *FIFO) wait() <-chan struct{} {
	if q.ready == nil {
		q.ready = make(chan struct{})
	}
	return q.ready
}

// broadcast must be called with mu held.
func (q *FIFO) broadcast() {
	if q.ready != nil {
		close(q.ready)
		q.ready = nil
	}
}
