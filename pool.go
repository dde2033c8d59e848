// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/queue"
	"github.com/gogama/httpq/request"
	"github.com/gogama/httpq/timeout"
	"github.com/gogama/httpq/transport"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var (
	errStarted    = errors.New("httpq: pool already started")
	errNotStarted = errors.New("httpq: pool not started")
)

// A Pool is a fixed-size group of dispatch loops sharing one queue.
//
// The exported fields must be set before Start and not changed after.
// New returns a Pool with every field set from a Config.
type Pool struct {
	// Workers is the number of dispatch loops. Values below 1 mean
	// one.
	Workers int

	// Queue is the shared request queue.
	Queue *queue.FIFO

	// Executor, Cache, Delivery, Handlers and Logger are passed to
	// every Dispatcher.
	Executor Executor
	Cache    cache.Store
	Delivery Delivery
	Handlers *HandlerGroup
	Logger   *zerolog.Logger

	mu          sync.Mutex
	dispatchers []*Dispatcher
	group       *errgroup.Group
	closers     []io.Closer
}

// New assembles a pool from cfg: a disk cache rooted at cfg.CacheDir,
// an HTTP transport sending cfg.UserAgent with cfg.Timeout as the
// fallback request timeout, a FIFO queue and a synchronous
// ExecutorDelivery. The pool owns the disk cache and closes it on
// Stop.
func New(cfg Config) (*Pool, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger()
	store, err := cache.OpenDiskStore(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	return &Pool{
		Workers: cfg.Workers,
		Queue:   &queue.FIFO{},
		Executor: &transport.Transport{
			UserAgent:     cfg.UserAgent,
			TimeoutPolicy: timeout.Declared(cfg.Timeout),
			Logger:        &logger,
		},
		Cache:    store,
		Delivery: NewExecutorDelivery(nil, &logger),
		Logger:   &logger,
		closers:  []io.Closer{store},
	}, nil
}

// Add queues r for dispatch.
func (p *Pool) Add(r request.Request) error {
	return p.Queue.Add(r)
}

// Start starts the dispatch loops. They run until Stop is called or ctx
// is done.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.group != nil {
		return errStarted
	}
	n := p.Workers
	if n < 1 {
		n = 1
	}
	p.group, ctx = errgroup.WithContext(ctx)
	p.dispatchers = make([]*Dispatcher, n)
	for i := range p.dispatchers {
		d := &Dispatcher{
			Queue:    p.Queue,
			Executor: p.Executor,
			Cache:    p.Cache,
			Delivery: p.Delivery,
			Handlers: p.Handlers,
			Logger:   p.Logger,
		}
		p.dispatchers[i] = d
		p.group.Go(func() error {
			return d.Run(ctx)
		})
	}
	if p.Logger != nil {
		p.Logger.Info().Int("workers", n).Msg("dispatch pool started")
	}
	return nil
}

// Stop quits every dispatch loop, waits for the requests in flight to
// be delivered and releases the resources the pool owns. Requests still
// queued are left unprocessed.
func (p *Pool) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.group == nil {
		return errNotStarted
	}
	for _, d := range p.dispatchers {
		d.Quit()
	}
	err := p.group.Wait()
	for _, c := range p.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	p.closers = nil
	if p.Logger != nil {
		p.Logger.Info().Msg("dispatch pool stopped")
	}
	return err
}
