// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/network"
	"github.com/gogama/httpq/queue"
	"github.com/gogama/httpq/request"
	"github.com/rs/zerolog"
)

// A Dispatcher runs one dispatch loop: it takes requests from a queue,
// executes them, reconciles the responses with the cache and posts the
// outcome to a delivery sink.
//
// Every executed request gets exactly one delivery: the parsed result,
// or a *failure.Error. Requests cancelled before they are executed are
// finished silently. Errors and panics never stop the loop.
//
// The Queue, Executor, Cache and Delivery fields are required. A
// Dispatcher runs at most one loop at a time; run several Dispatchers
// over the same Queue for concurrency, as Pool does.
type Dispatcher struct {
	// Queue supplies pending requests.
	Queue Queue

	// Executor performs the HTTP exchange.
	Executor Executor

	// Cache provides backing file locations and stores the entries of
	// cacheable responses.
	Cache cache.Store

	// Delivery receives every outcome.
	Delivery Delivery

	// Handlers allows custom handler chains to be invoked when
	// designated events occur in the dispatch loop.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup

	// Logger receives the loop's logs. If nil, nothing is logged.
	Logger *zerolog.Logger

	quitting atomic.Bool
	mu       sync.Mutex
	cancel   context.CancelFunc
}

// Run runs the dispatch loop until Quit is called, ctx is done or the
// queue is closed. It returns nil in all these cases.
//
// Quit and the queue closing only interrupt the wait for the next
// request: a request already taken is seen through to its delivery.
// Cancelling ctx also aborts the network exchange of the request in
// flight.
func (d *Dispatcher) Run(ctx context.Context) error {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	logger := d.logger()
	for {
		if d.quitting.Load() {
			return nil
		}
		r, err := d.Queue.Take(waitCtx)
		if err != nil {
			if d.quitting.Load() || waitCtx.Err() != nil || errors.Is(err, queue.ErrClosed) {
				return nil
			}
			logger.Warn().Err(err).Msg("queue take failed")
			continue
		}
		d.Dispatch(ctx, r)
	}
}

// Quit asks the dispatch loop to stop. A blocked wait for the next
// request is interrupted at once; a request in flight finishes first.
// Any requests still queued are left unprocessed.
func (d *Dispatcher) Quit() {
	d.quitting.Store(true)
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		d.cancel()
	}
}

// Dispatch runs one request through the loop body.
func (d *Dispatcher) Dispatch(ctx context.Context, r request.Request) {
	logger := d.logger()
	var delivered, discarded, started bool
	defer func() {
		p := recover()
		if p == nil {
			return
		}
		err := fmt.Errorf("httpq: panic: %v", p)
		logger.Error().Err(err).Str("url", r.URL()).Msg("unhandled panic in dispatch loop")
		switch {
		case delivered || discarded:
		case !started && r.Canceled():
			r.Finish(MarkerDiscardCanceled)
		default:
			delivered = true
			d.Delivery.PostError(r, failure.Wrap(failure.Generic, err))
		}
	}()

	d.mark(QueueTake, r)
	if r.Canceled() {
		r.Finish(MarkerDiscardCanceled)
		discarded = true
		d.Handlers.run(DiscardCanceled, r)
		return
	}
	started = true

	d.Handlers.run(BeforeExecute, r)
	result, done, err := d.perform(ctx, r)
	switch {
	case err == nil && done:
		return
	case err == nil:
		r.MarkDelivered()
		delivered = true
		d.Delivery.PostResult(r, result)
	default:
		if e, ok := failure.As(err); ok {
			remapped := r.RemapError(e)
			if remapped == nil {
				remapped = e
			}
			delivered = true
			d.Delivery.PostError(r, remapped)
			return
		}
		logger.Error().Err(err).Str("url", r.URL()).Msg("unhandled error in dispatch loop")
		delivered = true
		d.Delivery.PostError(r, failure.Wrap(failure.Generic, err))
	}
}

// perform executes r and parses the response. It reports done when the
// request was finished without needing a delivery.
func (d *Dispatcher) perform(ctx context.Context, r request.Request) (result interface{}, done bool, err error) {
	resp, err := d.Executor.Execute(ctx, r, cache.ConditionalHeaders(r.CacheEntry()))
	if err != nil {
		return nil, false, err
	}
	defer func() {
		_ = resp.Close()
	}()
	d.mark(NetworkComplete, r)

	if resp.NotModified && r.HasHadResponseDelivered() {
		r.Finish(MarkerNotModified)
		d.Handlers.run(NotModified, r)
		return nil, true, nil
	}

	var entry *cache.Entry
	if resp.NotModified {
		entry = d.reuse(r, resp)
	} else {
		entry = cache.ParseHeaders(resp)
		if r.ShouldCache() && entry != nil {
			if err = d.persist(r, resp, entry); err != nil {
				return nil, false, err
			}
		}
	}
	if entry == nil {
		r.SetShouldCache(false)
	}

	result, err = r.ParseResponse(resp)
	d.mark(ParseComplete, r)
	if err != nil {
		if _, ok := failure.As(err); !ok {
			err = &failure.Error{Kind: failure.Parse, Response: resp, Err: err}
		}
		return nil, false, err
	}

	if r.ShouldCache() {
		if err = d.Cache.Put(r.CacheKey(), entry); err != nil {
			logger := d.logger()
			logger.Warn().Err(err).Str("key", r.CacheKey()).Msg("cache entry not written")
		} else {
			d.mark(CacheWritten, r)
		}
	}
	return result, false, nil
}

// persist streams the response body into the backing file for r and
// re-attaches the file as the body. If the file cannot be created the
// response is not cached and keeps its network body.
func (d *Dispatcher) persist(r request.Request, resp *network.Response, entry *cache.Entry) error {
	path := d.Cache.FilePath(r.CacheKey())
	f, err := cache.CreateBackingFile(path)
	if err != nil {
		logger := d.logger()
		logger.Warn().Err(err).Str("path", path).Msg("cache backing file not created; response will not be cached")
		r.SetShouldCache(false)
		return nil
	}

	body := resp.TakeBody()
	if body == nil {
		body = http.NoBody
	}
	if _, err = f.CopyFrom(body); err != nil {
		f.Abort()
		var writeErr *cache.WriteError
		if errors.As(err, &writeErr) {
			return failure.Wrap(failure.Generic, err)
		}
		return failure.Classify(err)
	}
	if err = f.Commit(); err != nil {
		logger := d.logger()
		logger.Warn().Err(err).Str("path", path).Msg("cache backing file not committed; response will not be cached")
		r.SetShouldCache(false)
		rc, rerr := f.Recover()
		if rerr != nil {
			f.Abort()
			return failure.Wrap(failure.Generic, err)
		}
		resp.SetBody(rc)
		return nil
	}

	file, err := os.Open(path)
	if err != nil {
		return failure.Wrap(failure.Generic, err)
	}
	entry.DataFilePath = path
	resp.SetBody(file)
	return nil
}

// reuse serves a 304 for a request without a delivered response from
// the body cached for the entry being revalidated. The response headers
// are merged over the cached ones and the refreshed entry keeps the
// existing backing file. reuse returns nil if there is no cached body.
func (d *Dispatcher) reuse(r request.Request, resp *network.Response) *cache.Entry {
	cached := r.CacheEntry()
	if cached == nil || cached.DataFilePath == "" {
		return nil
	}
	file, err := os.Open(cached.DataFilePath)
	if err != nil {
		logger := d.logger()
		logger.Warn().Err(err).Str("path", cached.DataFilePath).Msg("cached body not readable")
		return nil
	}

	header := make(network.Header, len(cached.Header)+len(resp.Header))
	for name, value := range cached.Header {
		header[name] = value
	}
	for name, value := range resp.Header {
		for old := range header {
			if old != name && strings.EqualFold(old, name) {
				delete(header, old)
			}
		}
		header[name] = value
	}
	resp.Header = header
	resp.ContentType = header.Get("Content-Type")
	resp.ContentEncoding = header.Get("Content-Encoding")
	resp.ContentLength = -1
	if info, err := file.Stat(); err == nil {
		resp.ContentLength = info.Size()
	}
	resp.SetBody(file)

	entry := cache.ParseHeaders(resp)
	if entry != nil {
		entry.DataFilePath = cached.DataFilePath
	}
	return entry
}

func (d *Dispatcher) mark(evt Event, r request.Request) {
	r.AddMarker(evt.Marker())
	d.Handlers.run(evt, r)
}

func (d *Dispatcher) logger() *zerolog.Logger {
	if d.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return d.Logger
}
