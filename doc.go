// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httpq provides a background pool of HTTP dispatch loops which
execute queued requests, reconcile their responses with a persistent
cache and deliver results or errors asynchronously.

Create a Pool from a Config to begin making requests.

	cfg, err := httpq.LoadConfig("httpq.yaml")
	...
	pool, err := httpq.New(cfg)
	...
	err = pool.Start(ctx)
	...
	defer pool.Stop()

Requests come from package request. Embed *request.Base, or use one of
the ready-made variants, and set the callbacks to receive the outcome:

	r, err := request.NewJSON[Avatar]("GET", "https://example.com/avatar")
	...
	r.OnValue = func(a Avatar) { ... }
	r.OnError = func(err *failure.Error) { ... }
	err = pool.Add(r)

Every request taken from the queue is delivered exactly once, either as
a parsed result or as a *failure.Error whose Kind tells what went wrong.
A request cancelled before it is executed is dropped without delivery.

For control over where callbacks run, use a custom ExecutorDelivery:

	events := make(chan func(), 64)
	pool.Delivery = httpq.NewExecutorDelivery(func(task func()) {
		events <- task
	}, nil)

To hook into the dispatch loop, for example to tag requests before they
are sent, install a handler into the appropriate handler chain:

	handlers := &httpq.HandlerGroup{}
	handlers.PushBack(httpq.BeforeExecute, httpq.HandlerFunc(
		func(_ httpq.Event, r request.Request) {
			log.Printf("Sending %s", r.URL())
		}),
	)
	pool.Handlers = handlers

The pieces a Pool is made of, a Queue, an Executor, a cache.Store and a
Delivery, are interfaces. A Dispatcher runs one dispatch loop over any
implementations of them.
*/
package httpq
