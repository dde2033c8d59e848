// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httpq fetches each URL given on the command line through a
// dispatch pool and prints the decoded bodies to standard output.
//
// Usage:
//
//	httpq [-config httpq.yaml] url...
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/gogama/httpq"
	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/request"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", os.Getenv("HTTPQ_CONFIG"), "path to httpq.yaml (optional)")
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: httpq [-config file] url...")
		return 2
	}

	cfg, err := httpq.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpq: %v\n", err)
		return 1
	}
	pool, err := httpq.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpq: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err = pool.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "httpq: %v\n", err)
		return 1
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed atomic.Bool
		reqs   []*request.String
	)
	for _, rawURL := range flag.Args() {
		r, err := request.NewString(request.MethodGet, rawURL)
		if err != nil {
			pool.Logger.Error().Err(err).Str("url", rawURL).Msg("skipping URL")
			failed.Store(true)
			continue
		}
		u := rawURL
		r.OnResult = func(v interface{}) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Printf("%s\n%s\n", u, v)
		}
		r.OnError = func(e *failure.Error) {
			mu.Lock()
			defer mu.Unlock()
			failed.Store(true)
			pool.Logger.Error().Err(e).Str("url", u).Stringer("kind", e.Kind).Msg("request failed")
		}
		wg.Add(1)
		r.OnFinish(func(string) { wg.Done() })
		if err = pool.Add(r); err != nil {
			wg.Done()
			pool.Logger.Error().Err(err).Str("url", u).Msg("enqueue failed")
			failed.Store(true)
			continue
		}
		reqs = append(reqs, r)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		pool.Logger.Warn().Msg("interrupted, cancelling pending requests")
		for _, r := range reqs {
			r.Cancel()
		}
		failed.Store(true)
	}

	if err = pool.Stop(); err != nil {
		pool.Logger.Error().Err(err).Msg("stop failed")
		return 1
	}
	if failed.Load() {
		return 1
	}
	return 0
}
