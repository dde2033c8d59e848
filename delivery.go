// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/request"
	"github.com/rs/zerolog"
)

// ExecutorDelivery is a Delivery that notifies requests on an executor
// of the caller's choosing, such as a UI event loop or a worker
// goroutine.
//
// For each outcome, ExecutorDelivery submits a task to the executor
// that passes the outcome to the request, if the request implements
// request.Listener, and then finishes the request with the marker
// "done".
type ExecutorDelivery struct {
	exec   func(func())
	logger *zerolog.Logger
}

// NewExecutorDelivery returns a delivery which submits its tasks to
// exec. If exec is nil, tasks run synchronously on the dispatching
// goroutine. If logger is non-nil, each finished request's trace is
// logged at debug level.
func NewExecutorDelivery(exec func(func()), logger *zerolog.Logger) *ExecutorDelivery {
	if exec == nil {
		exec = func(task func()) { task() }
	}
	return &ExecutorDelivery{exec: exec, logger: logger}
}

// PostResult posts a successful result for r.
func (d *ExecutorDelivery) PostResult(r request.Request, result interface{}) {
	d.exec(func() {
		if l, ok := r.(request.Listener); ok {
			l.DeliverResult(result)
		}
		d.finish(r)
	})
}

// PostError posts a failure for r.
func (d *ExecutorDelivery) PostError(r request.Request, err *failure.Error) {
	d.exec(func() {
		if l, ok := r.(request.Listener); ok {
			l.DeliverError(err)
		}
		d.finish(r)
	})
}

type tracer interface {
	Markers() []request.Marker
}

func (d *ExecutorDelivery) finish(r request.Request) {
	r.Finish(MarkerDone)
	if d.logger == nil || d.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	t, ok := r.(tracer)
	if !ok {
		return
	}
	markers := t.Markers()
	if len(markers) == 0 {
		return
	}
	arr := zerolog.Arr()
	for i := range markers {
		arr.Dict(zerolog.Dict().
			Str("label", markers[i].Label).
			Dur("at", markers[i].Time.Sub(markers[0].Time)))
	}
	d.logger.Debug().
		Str("url", r.URL()).
		Dur("elapsed", request.Elapsed(markers)).
		Array("markers", arr).
		Msg("request finished")
}
