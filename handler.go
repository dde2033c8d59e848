// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"github.com/gogama/httpq/request"
)

// A HandlerGroup maps each dispatch event to the handlers observing it.
// The zero value has no handlers, and so does a nil *HandlerGroup.
//
// Handlers run on the dispatching goroutine, in the order they were
// pushed. Set them up before Run; a group is not safe for concurrent
// modification.
type HandlerGroup struct {
	byEvent [][]Handler
}

// PushBack appends h to the handlers for evt. It panics if h is nil.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("httpq: nil handler")
	}
	if g.byEvent == nil {
		g.byEvent = make([][]Handler, numEvents)
	}
	g.byEvent[evt] = append(g.byEvent[evt], h)
}

func (g *HandlerGroup) run(evt Event, r request.Request) {
	if g == nil || int(evt) >= len(g.byEvent) {
		return
	}
	for _, h := range g.byEvent[evt] {
		h.Handle(evt, r)
	}
}

// Handler observes dispatch events. A panicking handler is recovered by
// the dispatch loop like any other failure of the iteration.
type Handler interface {
	Handle(Event, request.Request)
}

// HandlerFunc lets a plain function serve as a Handler.
type HandlerFunc func(Event, request.Request)

// Handle calls f.
func (f HandlerFunc) Handle(evt Event, r request.Request) {
	f(evt, r)
}
