// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Dispatcher to observe or tag
// requests as they pass through the dispatch loop.
type Event int

const (
	// QueueTake identifies the event that occurs when a dispatch loop
	// has taken a request from the queue, before the cancellation
	// check.
	QueueTake Event = iota
	// DiscardCanceled identifies the event that occurs after a request
	// found cancelled on dequeue has been finished without delivery.
	DiscardCanceled
	// BeforeExecute identifies the event that occurs just before the
	// request is sent. It is the place to tag the request, for
	// example for traffic accounting.
	BeforeExecute
	// NetworkComplete identifies the event that occurs when the
	// transport has returned a response, before its body is read.
	NetworkComplete
	// NotModified identifies the event that occurs when a 304 response
	// arrives for a request that already had a response delivered. The
	// request is finished and nothing further happens.
	NotModified
	// ParseComplete identifies the event that occurs after the request
	// has parsed the response, whether or not parsing succeeded.
	ParseComplete
	// CacheWritten identifies the event that occurs after the cache
	// entry for the response has been stored.
	CacheWritten
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel
	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"QueueTake",
	"DiscardCanceled",
	"BeforeExecute",
	"NetworkComplete",
	"NotModified",
	"ParseComplete",
	"CacheWritten",
}

// Trace marker labels recorded by the dispatch loop.
const (
	MarkerQueueTake       = "network-queue-take"
	MarkerDiscardCanceled = "network-discard-cancelled"
	MarkerHTTPComplete    = "network-http-complete"
	MarkerNotModified     = "not-modified"
	MarkerParseComplete   = "network-parse-complete"
	MarkerCacheWritten    = "network-cache-written"
	MarkerDone            = "done"
)

var eventMarkers = []string{
	MarkerQueueTake,
	MarkerDiscardCanceled,
	"",
	MarkerHTTPComplete,
	MarkerNotModified,
	MarkerParseComplete,
	MarkerCacheWritten,
}

// Events returns a slice containing all events which can occur in the
// dispatch loop, in the order in which they would occur.
func Events() []Event {
	return []Event{
		QueueTake,
		DiscardCanceled,
		BeforeExecute,
		NetworkComplete,
		NotModified,
		ParseComplete,
		CacheWritten,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}

// Marker returns the trace marker label the dispatch loop records
// together with the event, or "" if the event has none.
func (evt Event) Marker() string {
	return eventMarkers[int(evt)]
}
