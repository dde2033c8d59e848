// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"sync"
	"time"
)

// A Marker is one timestamped entry of a request's trace.
type Marker struct {
	Label string
	Time  time.Time
}

// A Trace is an append-only list of markers, safe for concurrent use.
// The zero value is an empty trace.
type Trace struct {
	mu      sync.Mutex
	markers []Marker
}

func (t *Trace) add(label string) {
	t.mu.Lock()
	t.markers = append(t.markers, Marker{Label: label, Time: time.Now()})
	t.mu.Unlock()
}

// Markers returns a copy of the markers recorded so far.
func (t *Trace) Markers() []Marker {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Marker, len(t.markers))
	copy(out, t.markers)
	return out
}

// Labels returns the labels of markers, in order.
func Labels(markers []Marker) []string {
	labels := make([]string, len(markers))
	for i := range markers {
		labels[i] = markers[i].Label
	}
	return labels
}

// Elapsed returns the time between the first and last of markers, or
// zero if there are fewer than two.
func Elapsed(markers []Marker) time.Duration {
	if len(markers) < 2 {
		return 0
	}
	return markers[len(markers)-1].Time.Sub(markers[0].Time)
}
