// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package network contains Response, the value produced by one HTTP
// execution attempt and consumed by the dispatch loop.
//
// A Response owns its body stream. The stream may be consumed exactly
// once, either by the dispatch loop when it persists the body to a
// cache-backing file, or by the request's own parsing logic. When the
// dispatch loop persists the body it takes ownership of the network
// stream with TakeBody and attaches a file-backed replacement with
// SetBody, so the two streams are never exposed at the same time.
package network
