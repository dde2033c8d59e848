// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package failure defines the closed set of failure kinds surfaced to
// request callers, and the Error type carrying them.
//
// Errors are produced at several layers. The transport produces
// Network, NoConnection and Timeout errors with no response attached.
// A request's parsing logic promotes unsuccessful status codes with
// FromStatus, attaching the response, and reports undecodable bodies as
// Parse errors. Every classified error passes once through the owning
// request's remap hook before it is delivered.
//
// Use Classify to turn an arbitrary error from the network stack into
// an Error, and Categorize to just obtain its Kind.
package failure
