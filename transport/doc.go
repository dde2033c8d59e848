// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transport executes a single request over HTTP and turns the
outcome into a network.Response.

A Transport resolves the request URL through a Rewriter, merges the
request's headers with any extra headers (typically conditional cache
headers), sends the body appropriate to the method and hands back the
response without reading its body. Any status code, including 4XX and
5XX, is a normal response. Transport-level failures are returned as
*failure.Error values classified by failure.Classify.

Each request's timeout, chosen by a timeout.Policy, bounds connection
establishment (dial and TLS handshake) and each individual read from
the connection. Connections are never reused, so every request runs
on a connection carrying its own deadline.

Only GET, POST, PUT and DELETE are supported. Any other method fails
with ErrUnknownMethod before any network activity.
*/
package transport
