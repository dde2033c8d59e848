// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"strings"

	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/request"
)

// A Rewriter resolves the URL a request is actually sent to.
//
// Implementations of Rewriter must be safe for concurrent use by
// multiple goroutines.
type Rewriter interface {
	// Rewrite returns the URL to send r to. A non-nil error aborts
	// the request and is reported to the caller as is if it is a
	// *failure.Error.
	Rewrite(r request.Request) (string, error)
}

// RewriterFunc adapts an ordinary function to the Rewriter interface.
type RewriterFunc func(r request.Request) (string, error)

// Rewrite calls f(r).
func (f RewriterFunc) Rewrite(r request.Request) (string, error) {
	return f(r)
}

// DefaultRewriter is the Rewriter used when a Transport has none. For
// GET requests it appends the URL-encoded request parameters to the URL
// as a query string. URLs for all other methods are unchanged.
//
// If the request parameters cannot be obtained, DefaultRewriter fails
// with an AuthFailure.
var DefaultRewriter Rewriter = RewriterFunc(rewriteGetParams)

func rewriteGetParams(r request.Request) (string, error) {
	rawURL := r.URL()
	if r.Method() != request.MethodGet {
		return rawURL, nil
	}

	params, err := r.Params()
	if err != nil {
		if e, ok := failure.As(err); ok {
			return "", e
		}
		return "", &failure.Error{Kind: failure.AuthFailure, Msg: "request params", Err: err}
	}
	if len(params) == 0 {
		return rawURL, nil
	}

	var sb strings.Builder
	sb.WriteString(rawURL)
	switch {
	case strings.HasSuffix(rawURL, "?"), strings.HasSuffix(rawURL, "&"):
	case strings.Contains(rawURL, "?"):
		sb.WriteByte('&')
	default:
		sb.WriteByte('?')
	}
	sb.WriteString(params.Encode())
	return sb.String(), nil
}
