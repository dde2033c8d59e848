// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/network"
	"github.com/gogama/httpq/request"
	"github.com/gogama/httpq/timeout"
	"github.com/rs/zerolog"
	"golang.org/x/net/http/httpguts"
)

// DefaultUserAgent is the User-Agent sent when a Transport has none.
const DefaultUserAgent = "httpq/0"

var (
	// ErrUnknownMethod is returned by Execute for a request whose
	// method is not GET, POST, PUT or DELETE.
	ErrUnknownMethod = errors.New("httpq/transport: unknown method")

	// ErrNoStatus is the cause of the Network failure returned when a
	// response carries no usable status code.
	ErrNoStatus = errors.New("httpq/transport: could not retrieve response code")

	errEmptyURL = errors.New("httpq/transport: empty URL")
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// A Transport executes requests over HTTP. Its zero value is a valid
// configuration. Transport is safe for concurrent use by multiple
// goroutines; its fields must not be changed after first use.
type Transport struct {
	// Rewriter resolves request URLs. If nil, DefaultRewriter is used.
	Rewriter Rewriter

	// UserAgent is sent as the User-Agent header unless the request
	// or the extra headers declare one. If empty, DefaultUserAgent is
	// used.
	UserAgent string

	// TLSConfig, if set, supplies the TLS configuration installed on
	// every HTTPS connection the built-in client makes. If nil, the
	// platform defaults apply. TLSConfig is ignored when HTTPDoer is
	// set.
	TLSConfig func() *tls.Config

	// TimeoutPolicy decides each request's connect and read timeout.
	// If nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy

	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses. If nil, a built-in client is used which
	// enforces the timeout policy and installs TLSConfig.
	//
	// A custom HTTPDoer only sees the timeout through the request
	// context, so it is responsible for bounding its own I/O.
	HTTPDoer HTTPDoer

	// Logger receives debug logs for each execution. If nil, nothing
	// is logged.
	Logger *zerolog.Logger

	once   sync.Once
	client *http.Client
}

// Execute sends r and returns the response with its body unread. The
// caller owns the returned response and must close it.
//
// Header fields in extra are added after the request's own headers and
// override them. The content type of a request body always wins over a
// declared Content-Type header. An unsuccessful status code is not an error. Failures
// to speak HTTP are returned as a *failure.Error.
func (t *Transport) Execute(ctx context.Context, r request.Request, extra map[string]string) (*network.Response, error) {
	method := r.Method()
	switch method {
	case request.MethodGet, request.MethodPost, request.MethodPut, request.MethodDelete:
	default:
		return nil, fmt.Errorf("%w %q", ErrUnknownMethod, method)
	}

	rawURL, err := t.rewriter().Rewrite(r)
	if err != nil {
		return nil, err
	}
	if rawURL == "" {
		return nil, errEmptyURL
	}

	header, err := t.mergeHeaders(r.Header(), extra)
	if err != nil {
		return nil, err
	}

	d := t.timeoutPolicy().Timeout(r)
	ctx = withTimeout(ctx, d)

	req, err := newHTTPRequest(ctx, method, rawURL, r)
	if err != nil {
		return nil, err
	}
	bodyType := req.Header.Get("Content-Type")
	for k, v := range header {
		if bodyType != "" && http.CanonicalHeaderKey(k) == "Content-Type" {
			continue
		}
		req.Header.Set(k, v)
	}

	logger := t.logger()
	logger.Debug().
		Str("method", req.Method).
		Str("url", rawURL).
		Dur("timeout", d).
		Msg("executing request")

	resp, err := t.doer().Do(req)
	if err != nil {
		return nil, failure.Classify(err)
	}
	if resp.StatusCode <= 0 {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, failure.Wrap(failure.Network, ErrNoStatus)
	}

	out := network.NewResponse(resp.StatusCode, resp.Body, network.FromHTTP(resp.Header), resp.StatusCode == http.StatusNotModified)
	out.ContentLength = resp.ContentLength
	out.ContentEncoding = resp.Header.Get("Content-Encoding")
	out.ContentType = resp.Header.Get("Content-Type")

	logger.Debug().
		Str("method", req.Method).
		Str("url", rawURL).
		Int("status", resp.StatusCode).
		Msg("response received")
	return out, nil
}

// newHTTPRequest builds the outgoing request and its body. GET and
// DELETE never carry a body. Multipart requests are always POSTed.
func newHTTPRequest(ctx context.Context, method, rawURL string, r request.Request) (*http.Request, error) {
	if m, ok := r.(request.Multipart); ok {
		boundary := newBoundary()
		req, err := http.NewRequestWithContext(ctx, request.MethodPost, rawURL, nil)
		if err != nil {
			return nil, err
		}
		form := m.MultipartForm()
		if err = validateForm(form); err != nil {
			return nil, err
		}
		req.Body = newMultipartBody(boundary, form)
		req.ContentLength = -1
		req.Header.Set("Content-Type", multipartContentType(form.Charset, boundary))
		return req, nil
	}

	var body []byte
	if method == request.MethodPost || method == request.MethodPut {
		var err error
		if body, err = r.Body(); err != nil {
			if e, ok := failure.As(err); ok {
				return nil, e
			}
			return nil, &failure.Error{Kind: failure.AuthFailure, Msg: "request body", Err: err}
		}
	}
	if body == nil {
		return http.NewRequestWithContext(ctx, method, rawURL, nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", r.BodyContentType())
	return req, nil
}

// mergeHeaders merges the request headers with the extra headers, extra
// winning, and adds the User-Agent if neither declares one.
func (t *Transport) mergeHeaders(declared, extra map[string]string) (map[string]string, error) {
	merged := make(map[string]string, len(declared)+len(extra)+1)
	for _, h := range []map[string]string{declared, extra} {
		for k, v := range h {
			if !httpguts.ValidHeaderFieldName(k) {
				return nil, fmt.Errorf("httpq/transport: invalid header field name %q", k)
			}
			if !httpguts.ValidHeaderFieldValue(v) {
				return nil, fmt.Errorf("httpq/transport: invalid header field value for %q", k)
			}
			merged[k] = v
		}
	}

	for k := range merged {
		if http.CanonicalHeaderKey(k) == "User-Agent" {
			return merged, nil
		}
	}
	ua := t.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	merged["User-Agent"] = ua
	return merged, nil
}

func (t *Transport) rewriter() Rewriter {
	if t.Rewriter == nil {
		return DefaultRewriter
	}
	return t.Rewriter
}

func (t *Transport) timeoutPolicy() timeout.Policy {
	if t.TimeoutPolicy == nil {
		return timeout.DefaultPolicy
	}
	return t.TimeoutPolicy
}

func (t *Transport) doer() HTTPDoer {
	if t.HTTPDoer != nil {
		return t.HTTPDoer
	}
	t.once.Do(func() {
		t.client = newClient(t.TLSConfig)
	})
	return t.client
}

func (t *Transport) logger() *zerolog.Logger {
	if t.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return t.Logger
}
