// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/network"
	"golang.org/x/net/http/httpguts"
)

// HTTP methods supported by the transport.
const (
	MethodGet    = "GET"
	MethodPost   = "POST"
	MethodPut    = "PUT"
	MethodDelete = "DELETE"
)

const defaultBodyContentType = "application/x-www-form-urlencoded; charset=UTF-8"

// A Request is a unit of work for the dispatch loop.
//
// The dispatch loop takes exclusive ownership of a Request for one
// dispatch cycle. Other goroutines may still call Cancel and the flag
// and trace accessors concurrently, so implementations must make those
// safe for concurrent use. Embedding *Base satisfies every method except
// ParseResponse.
type Request interface {
	// Method returns the HTTP method.
	Method() string
	// URL returns the target URL before rewriting.
	URL() string
	// Header returns the request-declared headers.
	Header() map[string]string
	// Params returns the request parameters. For GET requests the
	// default URL rewriter appends them to the URL as a query string.
	// Params may fail with an AuthFailure, for example if a token
	// parameter cannot be obtained.
	Params() (url.Values, error)
	// Body returns the body to send with POST and PUT requests, or nil
	// for none.
	Body() ([]byte, error)
	// BodyContentType returns the content type of Body.
	BodyContentType() string
	// Timeout returns the connect and read timeout. Zero means the
	// transport's timeout policy decides.
	Timeout() time.Duration
	// CacheKey returns the key the response is cached under.
	CacheKey() string
	// CacheEntry returns the cache entry the request was revalidating,
	// or nil.
	CacheEntry() *cache.Entry

	// Canceled reports whether Cancel has been called.
	Canceled() bool
	// ShouldCache reports whether the response should be cached.
	ShouldCache() bool
	// SetShouldCache sets the should cache flag.
	SetShouldCache(bool)
	// HasHadResponseDelivered reports whether a response has been
	// delivered for the request.
	HasHadResponseDelivered() bool
	// MarkDelivered records that a response has been delivered.
	MarkDelivered()
	// AddMarker appends a timestamped marker to the request's trace.
	AddMarker(label string)
	// Finish appends a final marker and marks the request finished.
	Finish(label string)

	// ParseResponse turns the response into an application-level
	// result. It runs on the dispatching goroutine and owns resp's
	// body for the duration of the call.
	ParseResponse(resp *network.Response) (interface{}, error)
	// RemapError gives the request a chance to reclassify a failure
	// before it is delivered. It must return a non-nil Error.
	RemapError(err *failure.Error) *failure.Error
}

// A Listener receives the outcome of a request. Requests implementing
// Listener are notified by ExecutorDelivery.
type Listener interface {
	DeliverResult(result interface{})
	DeliverError(err *failure.Error)
}

// Base holds the state shared by all request variants. Variants embed
// *Base and implement ParseResponse.
//
// Exported fields describe the request and must not be changed once
// the request has been queued. The flags and the trace are safe for
// concurrent use.
type Base struct {
	// MethodName specifies the HTTP method (GET, POST, PUT or DELETE).
	// An empty string means GET.
	MethodName string

	// RawURL is the target URL.
	RawURL string

	// Headers contains request-declared header fields.
	Headers map[string]string

	// Form contains parameters. They are appended to the URL for GET
	// requests and sent as the url-encoded body for POST and PUT
	// requests without an explicit BodyBytes.
	Form url.Values

	// BodyBytes is an explicit body for POST and PUT requests.
	BodyBytes []byte

	// ContentType is the content type of BodyBytes. If empty, the
	// url-encoded form content type is used.
	ContentType string

	// TimeoutDuration is the connect and read timeout. Zero defers to
	// the transport's timeout policy.
	TimeoutDuration time.Duration

	// Entry is the cache entry being revalidated, if any.
	Entry *cache.Entry

	// OnResult and OnError are invoked by DeliverResult and
	// DeliverError. Either may be nil.
	OnResult func(result interface{})
	OnError  func(err *failure.Error)

	canceled    atomic.Bool
	noCache     atomic.Bool
	delivered   atomic.Bool
	finished    atomic.Bool
	trace       Trace
	finishHooks []func(label string)
}

// New returns a Base for the given method and URL. The method must be
// a valid HTTP token; whether the transport supports it is decided when
// the request is executed.
func New(method, rawURL string) (*Base, error) {
	if method == "" {
		method = MethodGet
	}
	if !validMethod(method) {
		return nil, fmt.Errorf("httpq/request: invalid method %q", method)
	}
	if _, err := url.Parse(rawURL); err != nil {
		return nil, err
	}
	return &Base{
		MethodName: method,
		RawURL:     rawURL,
		Headers:    make(map[string]string),
	}, nil
}

// NewWithBody wraps New and sets the request body and its content type.
//
// Parameter body may be any value accepted by BodyBytes.
func NewWithBody(method, rawURL, contentType string, body interface{}) (*Base, error) {
	b, err := BodyBytes(body)
	if err != nil {
		return nil, err
	}
	r, err := New(method, rawURL)
	if err != nil {
		return nil, err
	}
	r.BodyBytes = b
	r.ContentType = contentType
	return r, nil
}

// Method returns the HTTP method.
func (b *Base) Method() string {
	if b.MethodName == "" {
		return MethodGet
	}
	return strings.ToUpper(b.MethodName)
}

// URL returns the target URL.
func (b *Base) URL() string {
	return b.RawURL
}

// Header returns the request-declared headers.
func (b *Base) Header() map[string]string {
	return b.Headers
}

// Params returns Form.
func (b *Base) Params() (url.Values, error) {
	return b.Form, nil
}

// Body returns BodyBytes if set, and otherwise the url-encoded Form, or
// nil if there is neither.
func (b *Base) Body() ([]byte, error) {
	if b.BodyBytes != nil {
		return b.BodyBytes, nil
	}
	if len(b.Form) > 0 {
		return []byte(b.Form.Encode()), nil
	}
	return nil, nil
}

// BodyContentType returns ContentType or the url-encoded form content
// type.
func (b *Base) BodyContentType() string {
	if b.ContentType != "" {
		return b.ContentType
	}
	return defaultBodyContentType
}

// Timeout returns TimeoutDuration.
func (b *Base) Timeout() time.Duration {
	return b.TimeoutDuration
}

// CacheKey returns the URL, which is the default cache key.
func (b *Base) CacheKey() string {
	return b.RawURL
}

// CacheEntry returns Entry.
func (b *Base) CacheEntry() *cache.Entry {
	return b.Entry
}

// Cancel flags the request as cancelled. A request cancelled before the
// dispatch loop starts network work for it is finished without any
// delivery; afterwards the flag has no effect.
func (b *Base) Cancel() {
	b.canceled.Store(true)
}

// Canceled reports whether Cancel has been called.
func (b *Base) Canceled() bool {
	return b.canceled.Load()
}

// ShouldCache reports whether the response should be cached. It is
// true until SetShouldCache(false) is called.
func (b *Base) ShouldCache() bool {
	return !b.noCache.Load()
}

// SetShouldCache sets the should cache flag.
func (b *Base) SetShouldCache(shouldCache bool) {
	b.noCache.Store(!shouldCache)
}

// HasHadResponseDelivered reports whether MarkDelivered has been called.
func (b *Base) HasHadResponseDelivered() bool {
	return b.delivered.Load()
}

// MarkDelivered records a response delivery.
func (b *Base) MarkDelivered() {
	b.delivered.Store(true)
}

// AddMarker appends a marker to the trace.
func (b *Base) AddMarker(label string) {
	b.trace.add(label)
}

// Finish appends a final marker, marks the request finished and runs
// the hooks registered with OnFinish. Only the first call has any
// effect beyond adding the marker.
func (b *Base) Finish(label string) {
	b.trace.add(label)
	if !b.finished.CompareAndSwap(false, true) {
		return
	}
	for _, hook := range b.finishHooks {
		hook(label)
	}
}

// Finished reports whether Finish has been called.
func (b *Base) Finished() bool {
	return b.finished.Load()
}

// OnFinish registers a hook to run when the request is finished. Hooks
// must be registered before the request is queued.
func (b *Base) OnFinish(hook func(label string)) {
	if hook == nil {
		panic("httpq/request: nil finish hook")
	}
	b.finishHooks = append(b.finishHooks, hook)
}

// Markers returns a snapshot of the trace.
func (b *Base) Markers() []Marker {
	return b.trace.Markers()
}

// RemapError returns err unchanged.
func (b *Base) RemapError(err *failure.Error) *failure.Error {
	return err
}

// DeliverResult passes result to OnResult, if set.
func (b *Base) DeliverResult(result interface{}) {
	if b.OnResult != nil {
		b.OnResult(result)
	}
}

// DeliverError passes err to OnError, if set.
func (b *Base) DeliverError(err *failure.Error) {
	if b.OnError != nil {
		b.OnError(err)
	}
}

func validMethod(method string) bool {
	/*
	     Method         = "OPTIONS"                ; Section 9.2
	                    | "GET"                    ; Section 9.3
	                    | "HEAD"                   ; Section 9.4
	                    | "POST"                   ; Section 9.5
	                    | "PUT"                    ; Section 9.6
	                    | "DELETE"                 ; Section 9.7
	                    | "TRACE"                  ; Section 9.8
	                    | "CONNECT"                ; Section 9.9
	                    | extension-method
	   extension-method = token
	     token          = 1*<any CHAR except CTLs or separators>

	   We don't need to check for length more than 1 because we always
	   interpret the empty string as "GET".
	*/
	return strings.IndexFunc(method, isNotToken) == -1
}

func isNotToken(r rune) bool {
	return !httpguts.IsTokenRune(r)
}
