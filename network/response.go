// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package network

import (
	"io"
	"io/ioutil"
	"net/http"
	"strings"
)

// A Header maps response header names to values. Names are kept as
// received; only the first value of a repeated header is retained.
type Header map[string]string

// Get returns the value for name. An exact match wins; otherwise the
// first case-insensitive match is returned. Get returns "" if the
// header is absent.
func (h Header) Get(name string) string {
	if v, ok := h[name]; ok {
		return v
	}
	for k, v := range h {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// FromHTTP converts a net/http header into a Header, keeping the first
// value of each name.
func FromHTTP(h http.Header) Header {
	out := make(Header, len(h))
	for k, vs := range h {
		if k == "" || len(vs) == 0 {
			continue
		}
		out[k] = vs[0]
	}
	return out
}

// A Response is the outcome of one HTTP execution attempt.
//
// A Response is created by the HTTP transport and is exclusively owned
// by the dispatch loop until its body is consumed. Response is not safe
// for concurrent use.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Header contains the response headers.
	Header Header

	// NotModified is true when the server answered a conditional
	// request with 304 (Not Modified).
	NotModified bool

	// ContentLength is the declared length of the body, or -1 if it
	// is unknown.
	ContentLength int64

	// ContentEncoding is the declared Content-Encoding, if any.
	ContentEncoding string

	// ContentType is the declared Content-Type, if any.
	ContentType string

	body io.ReadCloser
}

// NewResponse returns a response with the given status code, body,
// headers and not-modified flag. A nil body is replaced by an empty
// one and a nil header map by an empty map. ContentLength defaults to
// -1.
func NewResponse(statusCode int, body io.ReadCloser, header Header, notModified bool) *Response {
	if body == nil {
		body = http.NoBody
	}
	if header == nil {
		header = Header{}
	}
	return &Response{
		StatusCode:    statusCode,
		Header:        header,
		NotModified:   notModified,
		ContentLength: -1,
		body:          body,
	}
}

// Body returns the body stream currently attached to the response. The
// caller may read from it but must not close it; use Close instead.
// If the body has been taken and not replaced, Body returns nil.
func (r *Response) Body() io.Reader {
	if r.body == nil {
		return nil
	}
	return r.body
}

// TakeBody detaches the body stream and transfers its ownership to the
// caller, who becomes responsible for closing it. After TakeBody the
// response has no body until SetBody is called.
func (r *Response) TakeBody() io.ReadCloser {
	b := r.body
	r.body = nil
	return b
}

// SetBody attaches a new body stream, taking ownership of it. Any body
// still attached is closed first.
func (r *Response) SetBody(body io.ReadCloser) {
	if r.body != nil {
		_ = r.body.Close()
	}
	r.body = body
}

// ReadAll consumes the whole body and closes it.
func (r *Response) ReadAll() ([]byte, error) {
	b := r.TakeBody()
	if b == nil {
		return nil, nil
	}
	data, err := ioutil.ReadAll(b)
	cerr := b.Close()
	if err != nil {
		return data, err
	}
	return data, cerr
}

// Close releases the attached body stream if there is one. It is safe
// to call Close more than once.
func (r *Response) Close() error {
	b := r.TakeBody()
	if b == nil {
		return nil
	}
	return b.Close()
}

// Success indicates whether the status code is in the 2XX range.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode <= 299
}
