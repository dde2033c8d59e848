// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package failure

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"syscall"

	"github.com/gogama/httpq/network"
)

// A Kind identifies the category of an Error. Each kind maps to a
// different remedy for the user: a NoConnection error suggests checking
// connectivity, an AuthFailure suggests signing in again, and so on.
type Kind int

const (
	// Generic indicates an unexpected failure that fits no other kind.
	// Unclassified errors and panics inside the dispatch loop are
	// reported as Generic.
	Generic Kind = iota
	// Network indicates the exchange with the server failed at the
	// transport level, for example a reset connection or a malformed
	// status line.
	Network
	// Server indicates the server answered with a 5XX status.
	Server
	// Timeout indicates the connect or read phase timed out.
	Timeout
	// NoConnection indicates no connection could be established, for
	// example because the host refused it or its name did not resolve.
	NoConnection
	// Parse indicates the response was received but its body could not
	// be decoded into the expected shape.
	Parse
	// BadRequest indicates the server answered with a 4XX status other
	// than 401 or 403.
	BadRequest
	// AuthFailure indicates an authentication or authorization failure,
	// either reported by the server (401, 403) or raised while building
	// the request.
	AuthFailure
	kindSentinel
)

var kindNames = []string{
	"generic",
	"network",
	"server",
	"timeout",
	"no-connection",
	"parse",
	"bad-request",
	"auth-failure",
}

// Kinds returns every Kind.
func Kinds() []Kind {
	kinds := make([]Kind, int(kindSentinel))
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || k >= kindSentinel {
		return "unknown"
	}
	return kindNames[k]
}

// An Error is a classified failure. It optionally carries the response
// that constitutes the failure (for example a 404) and an underlying
// cause.
//
// Errors are immutable once constructed. Code that wants to reclassify
// an Error, such as a request's remap hook, constructs a new one.
type Error struct {
	// Kind is the failure category.
	Kind Kind

	// Response is the response the server sent, when the server did
	// answer but the answer itself is the failure. It is nil for
	// transport-level failures.
	Response *network.Response

	// Msg is an optional human-readable message.
	Msg string

	// Err is the optional underlying cause.
	Err error
}

// New returns an Error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap returns an Error of the given kind wrapping err.
func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// WithResponse returns an Error of the given kind carrying resp.
func WithResponse(kind Kind, resp *network.Response) *Error {
	return &Error{Kind: kind, Response: resp}
}

// Error returns a description of the failure.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("httpq: ")
	b.WriteString(e.Kind.String())
	b.WriteString(" error")
	if e.Response != nil {
		b.WriteString(" (status ")
		b.WriteString(strconv.Itoa(e.Response.StatusCode))
		b.WriteString(")")
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Timeout reports whether the error is a Timeout failure.
func (e *Error) Timeout() bool {
	return e.Kind == Timeout
}

// StatusCode returns the status code of the attached response, or 0 if
// there is none.
func (e *Error) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Classify converts err into an Error. If err already is, or wraps, an
// *Error, that Error is returned unchanged. Otherwise err is wrapped in
// a new Error whose kind is given by Categorize. Classify returns nil
// for a nil error.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Wrap(Categorize(err), err)
}

// Categorize returns the failure kind for an error raised by the
// network stack.
//
// In assessing the kind, Categorize looks at wrapped cause errors
// contained within err, not just err itself:
//
// • a nil error is Generic;
//
// • an *Error yields its own kind;
//
// • an error with a Timeout() function reporting true is Timeout;
//
// • connection refusal, an unreachable network or host, and a name
// resolution failure are NoConnection;
//
// • anything else is Network.
func Categorize(err error) Kind {
	if err == nil {
		return Generic
	}

	if e, ok := As(err); ok {
		return e.Kind
	}

	if timedOut(err) {
		return Timeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NoConnection
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.ENETUNREACH, syscall.EHOSTUNREACH:
			return NoConnection
		}
	}

	return Network
}

// FromStatus promotes an unsuccessful status code into an Error with
// resp attached: 401 and 403 are AuthFailure, any other 4XX is
// BadRequest, and 5XX is Server. FromStatus returns nil for a nil
// response or any other status.
func FromStatus(resp *network.Response) *Error {
	if resp == nil {
		return nil
	}
	switch code := resp.StatusCode; {
	case code == 401 || code == 403:
		return WithResponse(AuthFailure, resp)
	case code >= 400 && code <= 499:
		return WithResponse(BadRequest, resp)
	case code >= 500 && code <= 599:
		return WithResponse(Server, resp)
	default:
		return nil
	}
}

type hasTimeout interface {
	Timeout() bool
}

// timedOut reports whether any error in err's tree has a Timeout
// function reporting true. Wrappers such as *url.Error only report the
// timeout of their direct cause, so the whole tree is searched.
func timedOut(err error) bool {
	if err == nil {
		return false
	}
	if t, ok := err.(hasTimeout); ok && t.Timeout() {
		return true
	}
	switch u := err.(type) {
	case interface{ Unwrap() error }:
		return timedOut(u.Unwrap())
	case interface{ Unwrap() []error }:
		for _, e := range u.Unwrap() {
			if timedOut(e) {
				return true
			}
		}
	}
	return false
}
