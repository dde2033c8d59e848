// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"io/ioutil"

	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/network"
	"golang.org/x/net/html/charset"
)

// CheckStatus returns the failure for an unsuccessful status code, as
// classified by failure.FromStatus, or nil. The body of resp is
// buffered into the response attached to the failure so that it stays
// readable after the dispatch loop releases resp.
func CheckStatus(resp *network.Response) *failure.Error {
	e := failure.FromStatus(resp)
	if e == nil {
		return nil
	}
	data, err := resp.ReadAll()
	if err != nil {
		return failure.Classify(err)
	}
	buffered := *resp
	buffered.SetBody(ioutil.NopCloser(bytes.NewReader(data)))
	return failure.WithResponse(e.Kind, &buffered)
}

// String is a request whose result is the response body decoded to a
// UTF-8 string using the charset declared in the response Content-Type.
type String struct {
	*Base
}

// NewString returns a String request.
func NewString(method, rawURL string) (*String, error) {
	b, err := New(method, rawURL)
	if err != nil {
		return nil, err
	}
	return &String{Base: b}, nil
}

// ParseResponse decodes the body of a successful response. Unsuccessful
// status codes are reported via CheckStatus.
func (r *String) ParseResponse(resp *network.Response) (interface{}, error) {
	if e := CheckStatus(resp); e != nil {
		return nil, e
	}
	body := resp.Body()
	if body == nil {
		return "", nil
	}
	utf8, err := charset.NewReader(body, resp.ContentType)
	if err == io.EOF {
		return "", nil
	} else if err != nil {
		return nil, failure.Classify(err)
	}
	data, err := ioutil.ReadAll(utf8)
	if err != nil {
		return nil, failure.Classify(err)
	}
	return string(data), nil
}

// Upload is a String request sending a multipart/form-data body.
type Upload struct {
	*String
	Form Form
}

// NewUpload returns an Upload posting to rawURL.
func NewUpload(rawURL string) (*Upload, error) {
	s, err := NewString(MethodPost, rawURL)
	if err != nil {
		return nil, err
	}
	return &Upload{String: s}, nil
}

// MultipartForm returns the form to send.
func (u *Upload) MultipartForm() *Form {
	return &u.Form
}

// JSON is a request whose result is the response body decoded as JSON
// into a value of type T.
type JSON[T any] struct {
	*Base

	// OnValue, if set, receives successful results instead of
	// OnResult.
	OnValue func(v T)
}

// NewJSON returns a JSON request. If body is non-nil it is marshalled
// as the JSON request body.
func NewJSON[T any](method, rawURL string, body interface{}) (*JSON[T], error) {
	b, err := New(method, rawURL)
	if err != nil {
		return nil, err
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		b.BodyBytes = data
		b.ContentType = "application/json; charset=utf-8"
	}
	b.Headers["Accept"] = "application/json"
	return &JSON[T]{Base: b}, nil
}

// ParseResponse decodes the body of a successful response into a T.
// Unsuccessful status codes are reported via CheckStatus, and bodies
// that are not valid JSON for T as Parse failures.
func (r *JSON[T]) ParseResponse(resp *network.Response) (interface{}, error) {
	if e := CheckStatus(resp); e != nil {
		return nil, e
	}
	var v T
	body := resp.Body()
	if body == nil {
		return nil, &failure.Error{Kind: failure.Parse, Response: resp, Msg: "empty body"}
	}
	if err := json.NewDecoder(body).Decode(&v); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) ||
			errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &failure.Error{Kind: failure.Parse, Response: resp, Err: err}
		}
		return nil, failure.Classify(err)
	}
	return v, nil
}

// DeliverResult passes result to OnValue if it is set and result is a
// T, and to OnResult otherwise.
func (r *JSON[T]) DeliverResult(result interface{}) {
	if v, ok := result.(T); ok && r.OnValue != nil {
		r.OnValue(v)
		return
	}
	r.Base.DeliverResult(result)
}
