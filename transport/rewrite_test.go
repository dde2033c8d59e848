// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"net/url"
	"testing"

	"github.com/gogama/httpq/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRewriter(t *testing.T) {
	testCases := []struct {
		name     string
		method   string
		url      string
		params   url.Values
		expected string
	}{
		{"GET without params", "GET", "http://foo.com/a", nil, "http://foo.com/a"},
		{"GET with params", "GET", "http://foo.com/a", url.Values{"x": {"1"}, "y": {"a b"}}, "http://foo.com/a?x=1&y=a+b"},
		{"GET with query", "GET", "http://foo.com/a?z=0", url.Values{"x": {"1"}}, "http://foo.com/a?z=0&x=1"},
		{"GET ending in ?", "GET", "http://foo.com/a?", url.Values{"x": {"1"}}, "http://foo.com/a?x=1"},
		{"GET ending in &", "GET", "http://foo.com/a?z=0&", url.Values{"x": {"1"}}, "http://foo.com/a?z=0&x=1"},
		{"POST keeps URL", "POST", "http://foo.com/a", url.Values{"x": {"1"}}, "http://foo.com/a"},
		{"PUT keeps URL", "PUT", "http://foo.com/a", url.Values{"x": {"1"}}, "http://foo.com/a"},
		{"DELETE keeps URL", "DELETE", "http://foo.com/a", url.Values{"x": {"1"}}, "http://foo.com/a"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			r := newString(t, testCase.method, testCase.url)
			r.Form = testCase.params
			actual, err := DefaultRewriter.Rewrite(r)
			assert.NoError(t, err)
			assert.Equal(t, testCase.expected, actual)
		})
	}
}

func TestDefaultRewriterParamsFailure(t *testing.T) {
	r := &paramsFailure{String: newString(t, "GET", "http://foo.com")}
	actual, err := DefaultRewriter.Rewrite(r)
	assert.Empty(t, actual)
	e, ok := failure.As(err)
	require.True(t, ok)
	assert.Equal(t, failure.AuthFailure, e.Kind)
	assert.EqualError(t, e.Err, "token expired")

	authErr := failure.New(failure.AuthFailure, "declined")
	actual, err = DefaultRewriter.Rewrite(&failingParams{String: newString(t, "GET", "http://foo.com"), err: authErr})
	assert.Empty(t, actual)
	assert.Same(t, authErr, err)

	actual, err = DefaultRewriter.Rewrite(&failingParams{String: newString(t, "POST", "http://foo.com"), err: authErr})
	assert.NoError(t, err)
	assert.Equal(t, "http://foo.com", actual)
}
