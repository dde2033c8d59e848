// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/failure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	testCases := []struct {
		name    string
		method  string
		url     string
		asserts func(*testing.T, *Base, error)
	}{
		{
			name:   "empty method means GET",
			method: "",
			url:    "https://foo.com",
			asserts: func(t *testing.T, b *Base, err error) {
				assert.NoError(t, err)
				require.NotNil(t, b)
				assert.Equal(t, MethodGet, b.Method())
				assert.Equal(t, "https://foo.com", b.URL())
				assert.Equal(t, "https://foo.com", b.CacheKey())
				assert.NotNil(t, b.Header())
			},
		},
		{
			name:   "lower case method",
			method: "post",
			url:    "http://foo.com/upload",
			asserts: func(t *testing.T, b *Base, err error) {
				assert.NoError(t, err)
				require.NotNil(t, b)
				assert.Equal(t, MethodPost, b.Method())
			},
		},
		{
			name:   "extension method is accepted",
			method: "PATCH",
			url:    "http://foo.com",
			asserts: func(t *testing.T, b *Base, err error) {
				assert.NoError(t, err)
				require.NotNil(t, b)
				assert.Equal(t, "PATCH", b.Method())
			},
		},
		{
			name:   "invalid method",
			method: "GET POST",
			url:    "http://foo.com",
			asserts: func(t *testing.T, b *Base, err error) {
				assert.Nil(t, b)
				assert.EqualError(t, err, `httpq/request: invalid method "GET POST"`)
			},
		},
		{
			name:   "invalid URL",
			method: "GET",
			url:    ":foo",
			asserts: func(t *testing.T, b *Base, err error) {
				assert.Nil(t, b)
				assert.Error(t, err)
			},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			b, err := New(testCase.method, testCase.url)
			testCase.asserts(t, b, err)
		})
	}
}

func TestNewWithBody(t *testing.T) {
	b, err := NewWithBody(MethodPut, "http://foo.com", "text/plain", "ham")
	require.NoError(t, err)
	body, err := b.Body()
	assert.NoError(t, err)
	assert.Equal(t, []byte("ham"), body)
	assert.Equal(t, "text/plain", b.BodyContentType())

	b, err = NewWithBody(MethodPut, "http://foo.com", "", 10)
	assert.Nil(t, b)
	assert.EqualError(t, err, badBodyTypeMsg)

	b, err = NewWithBody("GET POST", "http://foo.com", "", nil)
	assert.Nil(t, b)
	assert.Error(t, err)
}

func TestBaseBody(t *testing.T) {
	b, err := New(MethodPost, "http://foo.com")
	require.NoError(t, err)

	body, err := b.Body()
	assert.NoError(t, err)
	assert.Nil(t, body)

	b.Form = url.Values{"spam": {"eggs"}, "ham": {"1"}}
	body, err = b.Body()
	assert.NoError(t, err)
	assert.Equal(t, []byte("ham=1&spam=eggs"), body)
	assert.Equal(t, "application/x-www-form-urlencoded; charset=UTF-8", b.BodyContentType())
	params, err := b.Params()
	assert.NoError(t, err)
	assert.Equal(t, b.Form, params)

	b.BodyBytes = []byte("{}")
	b.ContentType = "application/json"
	body, err = b.Body()
	assert.NoError(t, err)
	assert.Equal(t, []byte("{}"), body)
	assert.Equal(t, "application/json", b.BodyContentType())
}

func TestBaseFlags(t *testing.T) {
	b, err := New(MethodGet, "http://foo.com")
	require.NoError(t, err)

	assert.False(t, b.Canceled())
	assert.True(t, b.ShouldCache())
	assert.False(t, b.HasHadResponseDelivered())
	assert.False(t, b.Finished())

	b.Cancel()
	assert.True(t, b.Canceled())
	b.SetShouldCache(false)
	assert.False(t, b.ShouldCache())
	b.SetShouldCache(true)
	assert.True(t, b.ShouldCache())
	b.MarkDelivered()
	assert.True(t, b.HasHadResponseDelivered())

	b.TimeoutDuration = time.Second
	assert.Equal(t, time.Second, b.Timeout())
	assert.Nil(t, b.CacheEntry())
	b.Entry = &cache.Entry{ETag: "x"}
	assert.Same(t, b.Entry, b.CacheEntry())
}

func TestBaseConcurrentFlags(t *testing.T) {
	b, err := New(MethodGet, "http://foo.com")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			b.Cancel()
			b.AddMarker("cancel")
		}()
		go func() {
			defer wg.Done()
			_ = b.Canceled()
			_ = b.Markers()
			b.AddMarker("read")
		}()
	}
	wg.Wait()
	assert.True(t, b.Canceled())
	assert.Len(t, b.Markers(), 16)
}

func TestBaseFinish(t *testing.T) {
	b, err := New(MethodGet, "http://foo.com")
	require.NoError(t, err)

	assert.PanicsWithValue(t, "httpq/request: nil finish hook", func() { b.OnFinish(nil) })

	var labels []string
	b.OnFinish(func(label string) {
		labels = append(labels, label)
	})
	b.AddMarker("network-queue-take")
	b.Finish("done")
	b.Finish("again")
	assert.True(t, b.Finished())
	assert.Equal(t, []string{"done"}, labels)

	markers := b.Markers()
	assert.Equal(t, []string{"network-queue-take", "done", "again"}, Labels(markers))
	assert.False(t, markers[1].Time.Before(markers[0].Time))
	assert.True(t, Elapsed(markers) >= 0)
	assert.Equal(t, time.Duration(0), Elapsed(markers[:1]))
}

func TestBaseRemapAndDeliver(t *testing.T) {
	b, err := New(MethodGet, "http://foo.com")
	require.NoError(t, err)

	e := failure.New(failure.Server, "")
	assert.Same(t, e, b.RemapError(e))

	b.DeliverResult("ignored")
	b.DeliverError(e)

	var result interface{}
	var gotErr *failure.Error
	b.OnResult = func(r interface{}) { result = r }
	b.OnError = func(err *failure.Error) { gotErr = err }
	b.DeliverResult("foo")
	b.DeliverError(e)
	assert.Equal(t, "foo", result)
	assert.Same(t, e, gotErr)
}
