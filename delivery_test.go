// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/request"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutorDelivery(t *testing.T) {
	t.Run("synchronous", func(t *testing.T) {
		d := NewExecutorDelivery(nil, nil)
		r := newTestRequest(t, "http://foo.com")
		var result interface{}
		r.OnResult = func(v interface{}) { result = v }
		d.PostResult(r, "spam")
		assert.Equal(t, "spam", result)
		assert.True(t, r.Finished())
		assert.Equal(t, []string{"done"}, labels(r))

		r = newTestRequest(t, "http://foo.com")
		var gotErr *failure.Error
		r.OnError = func(err *failure.Error) { gotErr = err }
		e := failure.New(failure.Server, "")
		d.PostError(r, e)
		assert.Same(t, e, gotErr)
		assert.True(t, r.Finished())
	})
	t.Run("executor", func(t *testing.T) {
		var tasks []func()
		d := NewExecutorDelivery(func(task func()) {
			tasks = append(tasks, task)
		}, nil)
		r := newTestRequest(t, "http://foo.com")
		var result interface{}
		r.OnResult = func(v interface{}) { result = v }
		d.PostResult(r, "eggs")
		assert.Nil(t, result)
		assert.False(t, r.Finished())
		require.Len(t, tasks, 1)
		tasks[0]()
		assert.Equal(t, "eggs", result)
		assert.True(t, r.Finished())
	})
	t.Run("not a listener", func(t *testing.T) {
		d := NewExecutorDelivery(nil, nil)
		b := newTestRequest(t, "http://foo.com")
		r := silentRequest{b}
		assert.NotPanics(t, func() {
			d.PostResult(r, "x")
			d.PostError(r, failure.New(failure.Generic, ""))
		})
		assert.True(t, b.Finished())
	})
	t.Run("trace", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
		d := NewExecutorDelivery(nil, &logger)
		r := newTestRequest(t, "http://foo.com/trace")
		r.AddMarker(MarkerQueueTake)
		d.PostResult(r, nil)

		var line struct {
			Message string `json:"message"`
			URL     string `json:"url"`
			Markers []struct {
				Label string `json:"label"`
			} `json:"markers"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		assert.Equal(t, "request finished", line.Message)
		assert.Equal(t, "http://foo.com/trace", line.URL)
		require.Len(t, line.Markers, 2)
		assert.Equal(t, MarkerQueueTake, line.Markers[0].Label)
		assert.Equal(t, MarkerDone, line.Markers[1].Label)
	})
	t.Run("trace below debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
		d := NewExecutorDelivery(nil, &logger)
		d.PostResult(newTestRequest(t, "http://foo.com"), nil)
		assert.Empty(t, buf.String())
	})
}

type silentRequest struct {
	request.Request
}
