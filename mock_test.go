// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpq

import (
	"context"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gogama/httpq/cache"
	"github.com/gogama/httpq/failure"
	"github.com/gogama/httpq/network"
	"github.com/gogama/httpq/request"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExecutor struct {
	mock.Mock
}

func newMockExecutor(t *testing.T) *mockExecutor {
	m := &mockExecutor{}
	m.Test(t)
	return m
}

func (m *mockExecutor) Execute(ctx context.Context, r request.Request, extra map[string]string) (*network.Response, error) {
	args := m.Called(ctx, r, extra)
	if f, ok := args.Get(0).(func(context.Context, request.Request, map[string]string) *network.Response); ok {
		return f(ctx, r, extra), args.Error(1)
	}
	resp, _ := args.Get(0).(*network.Response)
	return resp, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func newMockStore(t *testing.T) *mockStore {
	m := &mockStore{}
	m.Test(t)
	return m
}

func (m *mockStore) FilePath(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *mockStore) Put(key string, e *cache.Entry) error {
	args := m.Called(key, e)
	return args.Error(0)
}

type mockDelivery struct {
	mock.Mock
}

func newMockDelivery(t *testing.T) *mockDelivery {
	m := &mockDelivery{}
	m.Test(t)
	return m
}

func (m *mockDelivery) PostResult(r request.Request, result interface{}) {
	m.Called(r, result)
}

func (m *mockDelivery) PostError(r request.Request, err *failure.Error) {
	m.Called(r, err)
}

// testRequest parses the body as a string unless parse is set.
type testRequest struct {
	*request.Base
	parse func(*network.Response) (interface{}, error)
	remap func(*failure.Error) *failure.Error
}

func newTestRequest(t *testing.T, rawURL string) *testRequest {
	b, err := request.New(request.MethodGet, rawURL)
	require.NoError(t, err)
	return &testRequest{Base: b}
}

func (r *testRequest) ParseResponse(resp *network.Response) (interface{}, error) {
	if r.parse != nil {
		return r.parse(resp)
	}
	b, err := resp.ReadAll()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *testRequest) RemapError(err *failure.Error) *failure.Error {
	if r.remap != nil {
		return r.remap(err)
	}
	return r.Base.RemapError(err)
}

// trackingBody is a network body which records whether it was closed.
type trackingBody struct {
	io.Reader
	closed atomic.Bool
}

func newTrackingBody(s string) *trackingBody {
	return &trackingBody{Reader: strings.NewReader(s)}
}

func (b *trackingBody) Close() error {
	b.closed.Store(true)
	return nil
}

// failingBody fails every read with err.
type failingBody struct {
	err    error
	closed atomic.Bool
}

func (b *failingBody) Read(_ []byte) (int, error) {
	return 0, b.err
}

func (b *failingBody) Close() error {
	b.closed.Store(true)
	return nil
}

func newResponse(status int, body io.ReadCloser, header network.Header) *network.Response {
	return network.NewResponse(status, body, header, status == 304)
}
