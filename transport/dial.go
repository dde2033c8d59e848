// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

type timeoutKey struct{}

// withTimeout returns a context carrying the connect and read timeout
// for the request about to be sent.
func withTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, timeoutKey{}, d)
}

func timeoutFrom(ctx context.Context) time.Duration {
	d, _ := ctx.Value(timeoutKey{}).(time.Duration)
	return d
}

// A deadlineConn pushes its read deadline forward before every Read, so
// the timeout bounds each read rather than the whole exchange.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

type dialer struct {
	tlsConfig func() *tls.Config
}

func (d *dialer) dial(ctx context.Context, network, addr string) (net.Conn, error) {
	timeout := timeoutFrom(ctx)
	nd := net.Dialer{Timeout: timeout}
	conn, err := nd.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		return conn, nil
	}
	return &deadlineConn{Conn: conn, timeout: timeout}, nil
}

func (d *dialer) dialTLS(ctx context.Context, network, addr string) (net.Conn, error) {
	conn, err := d.dial(ctx, network, addr)
	if err != nil {
		return nil, err
	}

	var cfg *tls.Config
	if d.tlsConfig != nil {
		cfg = d.tlsConfig()
	}
	if cfg == nil {
		cfg = &tls.Config{}
	} else {
		cfg = cfg.Clone()
	}
	if cfg.ServerName == "" {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			host = addr
		}
		cfg.ServerName = host
	}
	if len(cfg.NextProtos) == 0 {
		cfg.NextProtos = []string{http2.NextProtoTLS, "http/1.1"}
	}

	hctx := ctx
	if timeout := timeoutFrom(ctx); timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	tc := tls.Client(conn, cfg)
	if err = tc.HandshakeContext(hctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return tc, nil
}

// newClient returns the built-in HTTP client. Its round tripper dials
// every request on a fresh connection bounded by the request timeout
// and negotiates HTTP/2 over TLS when the server offers it.
func newClient(tlsConfig func() *tls.Config) *http.Client {
	d := &dialer{tlsConfig: tlsConfig}
	t := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DialContext:       d.dial,
		DialTLSContext:    d.dialTLS,
		DisableKeepAlives: true,
	}
	if err := http2.ConfigureTransport(t); err != nil {
		panic("httpq/transport: " + err.Error())
	}
	return &http.Client{Transport: t}
}
