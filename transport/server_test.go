// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"
)

var httpServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var httpsServer = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var http2Server = httptest.NewUnstartedServer(http.HandlerFunc(serverHandler))
var servers = []*httptest.Server{httpServer, httpsServer, http2Server}

func TestMain(m *testing.M) {
	httpServer.Start()
	httpsServer.StartTLS()
	http2Server.EnableHTTP2 = true
	http2Server.StartTLS()
	code := m.Run()
	httpServer.Close()
	httpsServer.Close()
	http2Server.Close()
	os.Exit(code)
}

func serverName(server *httptest.Server) string {
	switch server {
	case httpServer:
		return "http"
	case httpsServer:
		return "https"
	case http2Server:
		return "http2"
	default:
		panic("unknown server")
	}
}

// serverTransport returns a Transport using the built-in client, which
// trusts the test server's certificate.
func serverTransport(server *httptest.Server) *Transport {
	t := &Transport{}
	if server.Certificate() != nil {
		pool := x509.NewCertPool()
		pool.AddCert(server.Certificate())
		t.TLSConfig = func() *tls.Config {
			return &tls.Config{RootCAs: pool}
		}
	}
	return t
}

type bodyChunk struct {
	Pause time.Duration
	Data  []byte
}

// A serverInstruction tells serverHandler how to respond. It travels
// in the "instruction" query parameter.
type serverInstruction struct {
	HeaderPause time.Duration
	StatusCode  int
	Header      map[string]string
	Body        []bodyChunk
	Echo        bool
}

func (i *serverInstruction) toJSON() []byte {
	b, err := json.Marshal(i)
	if err != nil {
		panic(err)
	}
	return b
}

func (i *serverInstruction) toURL(server *httptest.Server) string {
	return server.URL + "/?instruction=" + url.QueryEscape(string(i.toJSON()))
}

func (i *serverInstruction) fromRequest(req *http.Request) error {
	return json.Unmarshal([]byte(req.URL.Query().Get("instruction")), i)
}

// serverHandler follows the instruction in the request, reporting what
// it received in X-Received-* response headers.
func serverHandler(w http.ResponseWriter, req *http.Request) {
	// Decode the instructions.
	var i serverInstruction
	err := i.fromRequest(req)
	if err != nil {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("failed to read instruction: %s", err.Error()))
		return
	}

	// Validate the instruction.
	if i.StatusCode == 0 {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("bad StatusCode in instruction: %v", i))
		return
	}

	// Get the Flusher, panicking if it's not available.
	f, ok := w.(http.Flusher)
	if !ok {
		panic("w does not implement Flusher")
	}

	reqBody, err := ioutil.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		w.WriteHeader(400)
		_, _ = io.WriteString(w, fmt.Sprintf("failed to read request: %s", err.Error()))
		return
	}

	// Create the response headers.
	header := w.Header()
	header.Set("X-Received-Method", req.Method)
	header.Set("X-Received-Proto", req.Proto)
	header.Set("X-Received-Query", req.URL.RawQuery)
	header.Set("X-Received-User-Agent", req.Header.Get("User-Agent"))
	header.Set("X-Received-Content-Type", req.Header.Get("Content-Type"))
	header.Set("X-Received-Custom", req.Header.Get("X-Custom"))
	header.Set("X-Received-If-None-Match", req.Header.Get("If-None-Match"))
	for k, v := range i.Header {
		header.Set(k, v)
	}
	if i.Echo {
		header.Set("Content-Length", strconv.Itoa(len(reqBody)))
	} else {
		contentLength := 0
		for _, chunk := range i.Body {
			contentLength += len(chunk.Data)
		}
		header.Set("Content-Length", strconv.Itoa(contentLength))
	}

	// Sleep for the duration indicated by the pause field. This is done
	// to allow the client to play with timeouts.
	time.Sleep(i.HeaderPause)

	// Return the HTTP response stipulated by the client.
	w.WriteHeader(i.StatusCode)
	f.Flush()

	if i.Echo {
		_, _ = w.Write(reqBody)
		return
	}

	// Write the response in chunks, pausing before each chunk.
	for _, chunk := range i.Body {
		data := chunk.Data
		pause := chunk.Pause

		// Divide the chunk pause by the chunk length to get the pause
		// amount per byte.
		ppb := chunk.Pause / time.Duration(len(chunk.Data))

		// Write the chunk one byte at a time, flushing and pausing
		// after each byte is written.
		for i := range data {
			b := data[i : i+1]
			_, err = w.Write(b)
			if err != nil {
				return
			}
			f.Flush()
			time.Sleep(ppb)
			pause -= ppb
		}

		// Pause for any unconsumed time in the chunk pause.
		if pause > 0 {
			time.Sleep(pause)
		}
	}
}
