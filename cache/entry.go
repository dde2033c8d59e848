// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gogama/httpq/network"
)

// An Entry holds the cache metadata for one response.
type Entry struct {
	// ETag is the entity tag for conditional revalidation.
	ETag string

	// LastModified is the Last-Modified time sent by the server, if
	// any.
	LastModified time.Time

	// ServerDate is the Date sent by the server, if any.
	ServerDate time.Time

	// SoftTTL is the time after which the entry should be refreshed.
	SoftTTL time.Time

	// TTL is the time after which the entry must not be used.
	TTL time.Time

	// Header contains the response headers the entry was parsed from.
	Header network.Header

	// DataFilePath is the path of the file holding the persisted body.
	// It is empty until the body has been copied.
	DataFilePath string
}

// Expired reports whether the entry's hard expiry has passed.
func (e *Entry) Expired() bool {
	return e.expiredAt(time.Now())
}

// RefreshNeeded reports whether the entry's soft expiry has passed.
func (e *Entry) RefreshNeeded() bool {
	return e.refreshNeededAt(time.Now())
}

func (e *Entry) expiredAt(now time.Time) bool {
	return !now.Before(e.TTL)
}

func (e *Entry) refreshNeededAt(now time.Time) bool {
	return !now.Before(e.SoftTTL)
}

// ParseHeaders derives a cache entry from the headers of resp.
//
// The freshness window comes from Cache-Control (max-age,
// stale-while-revalidate, must-revalidate, proxy-revalidate) or, when
// Cache-Control is absent, from the difference between Expires and
// Date. ParseHeaders returns nil if the response forbids caching
// (no-cache or no-store), or if it carries no cache directive at all:
// neither Cache-Control, Expires, ETag, nor Last-Modified.
func ParseHeaders(resp *network.Response) *Entry {
	return parseHeaders(resp, time.Now())
}

func parseHeaders(resp *network.Response, now time.Time) *Entry {
	h := resp.Header

	cacheControl := h.Get("Cache-Control")
	expires := h.Get("Expires")
	etag := h.Get("ETag")
	lastModified := h.Get("Last-Modified")
	if cacheControl == "" && expires == "" && etag == "" && lastModified == "" {
		return nil
	}

	var maxAge, staleWhileRevalidate int64
	var mustRevalidate bool
	for _, token := range strings.Split(cacheControl, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		switch {
		case token == "no-cache" || token == "no-store":
			return nil
		case strings.HasPrefix(token, "max-age="):
			maxAge = parseSeconds(token[len("max-age="):])
		case strings.HasPrefix(token, "stale-while-revalidate="):
			staleWhileRevalidate = parseSeconds(token[len("stale-while-revalidate="):])
		case token == "must-revalidate" || token == "proxy-revalidate":
			mustRevalidate = true
		}
	}

	e := &Entry{
		ETag:         etag,
		LastModified: parseDate(lastModified),
		ServerDate:   parseDate(h.Get("Date")),
		Header:       h,
	}

	if cacheControl != "" {
		e.SoftTTL = now.Add(time.Duration(maxAge) * time.Second)
		if mustRevalidate {
			e.TTL = e.SoftTTL
		} else {
			e.TTL = e.SoftTTL.Add(time.Duration(staleWhileRevalidate) * time.Second)
		}
	} else if serverExpires := parseDate(expires); !e.ServerDate.IsZero() && !serverExpires.Before(e.ServerDate) {
		e.SoftTTL = now.Add(serverExpires.Sub(e.ServerDate))
		e.TTL = e.SoftTTL
	} else {
		e.SoftTTL = now
		e.TTL = now
	}

	return e
}

// ConditionalHeaders returns the request headers for revalidating e
// with the origin: If-None-Match when e has an ETag, and
// If-Modified-Since when e has a Last-Modified or server Date. It
// returns an empty map for a nil entry.
func ConditionalHeaders(e *Entry) map[string]string {
	h := make(map[string]string, 2)
	if e == nil {
		return h
	}
	if e.ETag != "" {
		h["If-None-Match"] = e.ETag
	}
	if !e.LastModified.IsZero() {
		h["If-Modified-Since"] = e.LastModified.UTC().Format(http.TimeFormat)
	} else if !e.ServerDate.IsZero() {
		h["If-Modified-Since"] = e.ServerDate.UTC().Format(http.TimeFormat)
	}
	return h
}

func parseSeconds(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := http.ParseTime(s)
	if err != nil {
		return time.Time{}
	}
	return t
}
