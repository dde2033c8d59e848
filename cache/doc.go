// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package cache contains the cache metadata attached to responses (Entry),
the parser deriving it from response headers (ParseHeaders), the
streaming copy of a response body into a cache-backing file
(BackingFile), and the Store contract the dispatch loop writes entries
to.

DiskStore is a Store keeping entries in a LevelDB index and bodies in
one file per cache key:

	store, err := cache.OpenDiskStore("/var/cache/httpq")
	...
	defer store.Close()

Eviction is not handled here. Remove deletes a single key and its
backing file.
*/
package cache
