// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"bytes"
	"crypto/md5"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// A Store indexes cache entries by cache key.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type Store interface {
	// FilePath returns the path of the file backing the body cached
	// under key. The file need not exist.
	FilePath(key string) string
	// Put stores e under key, replacing any previous entry.
	Put(key string, e *Entry) error
}

const entryPrefix = "e:"

// DiskStore is a Store keeping entries in a LevelDB database and
// response bodies in one file per key.
type DiskStore struct {
	dir string
	db  *leveldb.DB
}

// OpenDiskStore opens, creating it if needed, the disk store rooted at
// dir. Entries live in dir/index and bodies in dir/files.
func OpenDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "files"), 0o700); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(filepath.Join(dir, "index"), nil)
	if err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, db: db}, nil
}

// FilePath returns the backing file path for key. The file name is a
// hash of the key, so any key is safe to use.
func (s *DiskStore) FilePath(key string) string {
	sum := md5.Sum([]byte(key))
	return filepath.Join(s.dir, "files", hex.EncodeToString(sum[:]))
}

// Put stores e under key.
func (s *DiskStore) Put(key string, e *Entry) error {
	if e == nil {
		return errors.New("httpq/cache: nil entry")
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(e); err != nil {
		return err
	}
	return s.db.Put([]byte(entryPrefix+key), buf.Bytes(), nil)
}

// Get returns the entry stored under key, if any.
func (s *DiskStore) Get(key string) (*Entry, bool) {
	b, err := s.db.Get([]byte(entryPrefix+key), nil)
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&e); err != nil {
		return nil, false
	}
	return &e, true
}

// Remove deletes the entry stored under key and its backing file.
func (s *DiskStore) Remove(key string) error {
	if err := s.db.Delete([]byte(entryPrefix+key), nil); err != nil {
		return err
	}
	if err := os.Remove(s.FilePath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Keys returns the keys of all stored entries.
func (s *DiskStore) Keys() ([]string, error) {
	it := s.db.NewIterator(util.BytesPrefix([]byte(entryPrefix)), nil)
	defer it.Release()

	var keys []string
	for it.Next() {
		keys = append(keys, string(bytes.TrimPrefix(it.Key(), []byte(entryPrefix))))
	}
	return keys, it.Error()
}

// Close closes the underlying database.
func (s *DiskStore) Close() error {
	return s.db.Close()
}
