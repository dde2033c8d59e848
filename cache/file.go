// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cache

import (
	"io"
	"os"
	"path/filepath"
)

// A BackingFile is a cache-backing file being written. The body is
// written to a temporary file next to the final path, which Commit
// renames into place, so an existing file at that path is replaced
// rather than appended to.
type BackingFile struct {
	path   string
	tmp    *os.File
	closed bool
}

// CreateBackingFile creates the directory for path and a temporary
// file to write the body into.
func CreateBackingFile(path string) (*BackingFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return nil, err
	}
	return &BackingFile{path: path, tmp: tmp}, nil
}

// Path returns the final path of the file.
func (f *BackingFile) Path() string {
	return f.path
}

// CopyFrom takes ownership of src, copies it to the file to the end,
// and closes it. Errors reading src are returned as they are; errors
// writing the file are returned as a *WriteError.
func (f *BackingFile) CopyFrom(src io.ReadCloser) (int64, error) {
	defer func() {
		_ = src.Close()
	}()
	return io.Copy(writerOnly{f.tmp}, readerOnly{src})
}

// Commit closes the file and moves it to its final path. If Commit
// fails the temporary file is kept, with everything copied so far, for
// Recover or Abort.
func (f *BackingFile) Commit() error {
	if !f.closed {
		f.closed = true
		if err := f.tmp.Close(); err != nil {
			return &WriteError{Err: err}
		}
	}
	if err := os.Rename(f.tmp.Name(), f.path); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

// Recover opens the uncommitted temporary file for reading. Closing the
// returned reader removes the file.
func (f *BackingFile) Recover() (io.ReadCloser, error) {
	if !f.closed {
		f.closed = true
		_ = f.tmp.Close()
	}
	r, err := os.Open(f.tmp.Name())
	if err != nil {
		return nil, err
	}
	return tempReader{r}, nil
}

// Abort closes and removes the temporary file.
func (f *BackingFile) Abort() {
	if !f.closed {
		f.closed = true
		_ = f.tmp.Close()
	}
	_ = os.Remove(f.tmp.Name())
}

type tempReader struct {
	*os.File
}

func (r tempReader) Close() error {
	err := r.File.Close()
	if rerr := os.Remove(r.Name()); err == nil {
		err = rerr
	}
	return err
}

// CopyToFile copies src to the file at path, replacing any existing
// file, and closes src. It returns the number of bytes copied.
func CopyToFile(src io.ReadCloser, path string) (int64, error) {
	f, err := CreateBackingFile(path)
	if err != nil {
		_ = src.Close()
		return 0, &WriteError{Err: err}
	}
	n, err := f.CopyFrom(src)
	if err == nil {
		err = f.Commit()
	}
	if err != nil {
		f.Abort()
	}
	return n, err
}

// A WriteError reports a failure writing a cache-backing file, as
// opposed to a failure reading the stream being copied.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string {
	return "httpq/cache: write backing file: " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// readerOnly hides any WriterTo so io.Copy reads through Read and read
// errors stay distinguishable from write errors.
type readerOnly struct {
	r io.Reader
}

func (r readerOnly) Read(p []byte) (int, error) {
	return r.r.Read(p)
}

type writerOnly struct {
	w io.Writer
}

func (w writerOnly) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	if err != nil {
		return n, &WriteError{Err: err}
	}
	return n, nil
}
