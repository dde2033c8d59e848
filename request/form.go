// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// A Param is one named text part of a multipart form.
type Param struct {
	Name        string
	ContentType string
	Value       string
}

// A File is one named file attachment of a multipart form. The file
// at Path is streamed when the request is sent.
type File struct {
	Name string
	Path string
}

// A Form describes a multipart/form-data body. Parts are sent in
// order: all params, then all files.
type Form struct {
	// Charset names the character set of text parts. If empty,
	// UTF-8 is used.
	Charset string
	Params  []Param
	Files   []File
}

// AddParam appends a text part.
func (f *Form) AddParam(name, contentType, value string) {
	f.Params = append(f.Params, Param{Name: name, ContentType: contentType, Value: value})
}

// AddFile appends a file attachment.
func (f *Form) AddFile(name, path string) {
	f.Files = append(f.Files, File{Name: name, Path: path})
}

// A Multipart request sends a multipart/form-data body built from its
// form instead of Body.
type Multipart interface {
	Request
	MultipartForm() *Form
}
