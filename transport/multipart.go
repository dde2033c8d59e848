// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transport

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogama/httpq/request"
	"github.com/google/uuid"
)

const (
	crlf          = "\r\n"
	boundaryDash  = "--"
	boundaryToken = "httpq-"
)

// newBoundary returns a boundary token unique to this process.
func newBoundary() string {
	return boundaryToken + uuid.NewString()
}

func multipartContentType(charset, boundary string) string {
	if charset == "" {
		charset = "UTF-8"
	}
	return fmt.Sprintf("multipart/form-data; charset=%s; boundary=%s", charset, boundary)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}

// validateForm rejects form fields that would break the part headers.
func validateForm(form *request.Form) error {
	check := func(what, v string) error {
		if strings.ContainsAny(v, "\r\n") {
			return fmt.Errorf("httpq/transport: invalid multipart %s %q", what, v)
		}
		return nil
	}
	if err := check("charset", form.Charset); err != nil {
		return err
	}
	for _, p := range form.Params {
		if err := check("param name", p.Name); err != nil {
			return err
		}
		if err := check("content type", p.ContentType); err != nil {
			return err
		}
	}
	for _, f := range form.Files {
		if err := check("file name", f.Name); err != nil {
			return err
		}
		if err := check("file path", filepath.Base(f.Path)); err != nil {
			return err
		}
	}
	return nil
}

// newMultipartBody returns a reader producing the encoded form. The
// form is encoded on a separate goroutine as the reader is consumed, so
// file contents are never held in memory. Closing the reader stops the
// encoder.
func newMultipartBody(boundary string, form *request.Form) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(writeMultipart(pw, boundary, form))
	}()
	return pr
}

// writeMultipart encodes form to w: every param in order, then every
// file in order, then the terminating boundary.
func writeMultipart(w io.Writer, boundary string, form *request.Form) error {
	bw := bufio.NewWriter(w)
	for _, p := range form.Params {
		fmt.Fprintf(bw, "%s%s%s", boundaryDash, boundary, crlf)
		fmt.Fprintf(bw, "Content-Disposition: form-data; name=\"%s\"%s", escapeQuotes(p.Name), crlf)
		fmt.Fprintf(bw, "Content-Type: %s%s", p.ContentType, crlf)
		bw.WriteString(crlf)
		bw.WriteString(p.Value)
		bw.WriteString(crlf)
	}
	for _, f := range form.Files {
		fmt.Fprintf(bw, "%s%s%s", boundaryDash, boundary, crlf)
		fmt.Fprintf(bw, "Content-Disposition: form-data; name=\"%s\"; filename=\"%s\"%s", escapeQuotes(f.Name), escapeQuotes(filepath.Base(f.Path)), crlf)
		bw.WriteString("Content-Type: application/octet-stream" + crlf)
		bw.WriteString("Content-Transfer-Encoding: binary" + crlf)
		bw.WriteString(crlf)
		if err := copyFile(bw, f.Path); err != nil {
			return err
		}
		bw.WriteString(crlf)
	}
	fmt.Fprintf(bw, "%s%s%s%s", boundaryDash, boundary, boundaryDash, crlf)
	return bw.Flush()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, f)
	return err
}
