// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
	"io/ioutil"
	"net/url"
)

const badBodyTypeMsg = "httpq/request: invalid body type (use nil, string, " +
	"[]byte, url.Values or io.Reader)"

// BodyBytes reads a body argument into the bytes sent on the wire.
//
// A nil body yields nil. A string or []byte is used as is, and
// url.Values is form-encoded. An io.Reader is read to the end and, if
// it is also an io.Closer, closed; an error from either is returned
// with a nil slice. Any other type is an error.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return x, nil
	case string:
		return []byte(x), nil
	case url.Values:
		return []byte(x.Encode()), nil
	case io.Reader:
		return readBody(x)
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

func readBody(r io.Reader) ([]byte, error) {
	b, err := ioutil.ReadAll(r)
	if c, ok := r.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}
