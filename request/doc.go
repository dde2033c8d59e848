// Copyright 2021 The httpq Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the Request contract consumed by the dispatch
loop, the Base type holding the state every request variant shares, and
the String, Upload and JSON variants.

A variant embeds *Base and implements ParseResponse:

	type Avatar struct {
		*request.Base
	}

	func (a *Avatar) ParseResponse(resp *network.Response) (interface{}, error) {
		if e := request.CheckStatus(resp); e != nil {
			return nil, e
		}
		return image.Decode(resp.Body())
	}

Variants may also override RemapError to reclassify failures before
they are delivered, for example to treat a particular 403 as a
transient AuthFailure:

	func (a *Avatar) RemapError(err *failure.Error) *failure.Error {
		if err.StatusCode() == 403 {
			return &failure.Error{Kind: failure.AuthFailure, Response: err.Response, Msg: "token expired"}
		}
		return err
	}

The flags a Base holds (cancelled, should cache, delivered) are atomic,
so a caller may Cancel a request while a worker is dispatching it. A
cancellation observed after network work has started has no effect.
*/
package request
