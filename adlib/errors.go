// Copyright (c) 2024 The koop-output-dcat-ap-201 Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package adlib

import (
	"fmt"
)

// this error type is returned when a placeholder names a transform that
// hasn't been registered
type UnknownTransformError struct {
	Transform, Path string
}

func (e UnknownTransformError) Error() string {
	return fmt.Sprintf("Unknown transform '%s' requested for '%s'", e.Transform, e.Path)
}

// this error type is returned when a registered transform fails
type TransformError struct {
	Transform, Path string
	Err             error
}

func (e TransformError) Error() string {
	return fmt.Sprintf("Transform '%s' failed for '%s': %s", e.Transform, e.Path, e.Err.Error())
}

func (e TransformError) Unwrap() error {
	return e.Err
}
