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

package dcat

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a fault raised while building a feed. It carries the HTTP status
// code a host should respond with.
type Error struct {
	Message    string
	StatusCode int
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) HTTPStatus() int {
	return e.StatusCode
}

// CompilationError wraps a failure to project or compile a dataset entry.
func CompilationError(err error) error {
	return &Error{
		Message:    err.Error(),
		StatusCode: http.StatusInternalServerError,
	}
}

// ValidationError indicates unusable caller input (a malformed template or an
// unsupported feed version).
func ValidationError(message string) error {
	return &Error{
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// StatusCode returns the HTTP status associated with the given error: that of
// a dcat Error, of any error exposing an HTTPStatus method, or 500.
func StatusCode(err error) int {
	var dcatErr *Error
	if errors.As(err, &dcatErr) {
		return dcatErr.StatusCode
	}
	var statusErr interface{ HTTPStatus() int }
	if errors.As(err, &statusErr) {
		if status := statusErr.HTTPStatus(); status >= 400 {
			return status
		}
	}
	return http.StatusInternalServerError
}

// this error type is returned when a serialized catalog header doesn't end
// the way a JSON object should
type HeaderSuffixError struct {
	Header string
}

func (e HeaderSuffixError) Error() string {
	tail := e.Header
	if len(tail) > 10 {
		tail = tail[len(tail)-10:]
	}
	return fmt.Sprintf("Catalog header does not end with a closing brace (ends with %q)", tail)
}
