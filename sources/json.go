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

package sources

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode"
)

// A JSONSource decodes records from a reader holding either a single JSON
// array of objects or a sequence of objects (e.g. newline-delimited JSON).
// Records are decoded as they are requested.
type JSONSource struct {
	reader  *bufio.Reader
	decoder *json.Decoder
	inArray bool
	started bool
	index   int
}

func NewJSONSource(r io.Reader) *JSONSource {
	reader := bufio.NewReader(r)
	return &JSONSource{
		reader:  reader,
		decoder: json.NewDecoder(reader),
	}
}

func (s *JSONSource) Next(ctx context.Context) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.started {
		s.started = true
		first, err := s.peek()
		if err != nil {
			return nil, err
		}
		if first == '[' {
			if _, err := s.decoder.Token(); err != nil {
				return nil, err
			}
			s.inArray = true
		}
	}
	if s.inArray && !s.decoder.More() {
		return nil, io.EOF
	}
	var record Record
	if err := s.decoder.Decode(&record); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("Invalid record %d: %s", s.index, err.Error())
	}
	s.index++
	return record, nil
}

// returns the first non-space byte of the input without consuming it
func (s *JSONSource) peek() (byte, error) {
	for {
		b, err := s.reader.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) {
			return b, s.reader.UnreadByte()
		}
	}
}
