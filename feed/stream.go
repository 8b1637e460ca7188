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

// Package feed writes a document made of a header, a sequence of formatted
// records and a footer, one record at a time.
package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/koopjs/koop-output-dcat-ap-201/sources"
)

// the state of a Stream
type State int

const (
	NotStarted State = iota // nothing written yet
	Streaming               // header and at least one record written
	Ended                   // footer written
	Failed                  // aborted; no footer will be written
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Streaming:
		return "streaming"
	case Ended:
		return "ended"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// formats a single record as a fragment of the document
type FormatFunc func(record map[string]any) (string, error)

// A Stream frames formatted records between a header and a footer. The
// header is written with the first record (or on Close if there are none) and
// records are separated by the separator. A Stream is not safe for
// concurrent use.
type Stream struct {
	w         io.Writer
	header    string
	footer    string
	separator string
	format    FormatFunc
	state     State
	count     int
	err       error
}

func NewStream(w io.Writer, header, footer, separator string, format FormatFunc) *Stream {
	return &Stream{
		w:         w,
		header:    header,
		footer:    footer,
		separator: separator,
		format:    format,
		state:     NotStarted,
	}
}

// the current state of the stream
func (s *Stream) State() State {
	return s.state
}

// the number of records written
func (s *Stream) Count() int {
	return s.count
}

// the error that failed the stream, if any
func (s *Stream) Err() error {
	return s.err
}

// Write formats a record and writes it, preceded by the header if it's the
// first record and by the separator otherwise. If formatting fails nothing is
// written and the stream fails.
func (s *Stream) Write(record map[string]any) error {
	if s.state == Ended || s.state == Failed {
		return &ClosedError{State: s.state}
	}
	fragment, err := s.format(record)
	if err != nil {
		s.Abort(err)
		return err
	}
	prefix := s.separator
	if s.state == NotStarted {
		prefix = s.header
	}
	if _, err := io.WriteString(s.w, prefix+fragment); err != nil {
		s.Abort(err)
		return err
	}
	s.state = Streaming
	s.count++
	return nil
}

// Close ends the document, writing the header first if no records were
// written. Closing an ended stream does nothing.
func (s *Stream) Close() error {
	switch s.state {
	case Ended:
		return nil
	case Failed:
		return &ClosedError{State: s.state}
	}
	text := s.footer
	if s.state == NotStarted {
		text = s.header + s.footer
	}
	if _, err := io.WriteString(s.w, text); err != nil {
		s.Abort(err)
		return err
	}
	s.state = Ended
	return nil
}

// Abort fails the stream without writing its footer.
func (s *Stream) Abort(err error) {
	if s.state == Ended || s.state == Failed {
		return
	}
	s.state = Failed
	s.err = err
	slog.Debug("Feed stream aborted", "records", s.count, "error", err)
}

// Copy pulls records from the source until it is exhausted, writing each one,
// and then closes the stream. It stops when the context is cancelled or the
// source fails, leaving the stream Failed. A source that is an io.Closer is
// closed before Copy returns. The number of records written is returned.
func (s *Stream) Copy(ctx context.Context, src sources.Source) (int, error) {
	if closer, ok := src.(io.Closer); ok {
		defer closer.Close()
	}
	for {
		if err := ctx.Err(); err != nil {
			s.Abort(err)
			return s.count, err
		}
		record, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return s.count, s.Close()
		}
		if err != nil {
			s.Abort(err)
			return s.count, err
		}
		slog.Debug("Writing feed record", "index", s.count)
		if err := s.Write(record); err != nil {
			return s.count, err
		}
	}
}
