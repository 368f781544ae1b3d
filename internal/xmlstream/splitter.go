// Package xmlstream re-segments concatenated XML archive members into
// individual documents and filters them by declared document type.
package xmlstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// DocumentMarker is the literal byte prefix that starts a new embedded
// XML document inside a concatenated archive member.
var DocumentMarker = []byte("<?xml")

// LineSource supplies raw lines in order. Next returns io.EOF when the
// stream is exhausted.
type LineSource interface {
	Next() ([]byte, error)
}

// Splitter accumulates lines into whole XML documents. A document ends
// when the next line starts with DocumentMarker or when input runs out.
// The marker test is strictly per-line; no look-ahead across lines.
type Splitter struct {
	src  LineSource
	buf  bytes.Buffer
	done bool
}

// NewSplitter creates a Splitter over src.
func NewSplitter(src LineSource) *Splitter {
	return &Splitter{src: src}
}

// Next returns the next complete document. A stream without any marker
// yields exactly one document spanning all input. Returns io.EOF when
// exhausted; any other error is fatal for the stream.
func (s *Splitter) Next() ([]byte, error) {
	if s.done {
		return nil, io.EOF
	}

	for {
		line, err := s.src.Next()
		if errors.Is(err, io.EOF) {
			s.done = true
			if s.buf.Len() == 0 {
				return nil, io.EOF
			}
			return s.flush(), nil
		}
		if err != nil {
			s.done = true
			return nil, fmt.Errorf("read line: %w", err)
		}

		if bytes.HasPrefix(line, DocumentMarker) && s.buf.Len() > 0 {
			doc := s.flush()
			s.buf.Write(line)
			return doc, nil
		}
		s.buf.Write(line)
	}
}

// flush drains the buffer into an immutable document.
func (s *Splitter) flush() []byte {
	doc := make([]byte, s.buf.Len())
	copy(doc, s.buf.Bytes())
	s.buf.Reset()
	return doc
}
