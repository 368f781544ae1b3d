package xmlstream

import "bytes"

// doctypeSniffLen bounds how far into a document the classifier looks
// for the DOCTYPE declaration. USPTO grant files declare it on the
// second line, right after the XML declaration.
const doctypeSniffLen = 2048

var doctypeToken = []byte("<!DOCTYPE")

// DocumentSource supplies complete documents. Next returns io.EOF when
// the stream is exhausted.
type DocumentSource interface {
	Next() ([]byte, error)
}

// Classifier drops documents whose DOCTYPE declaration contains the
// exclusion substring (genetic sequence listings ship interleaved with
// grant records in the same archive). Documents without a readable
// DOCTYPE pass through; the extractor reports them if they are truly
// malformed.
type Classifier struct {
	src      DocumentSource
	exclude  []byte
	excluded int
}

// NewClassifier creates a Classifier that filters out documents whose
// doctype contains exclude. An empty exclude disables filtering.
func NewClassifier(src DocumentSource, exclude string) *Classifier {
	return &Classifier{src: src, exclude: []byte(exclude)}
}

// Next returns the next non-excluded document, preserving order.
func (c *Classifier) Next() ([]byte, error) {
	for {
		doc, err := c.src.Next()
		if err != nil {
			return nil, err
		}
		if len(c.exclude) > 0 && bytes.Contains(doctypeOf(doc), c.exclude) {
			c.excluded++
			continue
		}
		return doc, nil
	}
}

// Excluded returns how many documents were dropped so far.
func (c *Classifier) Excluded() int { return c.excluded }

// doctypeOf extracts the DOCTYPE declaration from the document prefix.
// Returns nil when no declaration is found within the sniff window.
func doctypeOf(doc []byte) []byte {
	prefix := doc
	if len(prefix) > doctypeSniffLen {
		prefix = prefix[:doctypeSniffLen]
	}
	start := bytes.Index(prefix, doctypeToken)
	if start < 0 {
		return nil
	}
	rest := prefix[start:]
	end := bytes.IndexByte(rest, '>')
	if end < 0 {
		return rest
	}
	return rest[:end+1]
}
