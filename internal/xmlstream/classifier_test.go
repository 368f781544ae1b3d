package xmlstream

import (
	"errors"
	"io"
	"testing"
)

type docsSource struct {
	docs [][]byte
	idx  int
}

func (s *docsSource) Next() ([]byte, error) {
	if s.idx >= len(s.docs) {
		return nil, io.EOF
	}
	d := s.docs[s.idx]
	s.idx++
	return d, nil
}

const grantDoc = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE us-patent-grant SYSTEM "us-patent-grant-v46.dtd">
<us-patent-grant/>
`

const sequenceDoc = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE sequence-cwu SYSTEM "us-sequence-listing.dtd">
<sequence-cwu/>
`

func collectFiltered(t *testing.T, c *Classifier) [][]byte {
	t.Helper()
	var docs [][]byte
	for {
		doc, err := c.Next()
		if errors.Is(err, io.EOF) {
			return docs
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		docs = append(docs, doc)
	}
}

func TestClassifier_DropsExcludedDoctype(t *testing.T) {
	src := &docsSource{docs: [][]byte{[]byte(grantDoc), []byte(sequenceDoc), []byte(grantDoc)}}
	c := NewClassifier(src, "sequence-cwu")

	docs := collectFiltered(t, c)
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	if c.Excluded() != 1 {
		t.Errorf("Excluded = %d, want 1", c.Excluded())
	}
}

func TestClassifier_MissingDoctypePassesThrough(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\"?>\n<mystery/>\n")
	c := NewClassifier(&docsSource{docs: [][]byte{doc}}, "sequence-cwu")

	docs := collectFiltered(t, c)
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
	if c.Excluded() != 0 {
		t.Errorf("Excluded = %d, want 0", c.Excluded())
	}
}

func TestClassifier_ExclusionSubstringOutsideDoctypeIgnored(t *testing.T) {
	// The marker only counts inside the DOCTYPE declaration itself.
	doc := []byte(`<?xml version="1.0"?>
<!DOCTYPE us-patent-grant SYSTEM "us-patent-grant-v46.dtd">
<us-patent-grant><title>sequence-cwu analyzer</title></us-patent-grant>
`)
	c := NewClassifier(&docsSource{docs: [][]byte{doc}}, "sequence-cwu")

	docs := collectFiltered(t, c)
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
}

func TestClassifier_OrderPreservingAndStable(t *testing.T) {
	input := [][]byte{[]byte(grantDoc), []byte(sequenceDoc), []byte(grantDoc), []byte(grantDoc)}

	run := func() []string {
		c := NewClassifier(&docsSource{docs: input}, "sequence-cwu")
		var out []string
		for _, d := range collectFiltered(t, c) {
			out = append(out, string(d))
		}
		return out
	}

	first, second := run(), run()
	if len(first) != 3 || len(second) != 3 {
		t.Fatalf("got %d and %d documents, want 3", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("document %d differs between runs", i)
		}
	}
}

func TestClassifier_EmptyExcludeDisablesFiltering(t *testing.T) {
	src := &docsSource{docs: [][]byte{[]byte(sequenceDoc)}}
	c := NewClassifier(src, "")

	docs := collectFiltered(t, c)
	if len(docs) != 1 {
		t.Fatalf("got %d documents, want 1", len(docs))
	}
}
