// Package pipeline composes the archive line stream, document
// splitter, doctype filter, and record extractor into one lazy,
// single-pass sequence of patent records.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/grantstream/patentrag/internal/domain/patent"
	"github.com/grantstream/patentrag/internal/extract"
	"github.com/grantstream/patentrag/internal/metrics"
	"github.com/grantstream/patentrag/internal/xmlstream"
)

// Config holds pipeline construction parameters.
type Config struct {
	// ExcludeDoctype is the doctype substring that drops a document.
	// Empty disables filtering.
	ExcludeDoctype string
	// Rules is the extraction rule table. Nil means extract.GrantSchema.
	Rules []extract.Rule
	// Logger for per-document failures. Nil means no-op.
	Logger *zap.Logger
}

// Stats summarizes one pipeline run.
type Stats struct {
	DocumentsSeen     int // documents emitted by the splitter
	DocumentsExcluded int // dropped by the doctype filter
	DocumentsFailed   int // failed extraction, skipped
	Records           int // successfully extracted
}

// Candidates returns the number of documents that reached the extractor.
func (s Stats) Candidates() int { return s.DocumentsSeen - s.DocumentsExcluded }

// Pipeline is a pull-based record stream. Each Next pulls exactly as
// much upstream input as one record requires; nothing is buffered
// beyond one in-flight document.
type Pipeline struct {
	classifier *xmlstream.Classifier
	extractor  *extract.Extractor
	logger     *zap.Logger
	limit      int // -1 means unlimited
	candidates int
	failed     int
	records    int
	lastExcl   int
	done       bool
}

// New builds a Pipeline over a line source.
func New(src xmlstream.LineSource, cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		classifier: xmlstream.NewClassifier(xmlstream.NewSplitter(src), cfg.ExcludeDoctype),
		extractor:  extract.NewExtractor(cfg.Rules),
		logger:     logger,
		limit:      -1,
	}
}

// Take bounds the stream to the first n records. n <= 0 yields an
// empty stream without pulling any documents.
func (p *Pipeline) Take(n int) *Pipeline {
	if n < 0 {
		n = 0
	}
	p.limit = n
	return p
}

// Next returns the next extracted record. Documents that fail
// extraction are logged, counted, and skipped; the sequence continues.
// Returns io.EOF when the stream is exhausted or the Take bound is
// reached. Any other error is fatal.
func (p *Pipeline) Next() (patent.Record, error) {
	if p.done || p.limit == 0 {
		p.done = true
		return patent.Record{}, io.EOF
	}

	for {
		doc, err := p.classifier.Next()
		if excl := p.classifier.Excluded(); excl > p.lastExcl {
			metrics.DocumentsTotal.WithLabelValues("excluded").Add(float64(excl - p.lastExcl))
			p.lastExcl = excl
		}
		if errors.Is(err, io.EOF) {
			p.done = true
			return patent.Record{}, io.EOF
		}
		if err != nil {
			p.done = true
			return patent.Record{}, fmt.Errorf("read document: %w", err)
		}
		p.candidates++

		start := time.Now()
		rec, err := p.extractor.Extract(doc)
		metrics.ExtractDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			p.failed++
			metrics.DocumentsTotal.WithLabelValues("failed").Inc()
			p.logger.Warn("document skipped",
				zap.Int("candidate", p.candidates),
				zap.Error(err),
			)
			continue
		}

		p.records++
		metrics.DocumentsTotal.WithLabelValues("extracted").Inc()
		metrics.RecordsExtractedTotal.Inc()
		if p.limit > 0 {
			p.limit--
		}
		return rec, nil
	}
}

// Stats returns the counters accumulated so far. After the stream ends
// it reports the full run, supporting "extracted N of M" summaries.
func (p *Pipeline) Stats() Stats {
	excluded := p.classifier.Excluded()
	return Stats{
		DocumentsSeen:     p.candidates + excluded,
		DocumentsExcluded: excluded,
		DocumentsFailed:   p.failed,
		Records:           p.records,
	}
}

// Collect materializes the remaining stream into an ordered slice.
// The context cancels between records.
func (p *Pipeline) Collect(ctx context.Context) ([]patent.Record, Stats, error) {
	var records []patent.Record
	for {
		if err := ctx.Err(); err != nil {
			return records, p.Stats(), fmt.Errorf("collect: %w", err)
		}
		rec, err := p.Next()
		if errors.Is(err, io.EOF) {
			return records, p.Stats(), nil
		}
		if err != nil {
			return records, p.Stats(), err
		}
		records = append(records, rec)
	}
}
