package query

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/grantstream/patentrag/internal/domain"
	"github.com/grantstream/patentrag/internal/index"
)

// --- Mocks ---

type mockEmbedder struct {
	vector []float32
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = m.vector
	}
	return vectors, nil
}

type mockSearcher struct {
	hits   []index.Hit
	gotK   int
	gotVec []float32
	err    error
}

func (m *mockSearcher) Query(_ context.Context, vector []float32, k int) ([]index.Hit, error) {
	m.gotVec = vector
	m.gotK = k
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

type mockReranker struct {
	results []domain.RerankedDoc
	gotDocs []string
	err     error
}

func (m *mockReranker) Rerank(_ context.Context, _ string, docs []string, _ int) ([]domain.RerankedDoc, error) {
	m.gotDocs = docs
	if m.err != nil {
		return nil, m.err
	}
	return m.results, nil
}

type mockSummarizer struct {
	summary string
	gotDocs []string
	err     error
}

func (m *mockSummarizer) Summarize(_ context.Context, _ string, docs []string) (string, error) {
	m.gotDocs = docs
	if m.err != nil {
		return "", m.err
	}
	return m.summary, nil
}

func testHits() []index.Hit {
	return []index.Hit{
		{ID: "US1", Score: 0.9, Title: "Feeder", Text: "Feeder\n\n1. A feeder."},
		{ID: "US2", Score: 0.8, Title: "Collar", Text: "Collar\n\n1. A collar."},
		{ID: "US3", Score: 0.7, Title: "Leash", Text: "Leash\n\n1. A leash."},
	}
}

// --- Tests ---

func TestSearch_NoRerankNoSummary(t *testing.T) {
	idx := &mockSearcher{hits: testHits()}
	svc := New(&mockEmbedder{vector: []float32{0.5}}, idx, nil, nil, Config{TopK: 10}, nil)

	answer, err := svc.Search(context.Background(), "pet feeder", 0, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if idx.gotK != 10 {
		t.Errorf("k = %d, want configured default 10", idx.gotK)
	}
	if len(answer.Hits) != 3 || answer.Hits[0].ID != "US1" {
		t.Errorf("hits = %+v", answer.Hits)
	}
	if answer.Summary != "" {
		t.Errorf("Summary = %q, want empty", answer.Summary)
	}
}

func TestSearch_ExplicitTopK(t *testing.T) {
	idx := &mockSearcher{hits: testHits()}
	svc := New(&mockEmbedder{vector: []float32{0.5}}, idx, nil, nil, Config{TopK: 10}, nil)

	if _, err := svc.Search(context.Background(), "q", 3, false); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if idx.gotK != 3 {
		t.Errorf("k = %d, want 3", idx.gotK)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := New(&mockEmbedder{}, &mockSearcher{}, nil, nil, Config{}, nil)

	_, err := svc.Search(context.Background(), "   ", 0, false)
	if !errors.Is(err, domain.ErrEmptyQuery) {
		t.Errorf("error = %v, want ErrEmptyQuery", err)
	}
}

func TestSearch_RerankReorders(t *testing.T) {
	rerank := &mockReranker{results: []domain.RerankedDoc{
		{Index: 2, Score: 0.95},
		{Index: 0, Score: 0.4},
	}}
	svc := New(&mockEmbedder{vector: []float32{0.5}}, &mockSearcher{hits: testHits()},
		rerank, nil, Config{TopN: 2}, nil)

	answer, err := svc.Search(context.Background(), "leash", 0, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(answer.Hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(answer.Hits))
	}
	if answer.Hits[0].ID != "US3" || answer.Hits[1].ID != "US1" {
		t.Errorf("hits = %+v, want US3 then US1", answer.Hits)
	}
	if answer.Hits[0].Score != 0.95 {
		t.Errorf("Score = %v, want rerank score 0.95", answer.Hits[0].Score)
	}
	if len(rerank.gotDocs) != 3 || !strings.Contains(rerank.gotDocs[1], "Collar") {
		t.Errorf("rerank docs = %v", rerank.gotDocs)
	}
}

func TestSearch_SummaryUsesTopDocs(t *testing.T) {
	sum := &mockSummarizer{summary: "US1 describes a feeder."}
	svc := New(&mockEmbedder{vector: []float32{0.5}}, &mockSearcher{hits: testHits()},
		nil, sum, Config{MaxDocs: 2}, nil)

	answer, err := svc.Search(context.Background(), "feeder", 0, true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if answer.Summary != "US1 describes a feeder." {
		t.Errorf("Summary = %q", answer.Summary)
	}
	if len(sum.gotDocs) != 2 {
		t.Fatalf("summarizer got %d docs, want 2", len(sum.gotDocs))
	}
	if !strings.HasPrefix(sum.gotDocs[0], "Patent US1:") {
		t.Errorf("doc = %q, want patent id prefix", sum.gotDocs[0])
	}
}

func TestSearch_SummaryNotRequested(t *testing.T) {
	sum := &mockSummarizer{summary: "unused"}
	svc := New(&mockEmbedder{vector: []float32{0.5}}, &mockSearcher{hits: testHits()},
		nil, sum, Config{}, nil)

	answer, err := svc.Search(context.Background(), "feeder", 0, false)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if answer.Summary != "" {
		t.Errorf("Summary = %q, want empty", answer.Summary)
	}
	if sum.gotDocs != nil {
		t.Error("summarizer should not run when no answer is requested")
	}
}

func TestSearch_NoHitsSkipsStages(t *testing.T) {
	rerank := &mockReranker{}
	sum := &mockSummarizer{}
	svc := New(&mockEmbedder{vector: []float32{0.5}}, &mockSearcher{}, rerank, sum, Config{}, nil)

	answer, err := svc.Search(context.Background(), "nothing", 0, true)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(answer.Hits) != 0 || answer.Summary != "" {
		t.Errorf("answer = %+v, want empty", answer)
	}
	if rerank.gotDocs != nil || sum.gotDocs != nil {
		t.Error("rerank/summarize should not run on empty retrieval")
	}
}

func TestSearch_EmbedError(t *testing.T) {
	wantErr := errors.New("provider down")
	svc := New(&mockEmbedder{err: wantErr}, &mockSearcher{}, nil, nil, Config{}, nil)

	_, err := svc.Search(context.Background(), "q", 0, false)
	if !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestSearch_IndexError(t *testing.T) {
	svc := New(&mockEmbedder{vector: []float32{0.5}},
		&mockSearcher{err: domain.ErrIndexUnavailable}, nil, nil, Config{}, nil)

	_, err := svc.Search(context.Background(), "q", 0, false)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Errorf("error = %v, want ErrIndexUnavailable", err)
	}
}

func TestSearch_RerankError(t *testing.T) {
	svc := New(&mockEmbedder{vector: []float32{0.5}}, &mockSearcher{hits: testHits()},
		&mockReranker{err: domain.ErrRerankProviderError}, nil, Config{}, nil)

	_, err := svc.Search(context.Background(), "q", 0, false)
	if !errors.Is(err, domain.ErrRerankProviderError) {
		t.Errorf("error = %v, want ErrRerankProviderError", err)
	}
}
