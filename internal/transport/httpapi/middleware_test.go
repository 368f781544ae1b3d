package httpapi

import (
	"net/http"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/grantstream/patentrag/internal/domain"
)

func TestRequestLog_SetsRequestIDHeader(t *testing.T) {
	core, _ := observer.New(zap.InfoLevel)
	handler := NewServer(&mockSearch{}, nil, &mockStore{count: 1}, zap.New(core)).Router(nil)

	rr := doJSON(t, handler, "GET", "/v1/stats", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestRequestLog_CanonicalLine(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewServer(&mockSearch{}, nil, &mockStore{}, zap.New(core)).Router(nil)

	rr := doJSON(t, handler, "POST", "/v1/search", `{"query":"pet feeder"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}

	entries := logs.FilterMessage("http_request").All()
	if len(entries) != 1 {
		t.Fatalf("got %d http_request entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if id, _ := fields["request_id"].(string); id == "" {
		t.Error("http_request entry has no request_id")
	}
	if fields["method"] != "POST" || fields["path"] != "/v1/search" {
		t.Errorf("fields = %v", fields)
	}
	if status, _ := fields["status"].(int64); status != http.StatusOK {
		t.Errorf("status field = %v, want 200", fields["status"])
	}
}

func TestRequestLog_DomainErrorCarriesRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	search := &mockSearch{err: domain.ErrEmbeddingProviderError}
	handler := NewServer(search, nil, &mockStore{}, zap.New(core)).Router(nil)

	rr := doJSON(t, handler, "POST", "/v1/search", `{"query":"q"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}

	entries := logs.FilterMessage("domain error").All()
	if len(entries) != 1 {
		t.Fatalf("got %d domain error entries, want 1", len(entries))
	}
	if id, _ := entries[0].ContextMap()["request_id"].(string); id == "" {
		t.Error("domain error entry has no request_id")
	}
}
