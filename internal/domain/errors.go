package domain

import "errors"

var (
	// ErrArchiveUnavailable signals that the archive could not be fetched or opened.
	ErrArchiveUnavailable = errors.New("archive unavailable")
	// ErrMalformedDocument signals a document that is not well-formed XML.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrMissingField signals a required field query with no match.
	ErrMissingField = errors.New("missing required field")
	// ErrIndexUnavailable signals a vector index backend failure.
	ErrIndexUnavailable = errors.New("index unavailable")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRerankProviderError signals a rerank provider failure.
	ErrRerankProviderError = errors.New("rerank provider error")
	// ErrChatProviderError signals a chat completion provider failure.
	ErrChatProviderError = errors.New("chat provider error")
	// ErrEmptyQuery signals a blank search query.
	ErrEmptyQuery = errors.New("empty query")
)
