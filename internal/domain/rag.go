package domain

// RerankedDoc references an input document by its position in the
// rerank request, with the provider relevance score.
type RerankedDoc struct {
	Index int
	Score float64
}
