package domain

import "context"

// RerankResult scores one candidate against the query. Index refers to the
// position of the candidate in the input list sent for reranking.
type RerankResult struct {
	Index int
	Score float64
}

// RerankClient defines the interface for cross-encoder reranking of
// retrieved paragraph contents.
// If an error occurs, callers should fall back to the original retrieval order.
type RerankClient interface {
	Rerank(ctx context.Context, prompt string, input []string) ([]RerankResult, error)

	// ModelName returns the model identifier for logging/debugging.
	ModelName() string
}
