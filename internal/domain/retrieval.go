package domain

import "context"

// Retrieval methods supported by the retrieval collaborator.
const (
	RetrievalMethodSemantic = "semantic"
	RetrievalMethodHybrid   = "hybrid"
)

// RetrievalQuery is the search request sent to the retrieval collaborator.
type RetrievalQuery struct {
	Collections []int
	K           int
	Prompt      string
	Method      string
}

// RetrievedChunk is a raw hit from the retrieval collaborator. Page is
// 0-based as returned on the wire; the pipeline applies the reader-facing
// offset when mapping to a Paragraph.
type RetrievedChunk struct {
	Content      string
	SourceURL    string
	DocumentName string
	Page         int
	Score        float64
}

// RetrievalClient defines the capability to search the document corpus.
type RetrievalClient interface {
	Search(ctx context.Context, query RetrievalQuery) ([]RetrievedChunk, error)
}
