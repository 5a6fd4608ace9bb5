package domain

// Paragraph is a scored, sourced snippet of corpus text returned by retrieval.
// Instances are never mutated after creation.
type Paragraph struct {
	Content         string
	SourceURL       string
	DocumentName    string
	PageNumber      int
	SimilarityScore float64
}

// Answer is the outcome of one question-answering pipeline run.
// When Violation is set, Paragraphs is empty and AnswerText carries the
// violation's canned response.
type Answer struct {
	Question             string
	ReformulatedQuestion string
	AnswerText           string
	Paragraphs           []Paragraph
	Violation            *Violation
}
