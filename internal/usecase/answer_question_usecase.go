package usecase

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"qa-orchestrator/internal/domain"
)

const (
	// Paragraph counts requested from retrieval: a wider net when a
	// reranker refines the order afterwards.
	retrievalCountDefault   = 5
	retrievalCountForRerank = 20

	// Paragraphs kept for generation after the optional rerank stage.
	answerParagraphLimit = 5
)

// AnswerQuestionInput carries one question and the optional conversation it
// belongs to. A nil conversation means a first turn with empty history.
type AnswerQuestionInput struct {
	Question     string
	Conversation *domain.Conversation
}

// PipelineConfig holds the immutable settings of the question-answering
// pipeline, loaded once at process start.
type PipelineConfig struct {
	CollectionID  int
	HybridSearch  bool
	HistoryWindow int
	PageOffset    int
	FallbackText  string
}

// AnswerQuestionUsecase runs one reformulation → retrieval → rerank →
// generation → classification cycle. It is stateless between calls.
type AnswerQuestionUsecase interface {
	Execute(ctx context.Context, input AnswerQuestionInput) (*domain.Answer, error)
}

type answerQuestionUsecase struct {
	retrieval     domain.RetrievalClient
	reranker      domain.RerankClient
	generator     domain.ChatClient
	reformulator  domain.ChatClient
	promptBuilder PromptBuilder
	classifier    ViolationClassifier
	cfg           PipelineConfig
	logger        *slog.Logger
}

// NewAnswerQuestionUsecase wires the pipeline stages. A nil reranker
// disables reranking; a nil reformulator disables reformulation.
func NewAnswerQuestionUsecase(
	retrieval domain.RetrievalClient,
	reranker domain.RerankClient,
	generator domain.ChatClient,
	reformulator domain.ChatClient,
	promptBuilder PromptBuilder,
	classifier ViolationClassifier,
	cfg PipelineConfig,
	logger *slog.Logger,
) AnswerQuestionUsecase {
	return &answerQuestionUsecase{
		retrieval:     retrieval,
		reranker:      reranker,
		generator:     generator,
		reformulator:  reformulator,
		promptBuilder: promptBuilder,
		classifier:    classifier,
		cfg:           cfg,
		logger:        logger,
	}
}

func (u *answerQuestionUsecase) Execute(ctx context.Context, input AnswerQuestionInput) (*domain.Answer, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		violation := domain.NewViolation(domain.ViolationUnparseableQuestion)
		return &domain.Answer{
			Question:   input.Question,
			AnswerText: violation.Response,
			Violation:  violation,
		}, nil
	}

	history := historyWindow(input.Conversation, u.cfg.HistoryWindow)

	retrievalQuestion, reformulated := u.reformulate(ctx, history, question)
	paragraphs := u.retrieve(ctx, retrievalQuestion)
	paragraphs = u.rerank(ctx, retrievalQuestion, paragraphs)

	// The generation prompt always carries the original question; only
	// retrieval sees the reformulated one.
	messages := u.promptBuilder.GenerationMessages(paragraphs, history, question)
	proposition, err := u.generator.Complete(ctx, messages)
	if err != nil {
		u.logger.Warn("generation_failed_using_fallback", slog.String("error", err.Error()))
		proposition = ""
	}

	answer := &domain.Answer{
		Question:             question,
		ReformulatedQuestion: reformulated,
	}
	if strings.TrimSpace(proposition) == "" {
		answer.AnswerText = u.cfg.FallbackText
		return answer, nil
	}
	if violation := u.classifier.Classify(proposition); violation != nil {
		answer.AnswerText = violation.Response
		answer.Violation = violation
		return answer, nil
	}
	answer.AnswerText = proposition
	answer.Paragraphs = paragraphs
	return answer, nil
}

// reformulate rewrites the question using prior turns when a reformulator is
// configured. It returns the question to send to retrieval and the
// reformulated text to record (empty when reformulation yielded nothing).
func (u *answerQuestionUsecase) reformulate(ctx context.Context, history []domain.Interaction, question string) (string, string) {
	if u.reformulator == nil {
		return question, ""
	}
	messages := u.promptBuilder.ReformulationMessages(history, question)
	rewritten, err := u.reformulator.Complete(ctx, messages)
	if err != nil {
		u.logger.Warn("reformulation_failed_using_original_question", slog.String("error", err.Error()))
		return question, ""
	}
	rewritten = strings.TrimSpace(rewritten)
	if rewritten == "" {
		return question, ""
	}
	return rewritten, rewritten
}

// retrieve searches the configured collection and maps hits to the uniform
// paragraph shape. A collaborator failure degrades to an empty list.
func (u *answerQuestionUsecase) retrieve(ctx context.Context, question string) []domain.Paragraph {
	query := domain.RetrievalQuery{
		Collections: []int{u.cfg.CollectionID},
		K:           retrievalCountDefault,
		Prompt:      question,
		Method:      domain.RetrievalMethodSemantic,
	}
	if u.reranker != nil {
		query.K = retrievalCountForRerank
	}
	if u.cfg.HybridSearch {
		query.Method = domain.RetrievalMethodHybrid
	}

	chunks, err := u.retrieval.Search(ctx, query)
	if err != nil {
		u.logger.Warn("retrieval_failed_continuing_without_paragraphs",
			slog.String("error", err.Error()),
			slog.String("method", query.Method))
		return nil
	}

	paragraphs := make([]domain.Paragraph, len(chunks))
	for i, chunk := range chunks {
		paragraphs[i] = domain.Paragraph{
			Content:         chunk.Content,
			SourceURL:       chunk.SourceURL,
			DocumentName:    chunk.DocumentName,
			PageNumber:      chunk.Page + u.cfg.PageOffset,
			SimilarityScore: chunk.Score,
		}
	}
	return paragraphs
}

// rerank reorders paragraphs by cross-encoder relevance and truncates to the
// answer limit. An empty or failed rerank falls back to the original
// retrieval order.
func (u *answerQuestionUsecase) rerank(ctx context.Context, question string, paragraphs []domain.Paragraph) []domain.Paragraph {
	if len(paragraphs) == 0 {
		return paragraphs
	}
	if u.reranker == nil {
		return truncateParagraphs(paragraphs)
	}

	contents := make([]string, len(paragraphs))
	for i, paragraph := range paragraphs {
		contents[i] = paragraph.Content
	}

	results, err := u.reranker.Rerank(ctx, question, contents)
	if err != nil {
		u.logger.Warn("reranking_failed_using_retrieval_order",
			slog.String("error", err.Error()),
			slog.String("model", u.reranker.ModelName()))
		return truncateParagraphs(paragraphs)
	}
	if len(results) == 0 {
		return truncateParagraphs(paragraphs)
	}

	// Ties keep the original retrieval order.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Index < results[j].Index
	})

	reordered := make([]domain.Paragraph, 0, len(results))
	for _, result := range results {
		if result.Index < 0 || result.Index >= len(paragraphs) {
			u.logger.Warn("rerank_index_out_of_range", slog.Int("index", result.Index))
			continue
		}
		reordered = append(reordered, paragraphs[result.Index])
	}
	if len(reordered) == 0 {
		return truncateParagraphs(paragraphs)
	}
	return truncateParagraphs(reordered)
}

func truncateParagraphs(paragraphs []domain.Paragraph) []domain.Paragraph {
	if len(paragraphs) > answerParagraphLimit {
		return paragraphs[:answerParagraphLimit]
	}
	return paragraphs
}
