package usecase_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"qa-orchestrator/internal/domain"
	"qa-orchestrator/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRetrievalClient struct {
	mock.Mock
}

func (m *mockRetrievalClient) Search(ctx context.Context, query domain.RetrievalQuery) ([]domain.RetrievedChunk, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievedChunk), args.Error(1)
}

type mockRerankClient struct {
	mock.Mock
}

func (m *mockRerankClient) Rerank(ctx context.Context, prompt string, input []string) ([]domain.RerankResult, error) {
	args := m.Called(ctx, prompt, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RerankResult), args.Error(1)
}

func (m *mockRerankClient) ModelName() string {
	return "mock-reranker"
}

type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) Complete(ctx context.Context, messages []domain.ChatMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func testPipelineConfig() usecase.PipelineConfig {
	return usecase.PipelineConfig{
		CollectionID:  7,
		HistoryWindow: 4,
		PageOffset:    1,
		FallbackText:  "Je rencontre une difficulté technique pour répondre à votre question.",
	}
}

func newPipeline(retrieval domain.RetrievalClient, reranker domain.RerankClient, generator, reformulator domain.ChatClient, cfg usecase.PipelineConfig) usecase.AnswerQuestionUsecase {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return usecase.NewAnswerQuestionUsecase(
		retrieval, reranker, generator, reformulator,
		usecase.NewPromptBuilder("Tu es un assistant documentaire."),
		usecase.NewViolationClassifier(),
		cfg, logger,
	)
}

func chunks(contents ...string) []domain.RetrievedChunk {
	out := make([]domain.RetrievedChunk, len(contents))
	for i, content := range contents {
		out[i] = domain.RetrievedChunk{Content: content, Score: 0.5}
	}
	return out
}

func paragraphContents(paragraphs []domain.Paragraph) []string {
	out := make([]string, len(paragraphs))
	for i, paragraph := range paragraphs {
		out[i] = paragraph.Content
	}
	return out
}

func TestAnswerQuestion_FirstTurnWithoutParagraphs(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockChat := new(mockChatClient)
	uc := newPipeline(mockRetrieval, nil, mockChat, nil, testPipelineConfig())

	mockRetrieval.On("Search", mock.Anything, mock.MatchedBy(func(q domain.RetrievalQuery) bool {
		return q.Prompt == "Qui es-tu" &&
			q.K == 5 &&
			q.Method == domain.RetrievalMethodSemantic &&
			len(q.Collections) == 1 && q.Collections[0] == 7
	})).Return([]domain.RetrievedChunk{}, nil)
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("Je suis un assistant.", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Qui es-tu"})
	require.NoError(t, err)

	assert.Equal(t, "Qui es-tu", answer.Question)
	assert.Empty(t, answer.ReformulatedQuestion)
	assert.Equal(t, "Je suis un assistant.", answer.AnswerText)
	assert.Empty(t, answer.Paragraphs)
	assert.Nil(t, answer.Violation)
}

func TestAnswerQuestion_MapsRetrievedChunksToParagraphs(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockChat := new(mockChatClient)
	uc := newPipeline(mockRetrieval, nil, mockChat, nil, testPipelineConfig())

	mockRetrieval.On("Search", mock.Anything, mock.Anything).Return([]domain.RetrievedChunk{
		{
			Content:      "La procédure est décrite page 4.",
			SourceURL:    "https://docs.example/procedure.pdf",
			DocumentName: "procedure.pdf",
			Page:         3,
			Score:        0.91,
		},
	}, nil)
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("Voici la procédure.", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Quelle est la procédure ?"})
	require.NoError(t, err)

	require.Len(t, answer.Paragraphs, 1)
	paragraph := answer.Paragraphs[0]
	assert.Equal(t, "La procédure est décrite page 4.", paragraph.Content)
	assert.Equal(t, "https://docs.example/procedure.pdf", paragraph.SourceURL)
	assert.Equal(t, "procedure.pdf", paragraph.DocumentName)
	// 0-based wire page plus the configured reader-facing offset.
	assert.Equal(t, 4, paragraph.PageNumber)
	assert.Equal(t, 0.91, paragraph.SimilarityScore)
}

func TestAnswerQuestion_ViolationClearsParagraphs(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockChat := new(mockChatClient)
	uc := newPipeline(mockRetrieval, nil, mockChat, nil, testPipelineConfig())

	mockRetrieval.On("Search", mock.Anything, mock.Anything).Return(chunks("A", "B"), nil)
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("ERREUR_MALVEILLANCE demande interdite", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "question douteuse"})
	require.NoError(t, err)

	require.NotNil(t, answer.Violation)
	assert.Equal(t, domain.ViolationMalicious, answer.Violation.Kind)
	assert.Equal(t, answer.Violation.Response, answer.AnswerText)
	assert.Empty(t, answer.Paragraphs)
}

func TestAnswerQuestion_CollaboratorTimeoutsDegradeToFallback(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockChat := new(mockChatClient)
	cfg := testPipelineConfig()
	uc := newPipeline(mockRetrieval, nil, mockChat, nil, cfg)

	mockRetrieval.On("Search", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("", context.DeadlineExceeded)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Une question"})
	require.NoError(t, err)

	assert.Equal(t, cfg.FallbackText, answer.AnswerText)
	assert.Empty(t, answer.Paragraphs)
	assert.Nil(t, answer.Violation)
}

func TestAnswerQuestion_RetrievalFailureStillGenerates(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockChat := new(mockChatClient)
	uc := newPipeline(mockRetrieval, nil, mockChat, nil, testPipelineConfig())

	mockRetrieval.On("Search", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("Réponse sans contexte.", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Une question"})
	require.NoError(t, err)

	assert.Equal(t, "Réponse sans contexte.", answer.AnswerText)
	assert.Empty(t, answer.Paragraphs)
	assert.Nil(t, answer.Violation)
}

func TestAnswerQuestion_EmptyGenerationUsesFallback(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockChat := new(mockChatClient)
	cfg := testPipelineConfig()
	uc := newPipeline(mockRetrieval, nil, mockChat, nil, cfg)

	mockRetrieval.On("Search", mock.Anything, mock.Anything).Return([]domain.RetrievedChunk{}, nil)
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("   ", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Une question"})
	require.NoError(t, err)

	assert.Equal(t, cfg.FallbackText, answer.AnswerText)
	assert.Nil(t, answer.Violation)
}

func TestAnswerQuestion_RerankReordersAndTruncates(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockRerank := new(mockRerankClient)
	mockChat := new(mockChatClient)
	uc := newPipeline(mockRetrieval, mockRerank, mockChat, nil, testPipelineConfig())

	// With reranking enabled a wider net is requested.
	mockRetrieval.On("Search", mock.Anything, mock.MatchedBy(func(q domain.RetrievalQuery) bool {
		return q.K == 20
	})).Return(chunks("A", "B", "C"), nil)
	mockRerank.On("Rerank", mock.Anything, "Une question", []string{"A", "B", "C"}).Return([]domain.RerankResult{
		{Index: 2, Score: 0.9},
		{Index: 0, Score: 0.4},
	}, nil)
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("ok", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Une question"})
	require.NoError(t, err)

	assert.Equal(t, []string{"C", "A"}, paragraphContents(answer.Paragraphs))
}

func TestAnswerQuestion_EmptyRerankFallsBackToRetrievalOrder(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockRerank := new(mockRerankClient)
	mockChat := new(mockChatClient)
	uc := newPipeline(mockRetrieval, mockRerank, mockChat, nil, testPipelineConfig())

	mockRetrieval.On("Search", mock.Anything, mock.Anything).Return(chunks("A", "B", "C"), nil)
	mockRerank.On("Rerank", mock.Anything, mock.Anything, mock.Anything).Return([]domain.RerankResult{}, nil)
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("ok", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Une question"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, paragraphContents(answer.Paragraphs))
}

func TestAnswerQuestion_RerankErrorFallsBackToFirstFive(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockRerank := new(mockRerankClient)
	mockChat := new(mockChatClient)
	uc := newPipeline(mockRetrieval, mockRerank, mockChat, nil, testPipelineConfig())

	mockRetrieval.On("Search", mock.Anything, mock.Anything).Return(chunks("A", "B", "C", "D", "E", "F", "G"), nil)
	mockRerank.On("Rerank", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("rerank unavailable"))
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("ok", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Une question"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, paragraphContents(answer.Paragraphs))
}

func TestAnswerQuestion_HybridSearchMethod(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockChat := new(mockChatClient)
	cfg := testPipelineConfig()
	cfg.HybridSearch = true
	uc := newPipeline(mockRetrieval, nil, mockChat, nil, cfg)

	mockRetrieval.On("Search", mock.Anything, mock.MatchedBy(func(q domain.RetrievalQuery) bool {
		return q.Method == domain.RetrievalMethodHybrid
	})).Return([]domain.RetrievedChunk{}, nil)
	mockChat.On("Complete", mock.Anything, mock.Anything).Return("ok", nil)

	_, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Une question"})
	require.NoError(t, err)
	mockRetrieval.AssertExpectations(t)
}

func TestAnswerQuestion_BlankQuestionIsUnparseable(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockChat := new(mockChatClient)
	uc := newPipeline(mockRetrieval, nil, mockChat, nil, testPipelineConfig())

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "   "})
	require.NoError(t, err)

	require.NotNil(t, answer.Violation)
	assert.Equal(t, domain.ViolationUnparseableQuestion, answer.Violation.Kind)
	assert.Equal(t, answer.Violation.Response, answer.AnswerText)
	assert.Empty(t, answer.Paragraphs)
	mockRetrieval.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	mockChat.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func historyConversation(t *testing.T) *domain.Conversation {
	t.Helper()
	clock := &stubClock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)}
	conversation := domain.NewConversation(domain.Answer{
		Question:   "Quelle est la procédure ?",
		AnswerText: "La procédure comporte trois étapes.",
	}, clock)
	violation := domain.NewViolation(domain.ViolationOffTopic)
	conversation.AppendInteraction(domain.Answer{
		Question:   "Quel temps fait-il ?",
		AnswerText: violation.Response,
		Violation:  violation,
	}, clock)
	return conversation
}

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

func TestAnswerQuestion_ReformulationRewritesRetrievalQuestion(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockGenerator := new(mockChatClient)
	mockReformulator := new(mockChatClient)
	uc := newPipeline(mockRetrieval, nil, mockGenerator, mockReformulator, testPipelineConfig())

	conversation := historyConversation(t)

	// The reformulator sees the instruction, the non-violation history
	// oldest first, and the raw question last.
	mockReformulator.On("Complete", mock.Anything, mock.MatchedBy(func(messages []domain.ChatMessage) bool {
		if len(messages) != 4 {
			return false
		}
		return messages[0].Role == domain.RoleSystem &&
			messages[1].Content == "Quelle est la procédure ?" &&
			messages[2].Content == "La procédure comporte trois étapes." &&
			messages[3] == domain.ChatMessage{Role: domain.RoleUser, Content: "Et la deuxième ?"}
	})).Return("Quelle est la deuxième étape de la procédure ?", nil)

	mockRetrieval.On("Search", mock.Anything, mock.MatchedBy(func(q domain.RetrievalQuery) bool {
		return q.Prompt == "Quelle est la deuxième étape de la procédure ?"
	})).Return([]domain.RetrievedChunk{}, nil)

	// Generation replays the same history but ends on the original question.
	mockGenerator.On("Complete", mock.Anything, mock.MatchedBy(func(messages []domain.ChatMessage) bool {
		last := messages[len(messages)-1]
		return last.Role == domain.RoleUser && last.Content == "Et la deuxième ?"
	})).Return("La deuxième étape est la validation.", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{
		Question:     "Et la deuxième ?",
		Conversation: conversation,
	})
	require.NoError(t, err)

	assert.Equal(t, "Et la deuxième ?", answer.Question)
	assert.Equal(t, "Quelle est la deuxième étape de la procédure ?", answer.ReformulatedQuestion)
	assert.Equal(t, "La deuxième étape est la validation.", answer.AnswerText)
	mockReformulator.AssertExpectations(t)
	mockRetrieval.AssertExpectations(t)
	mockGenerator.AssertExpectations(t)
}

func TestAnswerQuestion_ReformulationFailureUsesOriginalQuestion(t *testing.T) {
	ctx := context.Background()
	mockRetrieval := new(mockRetrievalClient)
	mockGenerator := new(mockChatClient)
	mockReformulator := new(mockChatClient)
	uc := newPipeline(mockRetrieval, nil, mockGenerator, mockReformulator, testPipelineConfig())

	mockReformulator.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("timeout"))
	mockRetrieval.On("Search", mock.Anything, mock.MatchedBy(func(q domain.RetrievalQuery) bool {
		return q.Prompt == "Une question"
	})).Return([]domain.RetrievedChunk{}, nil)
	mockGenerator.On("Complete", mock.Anything, mock.Anything).Return("ok", nil)

	answer, err := uc.Execute(ctx, usecase.AnswerQuestionInput{Question: "Une question"})
	require.NoError(t, err)

	assert.Empty(t, answer.ReformulatedQuestion)
	mockRetrieval.AssertExpectations(t)
}
