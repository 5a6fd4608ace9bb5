package qa_http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"qa-orchestrator/internal/domain"
	"qa-orchestrator/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// callerTokenHeader carries the opaque encrypted caller token.
const callerTokenHeader = "X-Caller-Token"

type Handler struct {
	conversations usecase.ConversationUsecase
	resolver      usecase.UserTypeResolver
	logger        *slog.Logger
}

func NewHandler(conversations usecase.ConversationUsecase, resolver usecase.UserTypeResolver, logger *slog.Logger) *Handler {
	return &Handler{
		conversations: conversations,
		resolver:      resolver,
		logger:        logger,
	}
}

// Register wires the question-answering routes onto the echo instance.
func (h *Handler) Register(e *echo.Echo) {
	e.POST("/v1/questions", h.AskQuestion)
	e.POST("/v1/conversations/:id/questions", h.AskFollowUp)
	e.GET("/v1/conversations/:id", h.GetConversation)
	e.PUT("/v1/conversations/:id/interactions/:interactionId/feedback", h.PutFeedback)
	e.DELETE("/v1/conversations/:id/interactions/:interactionId/feedback", h.DeleteFeedback)
}

type askRequest struct {
	Question string `json:"question"`
}

type feedbackRequest struct {
	Kind    string   `json:"kind"`
	Comment string   `json:"comment,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type paragraphResponse struct {
	Content         string  `json:"content"`
	SourceURL       string  `json:"source_url"`
	DocumentName    string  `json:"document_name"`
	PageNumber      int     `json:"page_number"`
	SimilarityScore float64 `json:"similarity_score"`
}

type feedbackResponse struct {
	Kind    string   `json:"kind"`
	Comment string   `json:"comment,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

type interactionResponse struct {
	ID                   string              `json:"id"`
	CreatedAt            time.Time           `json:"created_at"`
	Question             string              `json:"question"`
	ReformulatedQuestion string              `json:"reformulated_question,omitempty"`
	AnswerText           string              `json:"answer_text"`
	Paragraphs           []paragraphResponse `json:"paragraphs"`
	Violation            string              `json:"violation,omitempty"`
	Feedback             *feedbackResponse   `json:"feedback,omitempty"`
}

type askResponse struct {
	ConversationID string              `json:"conversation_id"`
	Interaction    interactionResponse `json:"interaction"`
}

type conversationResponse struct {
	ID           string                `json:"id"`
	Interactions []interactionResponse `json:"interactions"`
}

// Ask a first question, creating a new conversation
// (POST /v1/questions)
func (h *Handler) AskQuestion(ctx echo.Context) error {
	var req askRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	output, err := h.conversations.Ask(ctx.Request().Context(), usecase.AskInput{
		Question: req.Question,
		Caller:   h.caller(ctx),
	})
	if err != nil {
		return h.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusCreated, askResponse{
		ConversationID: output.Conversation.ID.String(),
		Interaction:    toInteractionResponse(output.Interaction),
	})
}

// Ask a follow-up question on an existing conversation
// (POST /v1/conversations/:id/questions)
func (h *Handler) AskFollowUp(ctx echo.Context) error {
	conversationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}
	var req askRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	output, err := h.conversations.Ask(ctx.Request().Context(), usecase.AskInput{
		Question:       req.Question,
		ConversationID: &conversationID,
		Caller:         h.caller(ctx),
	})
	if err != nil {
		return h.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, askResponse{
		ConversationID: output.Conversation.ID.String(),
		Interaction:    toInteractionResponse(output.Interaction),
	})
}

// Fetch a conversation with all its interactions
// (GET /v1/conversations/:id)
func (h *Handler) GetConversation(ctx echo.Context) error {
	conversationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid conversation id"})
	}

	conversation, err := h.conversations.Get(ctx.Request().Context(), conversationID)
	if err != nil {
		return h.mapError(ctx, err)
	}

	interactions := make([]interactionResponse, len(conversation.Interactions))
	for i, interaction := range conversation.Interactions {
		interactions[i] = toInteractionResponse(interaction)
	}
	return ctx.JSON(http.StatusOK, conversationResponse{
		ID:           conversation.ID.String(),
		Interactions: interactions,
	})
}

// Attach or replace feedback on an interaction
// (PUT /v1/conversations/:id/interactions/:interactionId/feedback)
func (h *Handler) PutFeedback(ctx echo.Context) error {
	conversationID, interactionID, err := parseFeedbackPath(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	var req feedbackRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	kind := domain.FeedbackKind(strings.ToLower(req.Kind))
	if kind != domain.FeedbackPositive && kind != domain.FeedbackNegative {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "feedback kind must be positive or negative"})
	}

	tags := make([]domain.FeedbackTag, len(req.Tags))
	for i, tag := range req.Tags {
		tags[i] = domain.FeedbackTag(tag)
	}
	feedback := domain.Feedback{
		Kind:    kind,
		Comment: req.Comment,
		Tags:    tags,
	}

	if err := h.conversations.AttachFeedback(ctx.Request().Context(), conversationID, interactionID, feedback, h.caller(ctx)); err != nil {
		return h.mapError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Clear feedback from an interaction
// (DELETE /v1/conversations/:id/interactions/:interactionId/feedback)
func (h *Handler) DeleteFeedback(ctx echo.Context) error {
	conversationID, interactionID, err := parseFeedbackPath(ctx)
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	if err := h.conversations.ClearFeedback(ctx.Request().Context(), conversationID, interactionID, h.caller(ctx)); err != nil {
		return h.mapError(ctx, err)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (h *Handler) caller(ctx echo.Context) domain.UserType {
	return h.resolver.Resolve(ctx.Request().Header.Get(callerTokenHeader))
}

func (h *Handler) mapError(ctx echo.Context, err error) error {
	if errors.Is(err, domain.ErrConversationNotFound) || errors.Is(err, domain.ErrInteractionNotFound) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	var processingErr *domain.ProcessingError
	if errors.As(err, &processingErr) {
		h.logger.Error("request_failed",
			slog.String("message", processingErr.Message),
			slog.String("cause", processingErr.Error()))
		return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": processingErr.Message})
	}
	h.logger.Error("request_failed", slog.String("error", err.Error()))
	return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
}

func parseFeedbackPath(ctx echo.Context) (uuid.UUID, uuid.UUID, error) {
	conversationID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid conversation id")
	}
	interactionID, err := uuid.Parse(ctx.Param("interactionId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, errors.New("invalid interaction id")
	}
	return conversationID, interactionID, nil
}

func toInteractionResponse(interaction domain.Interaction) interactionResponse {
	paragraphs := make([]paragraphResponse, len(interaction.Answer.Paragraphs))
	for i, paragraph := range interaction.Answer.Paragraphs {
		paragraphs[i] = paragraphResponse{
			Content:         paragraph.Content,
			SourceURL:       paragraph.SourceURL,
			DocumentName:    paragraph.DocumentName,
			PageNumber:      paragraph.PageNumber,
			SimilarityScore: paragraph.SimilarityScore,
		}
	}

	resp := interactionResponse{
		ID:                   interaction.ID.String(),
		CreatedAt:            interaction.CreatedAt,
		Question:             interaction.Answer.Question,
		ReformulatedQuestion: interaction.Answer.ReformulatedQuestion,
		AnswerText:           interaction.Answer.AnswerText,
		Paragraphs:           paragraphs,
	}
	if interaction.Answer.Violation != nil {
		resp.Violation = string(interaction.Answer.Violation.Kind)
	}
	if interaction.Feedback != nil {
		tags := make([]string, len(interaction.Feedback.Tags))
		for i, tag := range interaction.Feedback.Tags {
			tags[i] = string(tag)
		}
		resp.Feedback = &feedbackResponse{
			Kind:    string(interaction.Feedback.Kind),
			Comment: interaction.Feedback.Comment,
			Tags:    tags,
		}
	}
	return resp
}
