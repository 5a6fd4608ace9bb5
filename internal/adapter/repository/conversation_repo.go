package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"qa-orchestrator/internal/domain"
	"qa-orchestrator/internal/privacy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Structural fields kept queryable in plaintext when a conversation is
// written: ids, enum tags, timestamps. Everything else is encrypted at rest.
var conversationPlainPaths = []string{
	"id",
	"interactions.*.id",
	"interactions.*.created_at",
	"interactions.*.answer.violation",
	"interactions.*.answer.paragraphs.*.source_url",
	"interactions.*.feedback.kind",
	"interactions.*.feedback.tags",
	"interactions.*.feedback.created_at",
}

// Free-text fields decrypted when a conversation is read back.
var conversationSensitivePaths = []string{
	"interactions.*.answer.question",
	"interactions.*.answer.reformulated_question",
	"interactions.*.answer.answer_text",
	"interactions.*.answer.paragraphs.*.content",
	"interactions.*.answer.paragraphs.*.document_name",
	"interactions.*.feedback.comment",
}

type conversationRepository struct {
	pool   *pgxpool.Pool
	engine *privacy.Engine
}

// NewConversationRepository creates a ConversationRepository that encrypts
// free-text fields before they reach storage.
func NewConversationRepository(pool *pgxpool.Pool, engine *privacy.Engine) domain.ConversationRepository {
	return &conversationRepository{pool: pool, engine: engine}
}

func (r *conversationRepository) Create(ctx context.Context, conversation *domain.Conversation) error {
	payload, err := r.encodePayload(conversation)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO conversations (id, payload, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	if _, err := r.pool.Exec(ctx, query, conversation.ID, payload); err != nil {
		return fmt.Errorf("failed to insert conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT payload
		FROM conversations
		WHERE id = $1
	`
	var payload []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	var document any
	if err := json.Unmarshal(payload, &document); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation payload: %w", err)
	}
	document = r.engine.DecryptAt(document, conversationSensitivePaths)
	return conversationFromDocument(document)
}

// Update writes the whole conversation back. There is no version check:
// concurrent appends to the same conversation are last-writer-wins and one
// append can be lost.
func (r *conversationRepository) Update(ctx context.Context, conversation *domain.Conversation) error {
	payload, err := r.encodePayload(conversation)
	if err != nil {
		return err
	}
	query := `
		UPDATE conversations
		SET payload = $1, updated_at = NOW()
		WHERE id = $2
	`
	if _, err := r.pool.Exec(ctx, query, payload, conversation.ID); err != nil {
		return fmt.Errorf("failed to update conversation: %w", err)
	}
	return nil
}

func (r *conversationRepository) encodePayload(conversation *domain.Conversation) ([]byte, error) {
	document := conversationToDocument(conversation)
	encrypted, err := r.engine.EncryptExcept(document, conversationPlainPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt conversation: %w", err)
	}
	payload, err := json.Marshal(encrypted)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation payload: %w", err)
	}
	return payload, nil
}

func conversationToDocument(conversation *domain.Conversation) map[string]any {
	interactions := make([]any, len(conversation.Interactions))
	for i, interaction := range conversation.Interactions {
		doc := map[string]any{
			"id":         interaction.ID.String(),
			"created_at": interaction.CreatedAt.Format(time.RFC3339Nano),
			"answer":     answerToDocument(interaction.Answer),
		}
		if interaction.Feedback != nil {
			doc["feedback"] = feedbackToDocument(*interaction.Feedback)
		}
		interactions[i] = doc
	}
	return map[string]any{
		"id":           conversation.ID.String(),
		"interactions": interactions,
	}
}

func answerToDocument(answer domain.Answer) map[string]any {
	paragraphs := make([]any, len(answer.Paragraphs))
	for i, paragraph := range answer.Paragraphs {
		paragraphs[i] = map[string]any{
			"content":       paragraph.Content,
			"source_url":    paragraph.SourceURL,
			"document_name": paragraph.DocumentName,
			"page_number":   paragraph.PageNumber,
			"score":         paragraph.SimilarityScore,
		}
	}
	doc := map[string]any{
		"question":    answer.Question,
		"answer_text": answer.AnswerText,
		"paragraphs":  paragraphs,
	}
	if answer.ReformulatedQuestion != "" {
		doc["reformulated_question"] = answer.ReformulatedQuestion
	}
	if answer.Violation != nil {
		doc["violation"] = string(answer.Violation.Kind)
	}
	return doc
}

func feedbackToDocument(feedback domain.Feedback) map[string]any {
	tags := make([]any, len(feedback.Tags))
	for i, tag := range feedback.Tags {
		tags[i] = string(tag)
	}
	doc := map[string]any{
		"kind":       string(feedback.Kind),
		"tags":       tags,
		"created_at": feedback.CreatedAt.Format(time.RFC3339Nano),
	}
	if feedback.Comment != "" {
		doc["comment"] = feedback.Comment
	}
	return doc
}

func conversationFromDocument(document any) (*domain.Conversation, error) {
	root, ok := document.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("conversation payload is not an object")
	}
	id, err := uuid.Parse(docString(root, "id"))
	if err != nil {
		return nil, fmt.Errorf("invalid conversation id: %w", err)
	}

	conversation := &domain.Conversation{ID: id}
	items, _ := root["interactions"].([]any)
	for _, item := range items {
		interactionDoc, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("interaction payload is not an object")
		}
		interaction, err := interactionFromDocument(interactionDoc)
		if err != nil {
			return nil, err
		}
		conversation.Interactions = append(conversation.Interactions, interaction)
	}
	return conversation, nil
}

func interactionFromDocument(doc map[string]any) (domain.Interaction, error) {
	id, err := uuid.Parse(docString(doc, "id"))
	if err != nil {
		return domain.Interaction{}, fmt.Errorf("invalid interaction id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, docString(doc, "created_at"))
	if err != nil {
		return domain.Interaction{}, fmt.Errorf("invalid interaction timestamp: %w", err)
	}

	interaction := domain.Interaction{
		ID:        id,
		CreatedAt: createdAt,
	}
	if answerDoc, ok := doc["answer"].(map[string]any); ok {
		interaction.Answer = answerFromDocument(answerDoc)
	}
	if feedbackDoc, ok := doc["feedback"].(map[string]any); ok {
		feedback, err := feedbackFromDocument(feedbackDoc)
		if err != nil {
			return domain.Interaction{}, err
		}
		interaction.Feedback = &feedback
	}
	return interaction, nil
}

func answerFromDocument(doc map[string]any) domain.Answer {
	answer := domain.Answer{
		Question:             docString(doc, "question"),
		ReformulatedQuestion: docString(doc, "reformulated_question"),
		AnswerText:           docString(doc, "answer_text"),
	}
	if kind := docString(doc, "violation"); kind != "" {
		answer.Violation = domain.NewViolation(domain.ViolationKind(kind))
	}
	paragraphs, _ := doc["paragraphs"].([]any)
	for _, item := range paragraphs {
		paragraphDoc, ok := item.(map[string]any)
		if !ok {
			continue
		}
		answer.Paragraphs = append(answer.Paragraphs, domain.Paragraph{
			Content:         docString(paragraphDoc, "content"),
			SourceURL:       docString(paragraphDoc, "source_url"),
			DocumentName:    docString(paragraphDoc, "document_name"),
			PageNumber:      int(docFloat(paragraphDoc, "page_number")),
			SimilarityScore: docFloat(paragraphDoc, "score"),
		})
	}
	return answer
}

func feedbackFromDocument(doc map[string]any) (domain.Feedback, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, docString(doc, "created_at"))
	if err != nil {
		return domain.Feedback{}, fmt.Errorf("invalid feedback timestamp: %w", err)
	}
	feedback := domain.Feedback{
		Kind:      domain.FeedbackKind(docString(doc, "kind")),
		Comment:   docString(doc, "comment"),
		CreatedAt: createdAt,
	}
	tags, _ := doc["tags"].([]any)
	for _, tag := range tags {
		if s, ok := tag.(string); ok {
			feedback.Tags = append(feedback.Tags, domain.FeedbackTag(s))
		}
	}
	return feedback, nil
}

func docString(doc map[string]any, key string) string {
	s, _ := doc[key].(string)
	return s
}

func docFloat(doc map[string]any, key string) float64 {
	// JSON numbers decode as float64; ints written by this process may
	// round-trip through either type.
	switch v := doc[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}
