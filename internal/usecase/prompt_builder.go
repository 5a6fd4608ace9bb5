package usecase

import (
	"strings"

	"qa-orchestrator/internal/domain"
)

// reformulationInstruction is the fixed system message prepended when asking
// the model to rewrite a follow-up question into a self-contained one.
const reformulationInstruction = "Reformule la dernière question de l'utilisateur en une question autonome et complète, en t'appuyant sur l'historique de la conversation. Réponds uniquement avec la question reformulée, sans commentaire."

// PromptBuilder assembles the message lists sent to the generation
// collaborator for reformulation and for answer generation.
type PromptBuilder struct {
	persona string
}

// NewPromptBuilder creates a builder with the fixed assistant persona used
// as the head of every generation system message.
func NewPromptBuilder(persona string) PromptBuilder {
	return PromptBuilder{persona: persona}
}

// ReformulationMessages renders the reformulation request: the fixed
// instruction, the history window as alternating user/assistant turns, then
// the raw question.
func (b PromptBuilder) ReformulationMessages(history []domain.Interaction, question string) []domain.ChatMessage {
	messages := make([]domain.ChatMessage, 0, 2+2*len(history))
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: reformulationInstruction})
	messages = appendHistoryTurns(messages, history)
	return append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})
}

// GenerationMessages renders the answer request: a system message combining
// the persona with the retrieved paragraph contents, the history window with
// original (non-reformulated) question text per turn, then the current
// original question as the final user turn.
func (b PromptBuilder) GenerationMessages(paragraphs []domain.Paragraph, history []domain.Interaction, question string) []domain.ChatMessage {
	var system strings.Builder
	system.WriteString(b.persona)
	for _, paragraph := range paragraphs {
		system.WriteString("\n\n")
		system.WriteString(paragraph.Content)
	}

	messages := make([]domain.ChatMessage, 0, 2+2*len(history))
	messages = append(messages, domain.ChatMessage{Role: domain.RoleSystem, Content: system.String()})
	messages = appendHistoryTurns(messages, history)
	return append(messages, domain.ChatMessage{Role: domain.RoleUser, Content: question})
}

func appendHistoryTurns(messages []domain.ChatMessage, history []domain.Interaction) []domain.ChatMessage {
	for _, interaction := range history {
		messages = append(messages,
			domain.ChatMessage{Role: domain.RoleUser, Content: interaction.Answer.Question},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: interaction.Answer.AnswerText},
		)
	}
	return messages
}
