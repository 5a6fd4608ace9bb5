package usecase

import (
	"qa-orchestrator/internal/domain"
	"qa-orchestrator/internal/privacy"
)

// JournalEventBuilder shapes pipeline outcomes into typed audit events.
// Every identifier is hashed with the engine's keyed hash before it enters
// an event; alpha-test mode additionally includes question text and source
// urls in conversation events.
type JournalEventBuilder struct {
	engine    *privacy.Engine
	alphaMode bool
}

// NewJournalEventBuilder creates a builder. alphaMode gates the inclusion of
// raw question text and source urls in conversation events.
func NewJournalEventBuilder(engine *privacy.Engine, alphaMode bool) JournalEventBuilder {
	return JournalEventBuilder{engine: engine, alphaMode: alphaMode}
}

// ConversationCreated builds the event for a conversation's first turn.
func (b JournalEventBuilder) ConversationCreated(conversation *domain.Conversation, interaction domain.Interaction, caller domain.UserType) domain.ConversationEvent {
	return b.conversationEvent(domain.JournalConversationCreated, conversation, interaction, caller)
}

// InteractionAdded builds the event for a follow-up turn.
func (b JournalEventBuilder) InteractionAdded(conversation *domain.Conversation, interaction domain.Interaction, caller domain.UserType) domain.ConversationEvent {
	return b.conversationEvent(domain.JournalInteractionAdded, conversation, interaction, caller)
}

func (b JournalEventBuilder) conversationEvent(kind string, conversation *domain.Conversation, interaction domain.Interaction, caller domain.UserType) domain.ConversationEvent {
	event := domain.ConversationEvent{
		EventKind:      kind,
		ConversationID: b.engine.HashIdentifier(conversation.ID.String()),
		InteractionID:  b.engine.HashIdentifier(interaction.ID.String()),
		QuestionLength: len(interaction.Answer.Question),
		AnswerLength:   len(interaction.Answer.AnswerText),
		CallerType:     caller,
	}
	if b.alphaMode {
		event.QuestionText = interaction.Answer.Question
		for _, paragraph := range interaction.Answer.Paragraphs {
			event.SourceURLs = append(event.SourceURLs, paragraph.SourceURL)
		}
	}
	return event
}

// ViolationDetected builds the event recording a withheld answer.
func (b JournalEventBuilder) ViolationDetected(interaction domain.Interaction, violation *domain.Violation) domain.ViolationDetectedEvent {
	return domain.ViolationDetectedEvent{
		InteractionID: b.engine.HashIdentifier(interaction.ID.String()),
		ViolationKind: violation.Kind,
	}
}

// FeedbackSubmitted builds the event for feedback attached to an interaction.
func (b JournalEventBuilder) FeedbackSubmitted(interactionID string, feedback domain.Feedback, caller domain.UserType) domain.FeedbackSubmittedEvent {
	return domain.FeedbackSubmittedEvent{
		InteractionID: b.engine.HashIdentifier(interactionID),
		FeedbackKind:  feedback.Kind,
		Tags:          feedback.Tags,
		CallerType:    caller,
	}
}

// FeedbackRemoved builds the event for feedback cleared from an interaction.
func (b JournalEventBuilder) FeedbackRemoved(interactionID string, caller domain.UserType) domain.FeedbackRemovedEvent {
	return domain.FeedbackRemovedEvent{
		InteractionID: b.engine.HashIdentifier(interactionID),
		CallerType:    caller,
	}
}
