package usecase

import (
	"context"
	"errors"
	"log/slog"

	"qa-orchestrator/internal/domain"

	"github.com/google/uuid"
)

// AskInput carries one incoming question. A nil ConversationID starts a new
// conversation; otherwise the question is appended to the existing one.
type AskInput struct {
	Question       string
	ConversationID *uuid.UUID
	Caller         domain.UserType
}

// AskOutput returns the updated conversation and the interaction created for
// this turn.
type AskOutput struct {
	Conversation *domain.Conversation
	Interaction  domain.Interaction
}

// ConversationUsecase orchestrates the pipeline against conversation
// persistence and the audit journal.
type ConversationUsecase interface {
	Ask(ctx context.Context, input AskInput) (*AskOutput, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	AttachFeedback(ctx context.Context, conversationID, interactionID uuid.UUID, feedback domain.Feedback, caller domain.UserType) error
	ClearFeedback(ctx context.Context, conversationID, interactionID uuid.UUID, caller domain.UserType) error
}

type conversationUsecase struct {
	pipeline AnswerQuestionUsecase
	repo     domain.ConversationRepository
	journal  domain.JournalSink
	events   JournalEventBuilder
	clock    domain.Clock
	logger   *slog.Logger
}

// NewConversationUsecase wires the pipeline, repository, journal and clock.
func NewConversationUsecase(
	pipeline AnswerQuestionUsecase,
	repo domain.ConversationRepository,
	journal domain.JournalSink,
	events JournalEventBuilder,
	clock domain.Clock,
	logger *slog.Logger,
) ConversationUsecase {
	return &conversationUsecase{
		pipeline: pipeline,
		repo:     repo,
		journal:  journal,
		events:   events,
		clock:    clock,
		logger:   logger,
	}
}

func (u *conversationUsecase) Ask(ctx context.Context, input AskInput) (*AskOutput, error) {
	if input.ConversationID == nil {
		return u.askFirstTurn(ctx, input)
	}
	return u.askFollowUp(ctx, *input.ConversationID, input)
}

func (u *conversationUsecase) askFirstTurn(ctx context.Context, input AskInput) (*AskOutput, error) {
	answer, err := u.pipeline.Execute(ctx, AnswerQuestionInput{Question: input.Question})
	if err != nil {
		return nil, domain.NewProcessingError("failed to answer question", err)
	}

	conversation := domain.NewConversation(*answer, u.clock)
	if err := u.repo.Create(ctx, conversation); err != nil {
		return nil, domain.NewProcessingError("failed to save conversation", err)
	}

	interaction := conversation.Interactions[0]
	u.record(ctx, u.events.ConversationCreated(conversation, interaction, input.Caller))
	if answer.Violation != nil {
		u.record(ctx, u.events.ViolationDetected(interaction, answer.Violation))
	}
	return &AskOutput{Conversation: conversation, Interaction: interaction}, nil
}

func (u *conversationUsecase) askFollowUp(ctx context.Context, conversationID uuid.UUID, input AskInput) (*AskOutput, error) {
	conversation, err := u.repo.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return nil, err
		}
		return nil, domain.NewProcessingError("failed to load conversation", err)
	}

	answer, err := u.pipeline.Execute(ctx, AnswerQuestionInput{
		Question:     input.Question,
		Conversation: conversation,
	})
	if err != nil {
		return nil, domain.NewProcessingError("failed to answer question", err)
	}

	interaction := conversation.AppendInteraction(*answer, u.clock)
	if err := u.repo.Update(ctx, conversation); err != nil {
		return nil, domain.NewProcessingError("failed to save conversation", err)
	}

	u.record(ctx, u.events.InteractionAdded(conversation, interaction, input.Caller))
	if answer.Violation != nil {
		u.record(ctx, u.events.ViolationDetected(interaction, answer.Violation))
	}
	return &AskOutput{Conversation: conversation, Interaction: interaction}, nil
}

func (u *conversationUsecase) Get(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	conversation, err := u.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return nil, err
		}
		return nil, domain.NewProcessingError("failed to load conversation", err)
	}
	return conversation, nil
}

func (u *conversationUsecase) AttachFeedback(ctx context.Context, conversationID, interactionID uuid.UUID, feedback domain.Feedback, caller domain.UserType) error {
	conversation, err := u.repo.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return err
		}
		return domain.NewProcessingError("failed to load conversation", err)
	}

	feedback.CreatedAt = u.clock.Now()
	if err := conversation.AttachFeedback(interactionID, feedback); err != nil {
		return err
	}
	if err := u.repo.Update(ctx, conversation); err != nil {
		return domain.NewProcessingError("failed to save feedback", err)
	}

	// Journal the feedback as stored, after any tag stripping.
	stored := conversation.FindInteraction(interactionID)
	u.record(ctx, u.events.FeedbackSubmitted(interactionID.String(), *stored.Feedback, caller))
	return nil
}

func (u *conversationUsecase) ClearFeedback(ctx context.Context, conversationID, interactionID uuid.UUID, caller domain.UserType) error {
	conversation, err := u.repo.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, domain.ErrConversationNotFound) {
			return err
		}
		return domain.NewProcessingError("failed to load conversation", err)
	}

	if err := conversation.ClearFeedback(interactionID); err != nil {
		return err
	}
	if err := u.repo.Update(ctx, conversation); err != nil {
		return domain.NewProcessingError("failed to save conversation", err)
	}

	u.record(ctx, u.events.FeedbackRemoved(interactionID.String(), caller))
	return nil
}

// record hands an event to the journal sink. Journal failures never affect
// the request outcome.
func (u *conversationUsecase) record(ctx context.Context, event domain.JournalEvent) {
	if err := u.journal.Record(ctx, event); err != nil {
		u.logger.Warn("journal_event_dropped",
			slog.String("kind", event.Kind()),
			slog.String("error", err.Error()))
	}
}
