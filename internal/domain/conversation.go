package domain

import (
	"time"

	"github.com/google/uuid"
)

// Interaction is one question/answer turn within a conversation.
// ID and CreatedAt are immutable; Feedback may be set and cleared after
// creation.
type Interaction struct {
	ID        uuid.UUID
	Answer    Answer
	Feedback  *Feedback
	CreatedAt time.Time
}

// Conversation is an ordered set of interactions, newest first.
// It is created with exactly one interaction and only ever grows.
type Conversation struct {
	ID           uuid.UUID
	Interactions []Interaction
}

// NewConversation creates a conversation holding its first interaction.
func NewConversation(answer Answer, clock Clock) *Conversation {
	return &Conversation{
		ID: uuid.New(),
		Interactions: []Interaction{
			{
				ID:        uuid.New(),
				Answer:    answer,
				CreatedAt: clock.Now(),
			},
		},
	}
}

// AppendInteraction records a new turn and returns it. Newer interactions
// are kept at the front so Interactions stays ordered by creation time
// descending.
func (c *Conversation) AppendInteraction(answer Answer, clock Clock) Interaction {
	interaction := Interaction{
		ID:        uuid.New(),
		Answer:    answer,
		CreatedAt: clock.Now(),
	}
	c.Interactions = append([]Interaction{interaction}, c.Interactions...)
	return interaction
}

// FindInteraction returns a pointer to the interaction with the given id,
// or nil when the conversation does not contain it.
func (c *Conversation) FindInteraction(id uuid.UUID) *Interaction {
	for i := range c.Interactions {
		if c.Interactions[i].ID == id {
			return &c.Interactions[i]
		}
	}
	return nil
}

// AttachFeedback replaces the feedback of the given interaction. The
// conversation-scoped tag is stripped while the conversation has fewer than
// two interactions. Attaching is a full replacement, never a merge.
func (c *Conversation) AttachFeedback(interactionID uuid.UUID, feedback Feedback) error {
	interaction := c.FindInteraction(interactionID)
	if interaction == nil {
		return ErrInteractionNotFound
	}
	if len(c.Interactions) < 2 {
		feedback.Tags = withoutConversationTag(feedback.Tags)
	}
	interaction.Feedback = &feedback
	return nil
}

// ClearFeedback resets the interaction's feedback to absent. Clearing an
// interaction that has no feedback is a no-op.
func (c *Conversation) ClearFeedback(interactionID uuid.UUID) error {
	interaction := c.FindInteraction(interactionID)
	if interaction == nil {
		return ErrInteractionNotFound
	}
	interaction.Feedback = nil
	return nil
}
