package domain

import (
	"context"

	"github.com/google/uuid"
)

// ConversationRepository persists conversations. Once saved, the stored copy
// is authoritative; callers only hold a working copy during a single request.
type ConversationRepository interface {
	Create(ctx context.Context, conversation *Conversation) error
	// Get returns ErrConversationNotFound when the id is absent.
	Get(ctx context.Context, id uuid.UUID) (*Conversation, error)
	Update(ctx context.Context, conversation *Conversation) error
}
