package domain

import "context"

// Chat message roles accepted by the generation collaborator.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one role-tagged message in a generation request.
type ChatMessage struct {
	Role    string
	Content string
}

// ChatClient defines the capability to send a message list to an LLM and
// receive the text of its first choice.
type ChatClient interface {
	Complete(ctx context.Context, messages []ChatMessage) (string, error)
}
