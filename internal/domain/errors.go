package domain

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrInteractionNotFound  = errors.New("interaction not found")
)

// ProcessingError wraps an unexpected failure caught at the usecase
// boundary. Message is safe to show to the caller; Cause is kept for
// logging only.
type ProcessingError struct {
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// NewProcessingError builds a ProcessingError with a user-safe message.
func NewProcessingError(message string, cause error) *ProcessingError {
	return &ProcessingError{Message: message, Cause: cause}
}
