package domain

import "context"

// Journal event kinds.
const (
	JournalConversationCreated = "conversation_created"
	JournalInteractionAdded    = "interaction_added"
	JournalViolationDetected   = "violation_detected"
	JournalFeedbackSubmitted   = "feedback_submitted"
	JournalFeedbackRemoved     = "feedback_removed"
)

// JournalEvent is a typed audit event derived from pipeline outcomes.
// Identifiers embedded in events are hashed before the event is built, so
// sinks never see raw ids.
type JournalEvent interface {
	Kind() string
}

// ConversationEvent covers both ConversationCreated and InteractionAdded,
// which share the same shape. QuestionText and SourceURLs are only populated
// when alpha-test mode is enabled.
type ConversationEvent struct {
	EventKind      string   `json:"-"`
	ConversationID string   `json:"conversation_id"`
	InteractionID  string   `json:"interaction_id"`
	QuestionLength int      `json:"question_length"`
	AnswerLength   int      `json:"answer_length"`
	QuestionText   string   `json:"question_text,omitempty"`
	SourceURLs     []string `json:"source_urls,omitempty"`
	CallerType     UserType `json:"caller_type"`
}

func (e ConversationEvent) Kind() string { return e.EventKind }

// ViolationDetectedEvent records that an answer was replaced by a canned
// safety response.
type ViolationDetectedEvent struct {
	InteractionID string        `json:"interaction_id"`
	ViolationKind ViolationKind `json:"violation_kind"`
}

func (e ViolationDetectedEvent) Kind() string { return JournalViolationDetected }

// FeedbackSubmittedEvent records feedback attached to an interaction.
type FeedbackSubmittedEvent struct {
	InteractionID string        `json:"interaction_id"`
	FeedbackKind  FeedbackKind  `json:"feedback_kind"`
	Tags          []FeedbackTag `json:"tags"`
	CallerType    UserType      `json:"caller_type"`
}

func (e FeedbackSubmittedEvent) Kind() string { return JournalFeedbackSubmitted }

// FeedbackRemovedEvent records feedback cleared from an interaction.
type FeedbackRemovedEvent struct {
	InteractionID string   `json:"interaction_id"`
	CallerType    UserType `json:"caller_type"`
}

func (e FeedbackRemovedEvent) Kind() string { return JournalFeedbackRemoved }

// JournalSink receives audit events. Delivery is best effort; the system
// does not guarantee exactly-once semantics.
type JournalSink interface {
	Record(ctx context.Context, event JournalEvent) error
}
