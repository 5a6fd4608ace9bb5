package domain

import "time"

// FeedbackKind distinguishes positive from negative feedback.
type FeedbackKind string

const (
	FeedbackPositive FeedbackKind = "positive"
	FeedbackNegative FeedbackKind = "negative"
)

// FeedbackTag is a user-selected reason attached to feedback.
// The vocabulary differs per kind but both kinds share TagConversation.
type FeedbackTag string

const (
	// Positive vocabulary
	TagClear    FeedbackTag = "clair"
	TagComplete FeedbackTag = "complet"
	TagSourced  FeedbackTag = "bien_sourcé"

	// Negative vocabulary
	TagInaccurate FeedbackTag = "inexact"
	TagIncomplete FeedbackTag = "incomplet"
	TagOffSubject FeedbackTag = "hors_sujet"

	// TagConversation marks feedback about multi-turn behaviour. It is only
	// meaningful once a conversation has a second interaction and is
	// stripped otherwise (see Conversation.AttachFeedback).
	TagConversation FeedbackTag = "conversation"
)

// Feedback is a user's judgement of one interaction.
type Feedback struct {
	Kind      FeedbackKind
	Comment   string
	Tags      []FeedbackTag
	CreatedAt time.Time
}

// withoutConversationTag returns a copy of the tag set with TagConversation
// removed.
func withoutConversationTag(tags []FeedbackTag) []FeedbackTag {
	filtered := make([]FeedbackTag, 0, len(tags))
	for _, tag := range tags {
		if tag == TagConversation {
			continue
		}
		filtered = append(filtered, tag)
	}
	return filtered
}
