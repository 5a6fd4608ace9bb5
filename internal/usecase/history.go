package usecase

import "qa-orchestrator/internal/domain"

// historyWindow selects up to limit prior interactions to replay to the
// collaborators, oldest first. Interactions that resulted in a violation are
// excluded: their canned responses carry no conversational content.
func historyWindow(conversation *domain.Conversation, limit int) []domain.Interaction {
	if conversation == nil || limit <= 0 {
		return nil
	}

	// Interactions are stored newest first; collect the most recent valid
	// ones, then reverse into chronological order.
	selected := make([]domain.Interaction, 0, limit)
	for _, interaction := range conversation.Interactions {
		if interaction.Answer.Violation != nil {
			continue
		}
		selected = append(selected, interaction)
		if len(selected) == limit {
			break
		}
	}

	for i, j := 0, len(selected)-1; i < j; i, j = i+1, j-1 {
		selected[i], selected[j] = selected[j], selected[i]
	}
	return selected
}
