package service

import (
	"unicode/utf8"

	"github.com/netvistor/personal-ai-assistant/internal/config"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

// Per-message structural overhead and the reply primer, matching the
// provider's chat framing.
const (
	messageOverheadTokens = 4
	replyPrimerTokens     = 2
)

// CountTextTokens approximates the token cost of a string. The provider does
// its own exact accounting; this only has to be close enough to size the
// completion budget.
func CountTextTokens(s string) int {
	if s == "" {
		return 0
	}
	return (utf8.RuneCountInString(s) + 3) / 4
}

// EstimateMessages sums the approximate token cost of a message list:
// role + content per message plus fixed structural overheads.
func EstimateMessages(messages []domain.ChatMessage) int {
	total := 0
	for _, m := range messages {
		total += CountTextTokens(m.Role)
		total += CountTextTokens(m.Content)
		total += messageOverheadTokens
	}
	total += replyPrimerTokens
	return total
}

// RemainingBudget computes how many completion tokens fit in the model's
// context after the estimated prompt cost. Never returns less than the
// configured floor.
func RemainingBudget(maxContext, estimatedUsed int) int {
	remaining := maxContext - estimatedUsed
	if remaining < config.MinCompletionTokens {
		return config.MinCompletionTokens
	}
	return remaining
}
