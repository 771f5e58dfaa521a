package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

const persona = "Ты — полезный ассистент. Отвечай на языке пользователя. Будь точным и конкретным."

// ContextBuilder assembles the bounded message list sent to the provider:
// system preamble, the trailing window of prior turns and the new user turn.
type ContextBuilder struct {
	registry *Registry
	loc      *time.Location
	now      func() time.Time
}

func NewContextBuilder(registry *Registry, loc *time.Location) *ContextBuilder {
	if loc == nil {
		loc = time.UTC
	}
	return &ContextBuilder{
		registry: registry,
		loc:      loc,
		now:      time.Now,
	}
}

// Build returns the provider message list: a system message, at most the last
// 2×historyLength prior entries (oldest first) and the new user message.
func (c *ContextBuilder) Build(history []domain.Turn, newMessage string, historyLength int) []domain.ChatMessage {
	entries := flattenTurns(history)
	if window := historyLength * 2; len(entries) > window {
		entries = entries[len(entries)-window:]
	}

	messages := make([]domain.ChatMessage, 0, len(entries)+2)
	messages = append(messages, domain.ChatMessage{
		Role:    "system",
		Content: c.systemText(historyLength),
	})
	messages = append(messages, entries...)
	messages = append(messages, domain.ChatMessage{
		Role:    "user",
		Content: newMessage,
	})
	return messages
}

func (c *ContextBuilder) systemText(historyLength int) string {
	var b strings.Builder
	b.WriteString(persona)
	b.WriteString(fmt.Sprintf(" Сегодня %s.", c.now().In(c.loc).Format("Monday, 02.01.2006 15:04:05")))
	b.WriteString(fmt.Sprintf(" Контекст: последние %d сообщений.", historyLength))

	if c.registry != nil && c.registry.Len() > 0 {
		if manifest, err := json.Marshal(c.registry.Definitions()); err == nil {
			b.WriteString("\nДоступные функции: ")
			b.Write(manifest)
		}
	}
	return b.String()
}

// flattenTurns expands persisted turns into alternating user/assistant
// entries in chronological order.
func flattenTurns(turns []domain.Turn) []domain.ChatMessage {
	entries := make([]domain.ChatMessage, 0, len(turns)*2)
	for _, t := range turns {
		entries = append(entries,
			domain.ChatMessage{Role: "user", Content: t.Message},
			domain.ChatMessage{Role: "assistant", Content: t.Response},
		)
	}
	return entries
}
