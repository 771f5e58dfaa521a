package handler

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/netvistor/personal-ai-assistant/internal/config"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
	"github.com/netvistor/personal-ai-assistant/internal/middleware"
	tg "github.com/netvistor/personal-ai-assistant/internal/telegram"
)

// HandleText processes a plain private text message as an AI request.
func (h *Handler) HandleText(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	msg := update.Message
	if strings.HasPrefix(msg.Text, "/") {
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	h.processText(ctx, b, msg.Chat.ID, user, msg.Text)
}

// processText drives one text exchange to completion: resolve the session,
// assemble the bounded context, run the completion loop, persist the turn
// and relay the answer. The voice pipeline re-enters here with a transcript.
func (h *Handler) processText(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, text string) {
	if !h.requests.Acquire(chatID) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⏳ Дождитесь ответа на предыдущий запрос.",
		})
		return
	}
	defer h.requests.Release(chatID)

	modelID := h.selectedModel(chatID, user.SelectedModel)
	historyLength := user.HistoryLength
	if historyLength < config.MinHistoryLength || historyLength > config.MaxHistoryLength {
		historyLength = config.DefaultHistoryLength
	}

	session, err := h.sessions.FindOrCreate(ctx, user)
	if err != nil {
		slog.Error("find or create session", "error", err, "user_id", user.ID)
		h.replyError(ctx, b, chatID, "❌ Ошибка при создании сессии.")
		return
	}

	history, err := h.turns.ListSession(ctx, session.ID, historyLength)
	if err != nil {
		slog.Error("load history", "error", err, "session_id", session.ID)
		h.replyError(ctx, b, chatID, "❌ Ошибка при загрузке истории.")
		return
	}

	messages := h.builder.Build(history, text, historyLength)

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	outcome, err := h.completion.Run(reqCtx, modelID, messages)
	if err != nil {
		slog.Error("completion", "error", err, "model", modelID, "chat_id", chatID)
		h.replyError(ctx, b, chatID, completionErrorText(err, reqCtx, modelID))
		return
	}

	turn := &domain.Turn{
		UserID:     user.ID,
		SessionID:  session.ID,
		Message:    text,
		Response:   outcome.Text,
		Model:      outcome.Model,
		TokensUsed: outcome.TokensUsed,
	}
	if _, err := h.turns.Create(ctx, turn); err != nil {
		slog.Error("persist turn", "error", err, "session_id", session.ID)
	}

	if err := tg.SendText(ctx, b, chatID, outcome.Text); err != nil {
		slog.Error("send response", "error", err, "chat_id", chatID)
	}
}

func (h *Handler) replyError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
}

// completionErrorText maps a completion failure to a terse localized reply.
// Full detail stays in the server-side log.
func completionErrorText(err error, reqCtx context.Context, modelID string) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedModel):
		return UnsupportedModelMessage(modelID)
	case errors.Is(err, domain.ErrCapabilityNotFound):
		return "❌ Запрошенная функция недоступна."
	case strings.Contains(err.Error(), "429"):
		return "⏳ Слишком много запросов к AI. Попробуйте позже."
	case strings.Contains(err.Error(), "503"):
		return "❌ Сервис AI временно недоступен."
	case reqCtx.Err() != nil:
		return "⏳ Превышено время ожидания ответа."
	default:
		return "❌ Ошибка при обработке запроса."
	}
}
