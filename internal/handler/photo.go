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

const photoUsageHint = "🖼 Чтобы проанализировать фото, ответьте на него командой /analyze <вопрос>."

// HandlePhoto replies with a usage hint for bare photos. No Turn is written;
// analysis only happens through the explicit /analyze reply-command.
func (h *Handler) HandlePhoto(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || len(update.Message.Photo) == 0 {
		return
	}
	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   photoUsageHint,
	})
}

// handleAnalyze runs the image pipeline for a photo the user replied to.
func (h *Handler) handleAnalyze(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	msg := update.Message
	chatID := msg.Chat.ID

	if msg.ReplyToMessage == nil || len(msg.ReplyToMessage.Photo) == 0 {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   photoUsageHint,
		})
		return
	}

	prompt := strings.TrimSpace(strings.TrimPrefix(msg.Text, "/analyze"))
	if prompt == "" {
		prompt = config.DefaultVisionPrompt
	}

	if !h.requests.Acquire(chatID) {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "⏳ Дождитесь ответа на предыдущий запрос.",
		})
		return
	}
	defer h.requests.Release(chatID)

	// Highest resolution variant is last.
	photos := msg.ReplyToMessage.Photo
	photo := photos[len(photos)-1]

	file, err := tg.GetFileInfo(ctx, b, photo.FileID)
	if err != nil {
		slog.Error("resolve photo file", "error", err, "chat_id", chatID)
		h.replyError(ctx, b, chatID, "❌ Не удалось получить фото.")
		return
	}

	ext, err := h.image.CheckMeta(file.FilePath, file.FileSize)
	if err != nil {
		h.replyError(ctx, b, chatID, mediaErrorText(err))
		return
	}

	data, err := tg.DownloadFile(ctx, b, file)
	if err != nil {
		slog.Error("download photo", "error", err, "chat_id", chatID)
		h.replyError(ctx, b, chatID, "❌ Не удалось загрузить фото.")
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	defer stopTyping()

	reqCtx, cancel := context.WithTimeout(ctx, config.RequestTimeout)
	defer cancel()

	result, err := h.image.Analyze(reqCtx, data, ext, prompt)
	if err != nil {
		if isMediaValidationError(err) {
			h.replyError(ctx, b, chatID, mediaErrorText(err))
			return
		}
		slog.Error("image pipeline", "error", err, "chat_id", chatID)
		h.replyError(ctx, b, chatID, "❌ Ошибка анализа изображения.")
		return
	}

	session, err := h.sessions.FindOrCreate(ctx, user)
	if err != nil {
		slog.Error("find or create session", "error", err, "user_id", user.ID)
		h.replyError(ctx, b, chatID, "❌ Ошибка при создании сессии.")
		return
	}

	turn := &domain.Turn{
		UserID:     user.ID,
		SessionID:  session.ID,
		Message:    prompt,
		Response:   result.Content,
		Model:      result.Model,
		TokensUsed: result.TokensUsed,
		HasImage:   true,
	}
	if _, err := h.turns.Create(ctx, turn); err != nil {
		slog.Error("persist image turn", "error", err, "session_id", session.ID)
	} else {
		att := &domain.ImageAttachment{
			ConversationID: turn.ID,
			FileID:         photo.FileID,
			FileURL:        b.FileDownloadLink(file),
			Analysis:       result.Content,
		}
		if err := h.turns.AddImage(ctx, att); err != nil {
			slog.Error("persist image attachment", "error", err, "turn_id", turn.ID)
		}
	}

	if err := tg.SendText(ctx, b, chatID, "🖼 "+result.Model+": "+result.Content); err != nil {
		slog.Error("send analysis", "error", err, "chat_id", chatID)
	}
}

func isMediaValidationError(err error) bool {
	return errors.Is(err, domain.ErrFileTooLarge) ||
		errors.Is(err, domain.ErrUnsupportedFormat) ||
		errors.Is(err, domain.ErrSignatureMismatch)
}

func mediaErrorText(err error) string {
	switch {
	case errors.Is(err, domain.ErrFileTooLarge):
		return "❌ Файл слишком большой."
	case errors.Is(err, domain.ErrUnsupportedFormat):
		return "❌ Формат файла не поддерживается. Отправьте JPEG."
	case errors.Is(err, domain.ErrSignatureMismatch):
		return "❌ Содержимое файла не соответствует его формату."
	default:
		return "❌ Ошибка обработки файла."
	}
}
