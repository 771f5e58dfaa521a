package handler

import (
	"context"
	"log/slog"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/netvistor/personal-ai-assistant/internal/config"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
	"github.com/netvistor/personal-ai-assistant/internal/middleware"
	tg "github.com/netvistor/personal-ai-assistant/internal/telegram"
)

// HandleVoice runs the voice pipeline: download, transcode, transcribe,
// persist the transcript turn, relay the transcript and re-enter the text
// pipeline with it. The re-entry is a single hop: processText only handles
// plain text.
func (h *Handler) HandleVoice(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Voice == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	msg := update.Message
	chatID := msg.Chat.ID

	file, err := tg.GetFileInfo(ctx, b, msg.Voice.FileID)
	if err != nil {
		slog.Error("resolve voice file", "error", err, "chat_id", chatID)
		h.replyError(ctx, b, chatID, "❌ Не удалось получить голосовое сообщение.")
		return
	}

	stopTyping := tg.StartTyping(ctx, b, chatID)
	transcript, err := h.voice.Process(ctx, b.FileDownloadLink(file))
	stopTyping()
	if err != nil {
		slog.Error("voice pipeline", "error", err, "chat_id", chatID)
		h.replyError(ctx, b, chatID, "❌ Не удалось распознать голосовое сообщение.")
		return
	}

	session, err := h.sessions.FindOrCreate(ctx, user)
	if err != nil {
		slog.Error("find or create session", "error", err, "user_id", user.ID)
		h.replyError(ctx, b, chatID, "❌ Ошибка при создании сессии.")
		return
	}

	turn := &domain.Turn{
		UserID:    user.ID,
		SessionID: session.ID,
		Message:   file.FilePath,
		Response:  transcript.Text,
		Model:     config.TranscriptionModel,
		HasAudio:  true,
	}
	if _, err := h.turns.Create(ctx, turn); err != nil {
		slog.Error("persist voice turn", "error", err, "session_id", session.ID)
	} else {
		att := &domain.AudioAttachment{
			ConversationID: turn.ID,
			FileID:         msg.Voice.FileID,
			FilePath:       file.FilePath,
			Transcription:  transcript.Text,
		}
		if err := h.turns.AddAudio(ctx, att); err != nil {
			slog.Error("persist audio attachment", "error", err, "turn_id", turn.ID)
		}
	}

	if err := tg.SendText(ctx, b, chatID, "🎤 Распознано: "+transcript.Text); err != nil {
		slog.Error("send transcript", "error", err, "chat_id", chatID)
	}

	// Re-enter the plain-text pipeline with the transcript.
	h.processText(ctx, b, chatID, user, transcript.Text)
}
