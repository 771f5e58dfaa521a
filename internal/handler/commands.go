package handler

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/netvistor/personal-ai-assistant/internal/config"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
	"github.com/netvistor/personal-ai-assistant/internal/middleware"
)

func (h *Handler) handleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Chat.Type != "private" {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}

	welcomeText := fmt.Sprintf(
		"👋 Привет, %s!\n\n"+
			"Я — AI-ассистент. Отправьте текст, голосовое сообщение или фото.\n\n"+
			"📋 Команды:\n"+
			"/models — Список моделей\n"+
			"/model <имя> — Выбрать модель\n"+
			"/history <1-20> — Длина контекста\n"+
			"/new — Новая сессия\n"+
			"/analyze <вопрос> — Анализ фото (ответом на фото)\n\n"+
			"Просто отправьте сообщение, чтобы начать диалог!",
		user.FirstName,
	)

	if total, err := h.turns.CountByUser(ctx, user.ID); err == nil && total > 0 {
		welcomeText += fmt.Sprintf("\n\n📊 Сообщений в истории: %d", total)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   welcomeText,
	})
}

func (h *Handler) handleModels(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	current := h.selectedModel(chatID, persistedModel(ctx))

	var rows [][]models.InlineKeyboardButton
	for _, m := range domain.SupportedModels {
		label := m.ID
		if strings.EqualFold(m.ID, current) {
			label = "✅ " + label
		}
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: label, CallbackData: "m_" + m.ID},
		})
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "🤖 Доступные модели:",
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
}

func (h *Handler) handleModel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	// MatchTypePrefix on "/model" also catches "/models".
	if strings.HasPrefix(update.Message.Text, "/models") {
		h.handleModels(ctx, b, update)
		return
	}

	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID := update.Message.Chat.ID

	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/model"))
	if arg == "" {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "Использование: /model <имя>\nДоступные модели: " + strings.Join(domain.ModelIDs(), ", "),
		})
		return
	}

	h.applyModelSelection(ctx, b, chatID, user, arg)
}

// applyModelSelection validates the requested model name and updates both
// the chat override and the persisted user setting.
func (h *Handler) applyModelSelection(ctx context.Context, b *bot.Bot, chatID int64, user *domain.User, name string) {
	model, ok := domain.FindModel(name)
	if !ok {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   UnsupportedModelMessage(name),
		})
		return
	}

	h.overrides.Set(chatID, model.ID)
	if err := h.users.UpdateSelectedModel(ctx, user.ID, model.ID); err != nil {
		slog.Error("update selected model", "error", err, "user_id", user.ID)
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("✅ Модель %s выбрана.", model.ID),
	})
}

func (h *Handler) handleModelSelect(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})

	user := middleware.GetUser(ctx)
	if user == nil || update.CallbackQuery.Message.Message == nil {
		return
	}
	chatID := update.CallbackQuery.Message.Message.Chat.ID
	name := strings.TrimPrefix(update.CallbackQuery.Data, "m_")

	h.applyModelSelection(ctx, b, chatID, user, name)
}

func (h *Handler) handleHistory(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID := update.Message.Chat.ID

	arg := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/history"))
	length, err := ParseHistoryLength(arg)
	if err != nil {
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text: fmt.Sprintf("❌ Неверное значение. Укажите число от %d до %d: /history <n>",
				config.MinHistoryLength, config.MaxHistoryLength),
		})
		return
	}

	if err := h.users.UpdateHistoryLength(ctx, user.ID, length); err != nil {
		slog.Error("update history length", "error", err, "user_id", user.ID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Ошибка при сохранении настройки.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   fmt.Sprintf("✅ Длина контекста: %d сообщений.", length),
	})
}

func (h *Handler) handleNewSession(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	user := middleware.GetUser(ctx)
	if user == nil {
		return
	}
	chatID := update.Message.Chat.ID

	if _, err := h.sessions.Create(ctx, user.ID); err != nil {
		slog.Error("create session", "error", err, "user_id", user.ID)
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   "❌ Ошибка при создании сессии.",
		})
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   "🔄 Контекст сброшен. Начат новый диалог.",
	})
}

// ParseHistoryLength validates a history-window argument: an integer within
// the configured bounds.
func ParseHistoryLength(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("parse history length: %w", err)
	}
	if n < config.MinHistoryLength || n > config.MaxHistoryLength {
		return 0, fmt.Errorf("history length %d out of range", n)
	}
	return n, nil
}

// UnsupportedModelMessage names the rejected model and lists every valid one.
func UnsupportedModelMessage(name string) string {
	return fmt.Sprintf("❌ Модель %s не поддерживается.\nДоступные модели: %s",
		name, strings.Join(domain.ModelIDs(), ", "))
}

// persistedModel reads the user's stored model selection from context.
func persistedModel(ctx context.Context) string {
	if user := middleware.GetUser(ctx); user != nil {
		return user.SelectedModel
	}
	return config.DefaultModel
}
