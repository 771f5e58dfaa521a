package handler

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Register registers all command and callback handlers on the bot instance.
func (h *Handler) Register() {
	// Commands
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, h.handleStart)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/models", bot.MatchTypePrefix, h.handleModels)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/model", bot.MatchTypePrefix, h.handleModel)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/history", bot.MatchTypePrefix, h.handleHistory)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/new", bot.MatchTypePrefix, h.handleNewSession)
	h.bot.RegisterHandler(bot.HandlerTypeMessageText, "/analyze", bot.MatchTypePrefix, h.handleAnalyze)

	// Model selection callbacks
	h.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "m_", bot.MatchTypePrefix, h.handleModelSelect)
}

// Route dispatches updates that no registered handler matched: plain text,
// voice notes and photos.
func (h *Handler) Route(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	msg := update.Message
	if msg.Chat.Type != "private" {
		return
	}

	switch {
	case msg.Voice != nil:
		h.HandleVoice(ctx, b, update)
	case len(msg.Photo) > 0:
		h.HandlePhoto(ctx, b, update)
	case msg.Text != "" && msg.Text[0] != '/':
		h.HandleText(ctx, b, update)
	}
}
