package middleware

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
	"github.com/netvistor/personal-ai-assistant/internal/repository"
)

type ctxKey string

const UserKey ctxKey = "user"

// GetUser extracts the user from context.
func GetUser(ctx context.Context) *domain.User {
	u, ok := ctx.Value(UserKey).(*domain.User)
	if !ok {
		return nil
	}
	return u
}

// UserLoader returns middleware that resolves or creates the user bound to
// the inbound chat and stores it in the context. Display name and username
// are refreshed when Telegram reports new values.
func UserLoader(users *repository.Users) bot.Middleware {
	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			var from *models.User
			if update.Message != nil {
				from = update.Message.From
			} else if update.CallbackQuery != nil {
				from = &update.CallbackQuery.From
			}

			if from == nil {
				next(ctx, b, update)
				return
			}

			user, created, err := users.FindOrCreate(ctx, from.ID, from.FirstName, from.Username)
			if err == nil && user != nil {
				if !created && (user.FirstName != from.FirstName || user.Username != from.Username) {
					if err := users.UpdateInfo(ctx, user.ID, from.FirstName, from.Username); err == nil {
						user.FirstName = from.FirstName
						user.Username = from.Username
					}
				}
				ctx = context.WithValue(ctx, UserKey, user)
			}

			next(ctx, b, update)
		}
	}
}
