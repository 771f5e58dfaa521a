package handler

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"github.com/netvistor/personal-ai-assistant/internal/config"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
	"github.com/netvistor/personal-ai-assistant/internal/service"
)

// Store interfaces cover exactly what the handlers touch. The repository
// types satisfy them; tests substitute in-memory fakes.
type UserStore interface {
	UpdateSelectedModel(ctx context.Context, userID int64, model string) error
	UpdateHistoryLength(ctx context.Context, userID int64, length int) error
}

type SessionStore interface {
	Create(ctx context.Context, userID int64) (*domain.Session, error)
	FindOrCreate(ctx context.Context, user *domain.User) (*domain.Session, error)
}

type TurnStore interface {
	Create(ctx context.Context, t *domain.Turn) (*domain.Turn, error)
	ListSession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
	AddImage(ctx context.Context, a *domain.ImageAttachment) error
	AddAudio(ctx context.Context, a *domain.AudioAttachment) error
}

// Handler holds all dependencies needed by command and message handlers.
// Per-chat state (model overrides, busy flags) lives here, not in package
// globals, so independent handler instances never share it.
type Handler struct {
	bot        *bot.Bot
	users      UserStore
	sessions   SessionStore
	turns      TurnStore
	builder    *service.ContextBuilder
	completion *service.CompletionLoop
	voice      *service.VoicePipeline
	image      *service.ImagePipeline
	overrides  *ModelOverrides
	requests   *RequestGuard
	loc        *time.Location
}

// Deps contains all dependencies required to construct a Handler.
type Deps struct {
	Bot        *bot.Bot
	Users      UserStore
	Sessions   SessionStore
	Turns      TurnStore
	Builder    *service.ContextBuilder
	Completion *service.CompletionLoop
	Voice      *service.VoicePipeline
	Image      *service.ImagePipeline
	Location   *time.Location
}

// New creates a new Handler from the provided dependencies.
func New(deps Deps) *Handler {
	loc := deps.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Handler{
		bot:        deps.Bot,
		users:      deps.Users,
		sessions:   deps.Sessions,
		turns:      deps.Turns,
		builder:    deps.Builder,
		completion: deps.Completion,
		voice:      deps.Voice,
		image:      deps.Image,
		overrides:  NewModelOverrides(),
		requests:   NewRequestGuard(),
		loc:        loc,
	}
}

// selectedModel returns the chat's ephemeral model override when present,
// falling back to the user's persisted selection.
func (h *Handler) selectedModel(chatID int64, persisted string) string {
	if m, ok := h.overrides.Get(chatID); ok {
		return m
	}
	if persisted == "" {
		return config.DefaultModel
	}
	return persisted
}
