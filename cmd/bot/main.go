package main

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	assistant "github.com/netvistor/personal-ai-assistant"
	"github.com/netvistor/personal-ai-assistant/internal/config"
	"github.com/netvistor/personal-ai-assistant/internal/handler"
	"github.com/netvistor/personal-ai-assistant/internal/middleware"
	"github.com/netvistor/personal-ai-assistant/internal/repository"
	"github.com/netvistor/personal-ai-assistant/internal/service"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		slog.Warn("unknown timezone, falling back to UTC", "timezone", cfg.Timezone)
		loc = time.UTC
	}

	// Setup context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Run migrations
	migrationsFS, err := fs.Sub(assistant.MigrationsFS, "migrations")
	if err != nil {
		slog.Error("failed to load embedded migrations", "error", err)
		os.Exit(1)
	}
	if err := repository.RunMigrations(cfg.DatabaseURL, migrationsFS); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Repositories
	users := repository.NewUsers(pool)
	sessions := repository.NewSessions(pool)
	turns := repository.NewTurns(pool)

	// Providers and capabilities
	ai := service.NewOpenAIService(cfg.OpenAIKey)
	registry := service.NewRegistry(service.NewWebpageCapability())
	if cfg.TavilyKey != "" {
		registry.Register(service.NewSearchCapability(service.NewTavilyClient(cfg.TavilyKey)))
	}

	builder := service.NewContextBuilder(registry, loc)
	completion := service.NewCompletionLoop(ai, registry)
	voice := service.NewVoicePipeline(ai, cfg.FFmpegPath)
	image := service.NewImagePipeline(ai, cfg.MaxImageSizeMB)

	// Handler pointer for use in the default handler closure
	var h *handler.Handler

	// Create bot
	opts := []bot.Option{
		bot.WithMiddlewares(
			middleware.Recover(),
			middleware.Logging(),
			middleware.UserLoader(users),
		),
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			if h == nil {
				return
			}
			h.Route(ctx, b, update)
		}),
	}

	b, err := bot.New(cfg.BotToken, opts...)
	if err != nil {
		slog.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	// Initialize handler
	h = handler.New(handler.Deps{
		Bot:        b,
		Users:      users,
		Sessions:   sessions,
		Turns:      turns,
		Builder:    builder,
		Completion: completion,
		Voice:      voice,
		Image:      image,
		Location:   loc,
	})

	// Register command handlers; everything else reaches Route via the
	// default handler.
	h.Register()

	// Start bot
	slog.Info("starting bot")
	b.Start(ctx)

	slog.Info("bot stopped gracefully")
}
