package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Core
	BotToken    string `env:"BOT_TOKEN,required"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	OpenAIKey   string `env:"OPENAI_API_KEY,required"`
	TavilyKey   string `env:"TAVILY_API_KEY"`

	// Media
	MaxImageSizeMB int    `env:"MAX_IMAGE_SIZE_MB" envDefault:"10"`
	FFmpegPath     string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`

	// Timezone used for the localized date/time in the system preamble
	Timezone string `env:"ASSISTANT_TIMEZONE" envDefault:"Europe/Moscow"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
