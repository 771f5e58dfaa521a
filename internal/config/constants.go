package config

import "time"

const (
	// Telegram limits
	MaxTelegramMessageLen = 4096

	// AI request timeout
	RequestTimeout = 90 * time.Second

	// History window bounds (user/assistant pairs)
	DefaultHistoryLength = 5
	MinHistoryLength     = 1
	MaxHistoryLength     = 20

	// Default AI model
	DefaultModel = "gpt-3.5-turbo"

	// Completion budget floor: a degraded answer beats a hard failure
	// when the estimated prompt cost eats the whole context window.
	MinCompletionTokens = 256

	// Fixed output ceiling used when tool definitions are attached;
	// the provider's own accounting already covers their token cost.
	ToolCompletionTokens = 1000

	// Vision defaults
	VisionModel         = "gpt-4.1-mini"
	VisionMaxTokens     = 1000
	DefaultVisionPrompt = "Опиши, что изображено на этой картинке."

	// Transcription
	TranscriptionModel = "whisper-1"

	// Webpage capability: extracted text cap (runes)
	MaxWebpageTextLen = 6000

	// Tavily defaults
	SearchMaxResults = 5
)
