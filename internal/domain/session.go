package domain

import (
	"time"

	"github.com/google/uuid"
)

type Session struct {
	ID        uuid.UUID
	UserID    int64
	CreatedAt time.Time
}

// Turn is one persisted user/assistant exchange. Immutable once written.
type Turn struct {
	ID         int64
	UserID     int64
	SessionID  uuid.UUID
	Message    string
	Response   string
	Model      string
	TokensUsed int
	HasImage   bool
	HasAudio   bool
	CreatedAt  time.Time
}

// ChatMessage is a role/content pair in provider wire order.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ImageAttachment struct {
	ID             int64
	ConversationID int64
	FileID         string
	FileURL        string
	Analysis       string
	CreatedAt      time.Time
}

type AudioAttachment struct {
	ID             int64
	ConversationID int64
	FileID         string
	FilePath       string
	Transcription  string
	CreatedAt      time.Time
}
