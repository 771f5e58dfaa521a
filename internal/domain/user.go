package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID         int64
	TelegramID int64
	FirstName  string
	Username   string

	// Settings
	SelectedModel   string
	HistoryLength   int
	ActiveSessionID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}
