package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

// Turns persists conversation exchanges and their media attachments.
type Turns struct {
	db *pgxpool.Pool
}

func NewTurns(db *pgxpool.Pool) *Turns {
	return &Turns{db: db}
}

func (r *Turns) Create(ctx context.Context, t *domain.Turn) (*domain.Turn, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO conversations (user_id, session_id, message, response, model, tokens_used, has_image, has_audio)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		t.UserID, t.SessionID, t.Message, t.Response, t.Model, t.TokensUsed, t.HasImage, t.HasAudio).
		Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create turn: %w", err)
	}
	return t, nil
}

// ListSession returns the newest `limit` turns of a session, oldest first.
// The serial id breaks same-timestamp ties so ordering stays deterministic
// under same-millisecond writes.
func (r *Turns) ListSession(ctx context.Context, sessionID uuid.UUID, limit int) ([]domain.Turn, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, user_id, session_id, message, response, model, tokens_used, has_image, has_audio, created_at
		 FROM (
			SELECT * FROM conversations
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		 ) recent
		 ORDER BY created_at ASC, id ASC`,
		sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list session turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.SessionID, &t.Message, &t.Response,
			&t.Model, &t.TokensUsed, &t.HasImage, &t.HasAudio, &t.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return turns, nil
}

func (r *Turns) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM conversations WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count turns: %w", err)
	}
	return n, nil
}

func (r *Turns) AddImage(ctx context.Context, a *domain.ImageAttachment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO images (conversation_id, file_id, file_url, analysis)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		a.ConversationID, a.FileID, a.FileURL, a.Analysis).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("add image attachment: %w", err)
	}
	return nil
}

func (r *Turns) AddAudio(ctx context.Context, a *domain.AudioAttachment) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO audio (conversation_id, file_id, file_path, transcription)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		a.ConversationID, a.FileID, a.FilePath, a.Transcription).
		Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("add audio attachment: %w", err)
	}
	return nil
}
