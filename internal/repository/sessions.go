package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

// Sessions manages conversation epochs. A user's current session is the one
// referenced by users.active_session_id; starting a new session is the only
// way to truncate context.
type Sessions struct {
	db *pgxpool.Pool
}

func NewSessions(db *pgxpool.Pool) *Sessions {
	return &Sessions{db: db}
}

func (r *Sessions) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	var s domain.Session
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, created_at FROM sessions WHERE id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// Create inserts a new session with a fresh opaque identifier and points the
// owning user at it.
func (r *Sessions) Create(ctx context.Context, userID int64) (*domain.Session, error) {
	id := uuid.New()
	var s domain.Session
	err := r.db.QueryRow(ctx,
		`INSERT INTO sessions (id, user_id) VALUES ($1, $2)
		 RETURNING id, user_id, created_at`,
		id, userID).
		Scan(&s.ID, &s.UserID, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`UPDATE users SET active_session_id = $2, updated_at = now() WHERE id = $1`,
		userID, s.ID)
	if err != nil {
		return nil, fmt.Errorf("set active session: %w", err)
	}
	return &s, nil
}

// FindOrCreate resolves the user's current session, creating one if the user
// has none or the referenced session is gone.
func (r *Sessions) FindOrCreate(ctx context.Context, user *domain.User) (*domain.Session, error) {
	if user.ActiveSessionID != nil {
		s, err := r.GetByID(ctx, *user.ActiveSessionID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
	}
	s, err := r.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.ActiveSessionID = &s.ID
	return s, nil
}
