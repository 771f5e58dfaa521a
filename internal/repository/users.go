package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/netvistor/personal-ai-assistant/internal/domain"
)

// Users reads and writes user rows.
type Users struct {
	db *pgxpool.Pool
}

func NewUsers(db *pgxpool.Pool) *Users {
	return &Users{db: db}
}

const userColumns = `id, telegram_id, first_name, username, selected_model,
	history_length, active_session_id, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(
		&u.ID,
		&u.TelegramID,
		&u.FirstName,
		&u.Username,
		&u.SelectedModel,
		&u.HistoryLength,
		&u.ActiveSessionID,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindOrCreate returns the user bound to a Telegram chat, creating the row on
// first contact. The bool reports whether a new row was created.
func (r *Users) FindOrCreate(ctx context.Context, telegramID int64, firstName, username string) (*domain.User, bool, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID)
	u, err := scanUser(row)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("get user: %w", err)
	}

	row = r.db.QueryRow(ctx,
		`INSERT INTO users (telegram_id, first_name, username)
		 VALUES ($1, $2, $3)
		 RETURNING `+userColumns,
		telegramID, firstName, username)
	u, err = scanUser(row)
	if err != nil {
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return u, true, nil
}

func (r *Users) UpdateInfo(ctx context.Context, userID int64, firstName, username string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET first_name = $2, username = $3, updated_at = now() WHERE id = $1`,
		userID, firstName, username)
	if err != nil {
		return fmt.Errorf("update user info: %w", err)
	}
	return nil
}

func (r *Users) UpdateSelectedModel(ctx context.Context, userID int64, model string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET selected_model = $2, updated_at = now() WHERE id = $1`,
		userID, model)
	if err != nil {
		return fmt.Errorf("update selected model: %w", err)
	}
	return nil
}

func (r *Users) UpdateHistoryLength(ctx context.Context, userID int64, length int) error {
	_, err := r.db.Exec(ctx,
		`UPDATE users SET history_length = $2, updated_at = now() WHERE id = $1`,
		userID, length)
	if err != nil {
		return fmt.Errorf("update history length: %w", err)
	}
	return nil
}
