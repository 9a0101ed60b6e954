package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// User is an account row. PasswordHash is a bcrypt hash, never the
// plaintext password.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// ErrUsernameTaken is returned when registering an existing username.
var ErrUsernameTaken = errors.New("username already taken")

func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	if _, err := r.GetUserByUsername(ctx, username); err == nil {
		return 0, ErrUsernameTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, passwordHash, time.Now().UTC())
	if err != nil {
		return 0, storeErr("create user", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeErr("create user id", err)
	}

	slog.InfoContext(ctx, "User registered", "id", id, "username", username)
	return id, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get user", err)
	}
	return &u, nil
}
