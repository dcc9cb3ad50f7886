package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"aqiadvisor/internal/domain"
)

const uniqueViolation = "23505"

// GetByUsername retrieves a user by username.
func (d *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	var category string
	err := d.sql.QueryRowContext(ctx,
		"SELECT id, username, password_hash, category, created_at FROM users WHERE username = $1",
		username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &category, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by username %s: %w", username, err)
	}
	u.Category = domain.Category(category)
	return &u, nil
}

// Create creates a new user.
func (d *DB) Create(ctx context.Context, username, passwordHash string, category domain.Category) (*domain.User, error) {
	var u domain.User
	var cat string
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash, category, created_at) VALUES ($1, $2, $3, $4) RETURNING id, username, password_hash, category, created_at",
		username, passwordHash, string(category), time.Now().UTC(),
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &cat, &u.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	u.Category = domain.Category(cat)
	return &u, nil
}
