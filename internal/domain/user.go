// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUserExists is returned by UserRepository.Create when the username is taken.
var ErrUserExists = errors.New("username already exists")

// User represents a registered user of the advisory service.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Category     Category
	CreatedAt    time.Time
}

// UserRepository defines the port for user persistence operations.
// GetByUsername returns (nil, nil) when no such user exists.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, username, passwordHash string, category Category) (*User, error)
}
