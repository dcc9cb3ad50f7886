// Package app holds the application services and business logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"aqiadvisor/internal/domain"
	"aqiadvisor/internal/logging"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists indicates that signup used a taken username.
	ErrUserExists = errors.New("username already exists")
	// ErrMissingFields indicates an empty username, password or category.
	ErrMissingFields = errors.New("all fields are required")
)

// AuthService handles signup and per-request credential validation.
type AuthService struct {
	users  domain.UserRepository
	logger logging.Logger
	cost   int
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, logger logging.Logger) *AuthService {
	return &AuthService{
		users:  users,
		logger: logger,
		cost:   bcrypt.DefaultCost,
	}
}

// WithHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *AuthService) WithHashCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// Signup registers a new user. Any non-empty category is accepted; users
// outside the recognized set get the fallback advice.
func (s *AuthService) Signup(ctx context.Context, username, password string, category domain.Category) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" || strings.TrimSpace(string(category)) == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", username, err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, username, string(hash), category)
	if errors.Is(err, domain.ErrUserExists) {
		return nil, ErrUserExists
	}
	if err != nil {
		return nil, fmt.Errorf("create user %s: %w", username, err)
	}

	if !category.Recognized() {
		s.logger.Warn(ctx, "user registered with unrecognized category", "user", username, "category", string(category))
	}
	s.logger.Info(ctx, "user registered", "user", username, "user_id", user.ID)
	return user, nil
}

// Login re-validates a username and password. Nothing is issued; callers
// present credentials again on every request that needs them.
func (s *AuthService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", username, err)
	}
	if user == nil || user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// EnsureSSOUser returns the user for an identity verified by the SSO
// provider, creating it with the given category on first sight. SSO users
// have no password hash, so Login always rejects them.
func (s *AuthService) EnsureSSOUser(ctx context.Context, username string, category domain.Category) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", username, err)
	}
	if user != nil {
		return user, nil
	}

	if strings.TrimSpace(string(category)) == "" {
		category = domain.CategoryNormal
	}
	user, err = s.users.Create(ctx, username, "", category)
	if errors.Is(err, domain.ErrUserExists) {
		// Lost a race with a concurrent callback.
		user, err = s.users.GetByUsername(ctx, username)
		if err == nil && user == nil {
			err = ErrUserNotFound
		}
	}
	if err != nil {
		return nil, fmt.Errorf("create sso user %s: %w", username, err)
	}
	s.logger.Info(ctx, "sso user provisioned", "user", username, "user_id", user.ID)
	return user, nil
}

// UserExists reports whether username is registered.
func (s *AuthService) UserExists(ctx context.Context, username string) (bool, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return false, fmt.Errorf("lookup user %s: %w", username, err)
	}
	return user != nil, nil
}
