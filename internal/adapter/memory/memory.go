// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"aqiadvisor/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu      sync.Mutex
	users   []*domain.User
	history []domain.HistoryEntry

	userIDCounter    int64
	historyIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{}
}

// Ensure interfaces are met.
var _ domain.UserRepository = (*DB)(nil)
var _ domain.HistoryRepository = (*DB)(nil)

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string, category domain.Category) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, domain.ErrUserExists
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		Category:     category,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)

	cp := *u
	return &cp, nil
}

// --- HistoryRepository ---

// AppendHistory records one advisory request.
func (db *DB) AppendHistory(ctx context.Context, userID int64, monthIndex, aqiValue int, createdAt time.Time) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.historyIDCounter++
	id := db.historyIDCounter

	db.history = append(db.history, domain.HistoryEntry{
		ID:         id,
		UserID:     userID,
		MonthIndex: monthIndex,
		AQIValue:   aqiValue,
		CreatedAt:  createdAt.UTC(),
	})
	return id, nil
}

// ListRecentHistory lists a user's most recent entries.
func (db *DB) ListRecentHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.HistoryEntry, 0)
	for _, e := range db.history {
		if e.UserID == userID {
			result = append(result, e)
		}
	}

	// newest first, same order as ORDER BY created_at DESC, id DESC
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit >= 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
