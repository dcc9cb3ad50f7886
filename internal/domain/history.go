package domain

import (
	"context"
	"time"
)

// HistoryEntry records one resolved advisory request.
type HistoryEntry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	MonthIndex int       `json:"month_index"`
	AQIValue   int       `json:"aqi_value"`
	CreatedAt  time.Time `json:"timestamp"`
}

// HistoryRepository is the port for the append-only advisory history.
// ListRecentHistory returns entries newest first, ties broken by descending ID.
type HistoryRepository interface {
	AppendHistory(ctx context.Context, userID int64, monthIndex, aqiValue int, createdAt time.Time) (int64, error)
	ListRecentHistory(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error)
}
