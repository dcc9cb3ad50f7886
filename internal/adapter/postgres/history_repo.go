package postgres

import (
	"context"
	"fmt"
	"time"

	"aqiadvisor/internal/domain"
)

// AppendHistory inserts one advisory request. The single INSERT is atomic, so
// a failure leaves nothing behind.
func (d *DB) AppendHistory(ctx context.Context, userID int64, monthIndex, aqiValue int, createdAt time.Time) (int64, error) {
	var id int64
	err := d.sql.QueryRowContext(ctx,
		"INSERT INTO aqi_requests(user_id, month_index, aqi_value, created_at) VALUES($1, $2, $3, $4) RETURNING id;",
		userID, monthIndex, aqiValue, createdAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append history for user %d: %w", userID, err)
	}
	return id, nil
}

// ListRecentHistory returns the most recent advisory requests up to limit for a user.
func (d *DB) ListRecentHistory(ctx context.Context, userID int64, limit int) ([]domain.HistoryEntry, error) {
	rows, err := d.sql.QueryContext(ctx,
		"SELECT id, month_index, aqi_value, created_at FROM aqi_requests WHERE user_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2;",
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list history for user %d: %w", userID, err)
	}
	defer rows.Close() //nolint:errcheck

	out := make([]domain.HistoryEntry, 0, limit)
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.MonthIndex, &e.AQIValue, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.UserID = userID
		e.CreatedAt = e.CreatedAt.UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}
