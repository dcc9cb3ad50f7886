package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"aqiadvisor/internal/domain"
	"aqiadvisor/internal/logging"
)

// DefaultHistoryLimit caps history queries when no limit is configured.
const DefaultHistoryLimit = 10

// ErrPersistence wraps a failed history write. No advisory is returned with it.
var ErrPersistence = errors.New("failed to record advisory request")

// Advisory is the result of one resolved advisory request.
type Advisory struct {
	MonthIndex int
	AQIValue   int
	Band       domain.Band
	Advice     string
}

// AdvisoryService resolves AQI advice for a user and records each request.
type AdvisoryService struct {
	users        domain.UserRepository
	history      domain.HistoryRepository
	table        *domain.AQITable
	historyLimit int
	logger       logging.Logger
	now          func() time.Time
}

// NewAdvisoryService creates an AdvisoryService. A non-positive historyLimit
// falls back to DefaultHistoryLimit.
func NewAdvisoryService(users domain.UserRepository, history domain.HistoryRepository, table *domain.AQITable, historyLimit int, logger logging.Logger) *AdvisoryService {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &AdvisoryService{
		users:        users,
		history:      history,
		table:        table,
		historyLimit: historyLimit,
		logger:       logger,
		now:          time.Now,
	}
}

// WithClock replaces the timestamp source.
func (s *AdvisoryService) WithClock(now func() time.Time) *AdvisoryService {
	s.now = now
	return s
}

// Reading returns the table value for month without touching any user state.
func (s *AdvisoryService) Reading(month int) (domain.AQIReading, error) {
	v, err := s.table.Lookup(month)
	if err != nil {
		return domain.AQIReading{}, err
	}
	return domain.AQIReading{MonthIndex: month, Value: v}, nil
}

// GetAdvisory resolves advice for username and month and records the request.
// The user is checked before the month, so an unknown user with a bad month
// gets ErrUserNotFound.
func (s *AdvisoryService) GetAdvisory(ctx context.Context, username string, month int) (*Advisory, error) {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}

	aqi, err := s.table.Lookup(month)
	if err != nil {
		return nil, err
	}

	band := domain.Classify(aqi)
	advice := domain.Resolve(band, user.Category)

	id, err := s.history.AppendHistory(ctx, user.ID, month, aqi, s.now().UTC())
	if err != nil {
		s.logger.Error(ctx, "history append failed", "user_id", user.ID, "month", month, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	s.logger.Debug(ctx, "advisory resolved",
		"user_id", user.ID, "entry_id", id, "month", month, "aqi", aqi, "band", band.String())

	return &Advisory{
		MonthIndex: month,
		AQIValue:   aqi,
		Band:       band,
		Advice:     advice,
	}, nil
}

// History returns the user's most recent advisory requests, newest first.
func (s *AdvisoryService) History(ctx context.Context, username string) ([]domain.HistoryEntry, error) {
	user, err := s.lookupUser(ctx, username)
	if err != nil {
		return nil, err
	}
	entries, err := s.history.ListRecentHistory(ctx, user.ID, s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("list history for user %d: %w", user.ID, err)
	}
	if len(entries) > s.historyLimit {
		entries = entries[:s.historyLimit]
	}
	return entries, nil
}

func (s *AdvisoryService) lookupUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("lookup user %s: %w", username, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}
