package workpattern

import (
	"context"
	"errors"
	"time"

	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/user"
)

// UserLookup resolves the contract hours used for the fallback pattern.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (user.User, error)
}

type Service struct {
	repo  Repository
	users UserLookup
	now   func() time.Time
}

func NewService(repo Repository, users UserLookup) *Service {
	return &Service{repo: repo, users: users, now: time.Now}
}

// Get returns the stored pattern of the user, or a Monday to Friday pattern
// derived from their weekly contract hours when none is stored.
func (s *Service) Get(ctx context.Context, userID int) (Pattern, error) {
	p, err := s.repo.GetByUser(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Pattern{}, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Pattern{}, err
	}
	return Default(userID, u.WeeklyHours), nil
}

// Put replaces the pattern of the user. Weekdays missing from days are
// planned as free.
func (s *Service) Put(ctx context.Context, userID int, pattern Pattern) (Pattern, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return Pattern{}, err
	}
	if err := pattern.Validate(); err != nil {
		return Pattern{}, err
	}

	days := make(map[string]DayPlan, len(Weekdays))
	for _, day := range Weekdays {
		days[day] = pattern.Days[day]
	}
	pattern.Days = days
	pattern.UserID = userID
	pattern.UpdatedAt = s.now().UTC().Format(time.RFC3339)
	return s.repo.Upsert(ctx, pattern)
}

func (s *Service) PlannedHours(ctx context.Context, userID int, per period.Period) (float64, error) {
	p, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return p.PlannedHours(per), nil
}
