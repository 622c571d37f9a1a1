package accrual

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/timeentry"
	"github.com/jobflow/jobflow-backend/internal/user"
	"github.com/jobflow/jobflow-backend/internal/workpattern"
)

type UserSource interface {
	GetByID(ctx context.Context, id int) (user.User, error)
	ListActive(ctx context.Context) ([]user.User, error)
}

type PatternSource interface {
	Get(ctx context.Context, userID int) (workpattern.Pattern, error)
}

// EntrySource yields the approved time entries, the only ones that count.
type EntrySource interface {
	ApprovedEntries(ctx context.Context, userID int, per period.Period) ([]timeentry.Entry, error)
}

type Service struct {
	repo         Repository
	users        UserSource
	patterns     PatternSource
	entries      EntrySource
	overtimeRate float64
	log          *zap.SugaredLogger
	now          func() time.Time
}

func NewService(repo Repository, users UserSource, patterns PatternSource, entries EntrySource, overtimeRate float64, log *zap.SugaredLogger) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		patterns:     patterns,
		entries:      entries,
		overtimeRate: overtimeRate,
		log:          log.Named("accrual"),
		now:          time.Now,
	}
}

// RunResult reports a RunAll pass.
type RunResult struct {
	Period    string `json:"period"`
	Processed int    `json:"processed"`
	Failed    []int  `json:"failed"`
}

func (s *Service) input(ctx context.Context, userID int, per period.Period) (Input, workpattern.Pattern, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Input{}, workpattern.Pattern{}, err
	}
	pattern, err := s.patterns.Get(ctx, userID)
	if err != nil {
		return Input{}, workpattern.Pattern{}, err
	}
	approved, err := s.entries.ApprovedEntries(ctx, userID, per)
	if err != nil {
		return Input{}, workpattern.Pattern{}, err
	}

	entries := make([]Entry, 0, len(approved))
	for _, e := range approved {
		d, err := period.ParseDate(e.Date)
		if err != nil {
			return Input{}, workpattern.Pattern{}, fmt.Errorf("time entry %d: %w", e.ID, err)
		}
		entries = append(entries, Entry{Date: d, Hours: e.Hours})
	}

	weekly := u.WeeklyHours
	if weekly == 0 {
		weekly = pattern.WeeklyHours()
	}
	return Input{
		UserID:       userID,
		ContractType: u.ContractType,
		WeeklyHours:  weekly,
		Entries:      entries,
		Plan:         pattern,
		Period:       per,
		OvertimeRate: s.overtimeRate,
	}, pattern, nil
}

// Summarize computes the figures of a period without persisting them.
func (s *Service) Summarize(ctx context.Context, userID int, per period.Period) (Summary, error) {
	in, _, err := s.input(ctx, userID, per)
	if err != nil {
		return Summary{}, err
	}
	return Calculate(in)
}

func (s *Service) WeeklyOvertime(ctx context.Context, userID int, per period.Period) ([]WeekBalance, error) {
	in, pattern, err := s.input(ctx, userID, per)
	if err != nil {
		return nil, err
	}
	return WeeklyBalances(in.Entries, pattern, per), nil
}

// Accrue computes and stores the record of a period.
func (s *Service) Accrue(ctx context.Context, userID int, per period.Period) (Record, error) {
	sum, err := s.Summarize(ctx, userID, per)
	if err != nil {
		return Record{}, err
	}
	return s.repo.Save(ctx, Record{
		UserID:         userID,
		PeriodStart:    sum.From,
		PeriodEnd:      sum.To,
		ContractType:   sum.ContractType,
		WorkedHours:    sum.WorkedHours,
		PlannedHours:   sum.PlannedHours,
		OvertimeHours:  sum.OvertimeHours,
		UndertimeHours: sum.UndertimeHours,
		VacationHours:  sum.VacationHours,
		CreatedAt:      s.now().UTC().Format(time.RFC3339),
	})
}

// RunAll accrues per for every active user. A failing user is logged and
// skipped.
func (s *Service) RunAll(ctx context.Context, per period.Period) (RunResult, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return RunResult{}, err
	}

	result := RunResult{Period: per.String(), Failed: []int{}}
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := s.Accrue(ctx, u.ID, per); err != nil {
			s.log.Warnw("accrual failed", "user_id", u.ID, "period", per.String(), "error", err)
			result.Failed = append(result.Failed, u.ID)
			continue
		}
		result.Processed++
	}

	s.log.Infow("accrual run finished", "period", per.String(), "processed", result.Processed, "failed", len(result.Failed))
	return result, nil
}

func (s *Service) Records(ctx context.Context, userID int) ([]Record, error) {
	return s.repo.ListByUser(ctx, userID)
}

// AccruedVacation is the vacation hours earned across all stored records.
func (s *Service) AccruedVacation(ctx context.Context, userID int) (float64, error) {
	return s.repo.TotalVacation(ctx, userID)
}
