package schedule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/leave"
	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/timeentry"
	"github.com/jobflow/jobflow-backend/internal/user"
	"github.com/jobflow/jobflow-backend/internal/workpattern"
)

type UserSource interface {
	ListActive(ctx context.Context) ([]user.User, error)
	ListByIDs(ctx context.Context, ids []int) ([]user.User, error)
}

type PatternSource interface {
	Get(ctx context.Context, userID int) (workpattern.Pattern, error)
}

type LeaveSource interface {
	ApprovedLeave(ctx context.Context, userID int, per period.Period) ([]leave.Request, error)
}

// Input is a manually planned shift.
type Input struct {
	UserID    int    `json:"userId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Note      string `json:"note"`
}

// GenerateRequest selects the period and employees to plan. No user ids means
// every active employee.
type GenerateRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	UserIDs []int  `json:"userIds"`
	Replace bool   `json:"replace"`
}

type GenerateResult struct {
	Period  string  `json:"period"`
	Removed int     `json:"removed"`
	Created []Shift `json:"created"`
}

type Service struct {
	repo         Repository
	users        UserSource
	patterns     PatternSource
	leaves       LeaveSource
	defaultStart string
	log          *zap.SugaredLogger
	now          func() time.Time
}

func NewService(repo Repository, users UserSource, patterns PatternSource, leaves LeaveSource, defaultStart string, log *zap.SugaredLogger) *Service {
	return &Service{
		repo:         repo,
		users:        users,
		patterns:     patterns,
		leaves:       leaves,
		defaultStart: defaultStart,
		log:          log.Named("schedule"),
		now:          time.Now,
	}
}

func (s *Service) build(in Input) (Shift, error) {
	if in.UserID <= 0 {
		return Shift{}, fmt.Errorf("%w: userId is required", apperr.ErrInvalidArgument)
	}
	if _, err := period.ParseDate(in.Date); err != nil {
		return Shift{}, err
	}
	hours, err := timeentry.ComputeHours(in.StartTime, in.EndTime, 0)
	if err != nil {
		return Shift{}, err
	}
	return Shift{
		UserID:    in.UserID,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Hours:     hours,
		Source:    SourceManual,
		Note:      strings.TrimSpace(in.Note),
	}, nil
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Shift, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int) (Shift, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (Shift, error) {
	shift, err := s.build(in)
	if err != nil {
		return Shift{}, err
	}
	shift.CreatedAt = s.now().UTC().Format(time.RFC3339)
	return s.repo.Create(ctx, shift)
}

// Update edits a shift; edited shifts count as manual from then on.
func (s *Service) Update(ctx context.Context, id int, in Input) (Shift, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Shift{}, err
	}
	in.UserID = existing.UserID
	shift, err := s.build(in)
	if err != nil {
		return Shift{}, err
	}
	return s.repo.Update(ctx, id, shift)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

// Generate plans shifts for the period from each employee's work pattern,
// leaving out days with approved leave or an existing shift.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error) {
	per, err := period.Parse(req.From, req.To)
	if err != nil {
		return GenerateResult{}, err
	}

	var users []user.User
	if len(req.UserIDs) == 0 {
		users, err = s.users.ListActive(ctx)
	} else {
		users, err = s.users.ListByIDs(ctx, req.UserIDs)
	}
	if err != nil {
		return GenerateResult{}, err
	}

	ids := make([]int, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}

	plans := make([]Plan, 0, len(users))
	for _, u := range users {
		plan, err := s.plan(ctx, u.ID, per, req.Replace)
		if err != nil {
			return GenerateResult{}, fmt.Errorf("plan user %d: %w", u.ID, err)
		}
		plans = append(plans, plan)
	}

	shifts, err := Generate(per, plans, s.defaultStart)
	if err != nil {
		return GenerateResult{}, err
	}
	createdAt := s.now().UTC().Format(time.RFC3339)
	for i := range shifts {
		shifts[i].CreatedAt = createdAt
	}

	result := GenerateResult{Period: per.String()}
	if req.Replace {
		from, to := per.From.Format(period.DateLayout), per.To.Format(period.DateLayout)
		result.Removed, result.Created, err = s.repo.ReplaceAuto(ctx, ids, from, to, shifts)
	} else {
		result.Created, err = s.repo.CreateMany(ctx, shifts)
	}
	if err != nil {
		return GenerateResult{}, err
	}

	s.log.Infow("schedule generated", "period", result.Period, "users", len(users), "created", len(result.Created), "removed", result.Removed)
	return result, nil
}

// plan collects the pattern and blocked days of one user. With replace set,
// generated shifts do not block their day since they are about to be removed.
func (s *Service) plan(ctx context.Context, userID int, per period.Period, replace bool) (Plan, error) {
	pattern, err := s.patterns.Get(ctx, userID)
	if err != nil {
		return Plan{}, err
	}

	blocked := make(map[string]bool)
	leaves, err := s.leaves.ApprovedLeave(ctx, userID, per)
	if err != nil {
		return Plan{}, err
	}
	for _, l := range leaves {
		lp, err := l.Period()
		if err != nil {
			return Plan{}, err
		}
		lp.Each(func(d time.Time) {
			blocked[d.Format(period.DateLayout)] = true
		})
	}

	existing, err := s.repo.List(ctx, Filter{
		UserID: userID,
		From:   per.From.Format(period.DateLayout),
		To:     per.To.Format(period.DateLayout),
	})
	if err != nil {
		return Plan{}, err
	}
	for _, sh := range existing {
		if replace && sh.Source == SourceAuto {
			continue
		}
		blocked[sh.Date] = true
	}

	return Plan{UserID: userID, Pattern: pattern, Blocked: blocked}, nil
}
