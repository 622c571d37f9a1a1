package leave

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/period"
)

var ErrSelfDecision = apperr.New(apperr.Forbidden, "cannot decide on your own leave request")

// Planner supplies the default hours of a request.
type Planner interface {
	PlannedHours(ctx context.Context, userID int, per period.Period) (float64, error)
}

// AccrualSource supplies the vacation hours earned so far.
type AccrualSource interface {
	AccruedVacation(ctx context.Context, userID int) (float64, error)
}

// Input is a new leave request. Hours defaults to the planned hours of the
// range.
type Input struct {
	Type      Type     `json:"type"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Hours     *float64 `json:"hours,omitempty"`
	Note      string   `json:"note"`
}

type Service struct {
	repo     Repository
	planner  Planner
	accruals AccrualSource
	now      func() time.Time
}

func NewService(repo Repository, planner Planner, accruals AccrualSource) *Service {
	return &Service{repo: repo, planner: planner, accruals: accruals, now: time.Now}
}

func (s *Service) Request(ctx context.Context, userID int, in Input) (Request, error) {
	if !in.Type.Valid() {
		return Request{}, fmt.Errorf("%w: unknown leave type %q", apperr.ErrInvalidArgument, in.Type)
	}
	per, err := period.Parse(in.StartDate, in.EndDate)
	if err != nil {
		return Request{}, err
	}

	var hours float64
	if in.Hours != nil {
		hours = *in.Hours
	} else {
		hours, err = s.planner.PlannedHours(ctx, userID, per)
		if err != nil {
			return Request{}, err
		}
	}
	if hours <= 0 {
		return Request{}, fmt.Errorf("%w: no hours to take off in %s", apperr.ErrInvalidArgument, per)
	}

	existing, err := s.repo.List(ctx, Filter{UserID: userID, From: in.StartDate, To: in.EndDate})
	if err != nil {
		return Request{}, err
	}
	for _, r := range existing {
		if r.Status.Active() {
			return Request{}, fmt.Errorf("%w: request %d", ErrOverlap, r.ID)
		}
	}

	if in.Type == TypeVacation {
		balance, err := s.Balance(ctx, userID)
		if err != nil {
			return Request{}, err
		}
		if round2(hours) > balance.Available {
			return Request{}, fmt.Errorf("%w: requested %.2f, available %.2f", ErrInsufficientBalance, hours, balance.Available)
		}
	}

	now := s.timestamp()
	return s.repo.Create(ctx, Request{
		UserID:    userID,
		Type:      in.Type,
		StartDate: per.From.Format(period.DateLayout),
		EndDate:   per.To.Format(period.DateLayout),
		Hours:     round2(hours),
		Status:    StatusPending,
		Note:      strings.TrimSpace(in.Note),
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *Service) Get(ctx context.Context, id int) (Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Request, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Approve(ctx context.Context, id, deciderID int) (Request, error) {
	return s.decide(ctx, id, deciderID, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id, deciderID int) (Request, error) {
	return s.decide(ctx, id, deciderID, StatusRejected)
}

func (s *Service) decide(ctx context.Context, id, deciderID int, status Status) (Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.UserID == deciderID {
		return Request{}, ErrSelfDecision
	}
	return s.repo.UpdateStatus(ctx, id, status, &deciderID, s.timestamp())
}

// Cancel withdraws a pending request of its owner.
func (s *Service) Cancel(ctx context.Context, id, userID int) (Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if req.UserID != userID {
		return Request{}, apperr.ErrForbidden
	}
	return s.repo.UpdateStatus(ctx, id, StatusCancelled, nil, s.timestamp())
}

func (s *Service) Balance(ctx context.Context, userID int) (Balance, error) {
	accrued, err := s.accruals.AccruedVacation(ctx, userID)
	if err != nil {
		return Balance{}, err
	}
	requests, err := s.repo.List(ctx, Filter{UserID: userID})
	if err != nil {
		return Balance{}, err
	}
	return NewBalance(userID, accrued, requests), nil
}

// ApprovedLeave returns the approved requests of a user overlapping per.
func (s *Service) ApprovedLeave(ctx context.Context, userID int, per period.Period) ([]Request, error) {
	return s.repo.List(ctx, Filter{
		UserID: userID,
		From:   per.From.Format(period.DateLayout),
		To:     per.To.Format(period.DateLayout),
		Status: StatusApproved,
	})
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
