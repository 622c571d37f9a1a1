package timeentry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/period"
)

var ErrSelfApproval = apperr.New(apperr.Forbidden, "cannot decide on your own time entries")

// Input is the editable part of an entry.
type Input struct {
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	BreakMinutes int    `json:"breakMinutes"`
	Note         string `json:"note"`
}

// Actor is the authenticated caller of a mutating operation.
type Actor struct {
	UserID  int
	Manager bool
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) build(in Input) (Entry, error) {
	if _, err := period.ParseDate(in.Date); err != nil {
		return Entry{}, err
	}
	hours, err := ComputeHours(in.StartTime, in.EndTime, in.BreakMinutes)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		Date:         in.Date,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		BreakMinutes: in.BreakMinutes,
		Hours:        hours,
		Note:         strings.TrimSpace(in.Note),
	}, nil
}

func (s *Service) Create(ctx context.Context, userID int, in Input) (Entry, error) {
	entry, err := s.build(in)
	if err != nil {
		return Entry{}, err
	}
	now := s.timestamp()
	entry.UserID = userID
	entry.Status = StatusPending
	entry.CreatedAt = now
	entry.UpdatedAt = now
	return s.repo.Create(ctx, entry)
}

func (s *Service) Get(ctx context.Context, id int) (Entry, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Entry, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, filter.Status)
	}
	return s.repo.List(ctx, filter)
}

// Update edits a pending entry of the caller, or of anyone for managers.
func (s *Service) Update(ctx context.Context, actor Actor, id int, in Input) (Entry, error) {
	existing, err := s.owned(ctx, actor, id)
	if err != nil {
		return Entry{}, err
	}
	entry, err := s.build(in)
	if err != nil {
		return Entry{}, err
	}
	entry.Status = existing.Status
	entry.UpdatedAt = s.timestamp()
	return s.repo.Update(ctx, id, entry)
}

func (s *Service) Delete(ctx context.Context, actor Actor, id int) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) owned(ctx context.Context, actor Actor, id int) (Entry, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if existing.UserID != actor.UserID && !actor.Manager {
		return Entry{}, apperr.ErrForbidden
	}
	if existing.Status != StatusPending {
		return Entry{}, ErrNotPending
	}
	return existing, nil
}

func (s *Service) Approve(ctx context.Context, id, approverID int) (Entry, error) {
	return s.decide(ctx, id, approverID, StatusApproved)
}

func (s *Service) Reject(ctx context.Context, id, approverID int) (Entry, error) {
	return s.decide(ctx, id, approverID, StatusRejected)
}

func (s *Service) decide(ctx context.Context, id, approverID int, status Status) (Entry, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	if existing.UserID == approverID {
		return Entry{}, ErrSelfApproval
	}
	changed, err := s.repo.SetStatus(ctx, []int{id}, status, approverID, s.timestamp())
	if err != nil {
		return Entry{}, err
	}
	if changed == 0 {
		return Entry{}, ErrNotPending
	}
	return s.repo.GetByID(ctx, id)
}

// BulkApprove approves every pending entry among ids that does not belong to
// the approver. Unknown ids are ignored.
func (s *Service) BulkApprove(ctx context.Context, ids []int, approverID int) (int, error) {
	eligible := make([]int, 0, len(ids))
	for _, id := range ids {
		e, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return 0, err
		}
		if e.UserID == approverID || e.Status != StatusPending {
			continue
		}
		eligible = append(eligible, id)
	}
	return s.repo.SetStatus(ctx, eligible, StatusApproved, approverID, s.timestamp())
}

// Approvals aggregates entries of the period by user and status. userID 0
// covers everyone.
func (s *Service) Approvals(ctx context.Context, per period.Period, userID int) ([]ApprovalSummary, error) {
	entries, err := s.repo.List(ctx, Filter{
		UserID: userID,
		From:   per.From.Format(period.DateLayout),
		To:     per.To.Format(period.DateLayout),
	})
	if err != nil {
		return nil, err
	}
	return Aggregate(entries), nil
}

// ApprovedEntries returns the approved entries of a user inside per.
func (s *Service) ApprovedEntries(ctx context.Context, userID int, per period.Period) ([]Entry, error) {
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
