package contract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/export"
	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/user"
)

var ErrNotSigner = apperr.New(apperr.Forbidden, "only the employee of a contract can sign it")

type UserLookup interface {
	GetByID(ctx context.Context, id int) (user.User, error)
}

// GenerateInput describes a new contract. Contract type and weekly hours
// default to the employee's current employment terms.
type GenerateInput struct {
	UserID       int      `json:"userId"`
	Title        string   `json:"title"`
	ContractType string   `json:"contractType"`
	WeeklyHours  *float64 `json:"weeklyHours"`
	HourlyWage   float64  `json:"hourlyWage"`
	StartDate    string   `json:"startDate"`
	EndDate      string   `json:"endDate"`
	Template     string   `json:"template"`
}

type Service struct {
	repo  Repository
	users UserLookup
	log   *zap.SugaredLogger
	now   func() time.Time
}

func NewService(repo Repository, users UserLookup, log *zap.SugaredLogger) *Service {
	return &Service{repo: repo, users: users, log: log.Named("contract"), now: time.Now}
}

func (s *Service) Generate(ctx context.Context, in GenerateInput) (Contract, error) {
	employee, err := s.users.GetByID(ctx, in.UserID)
	if err != nil {
		return Contract{}, err
	}

	start, err := period.ParseDate(in.StartDate)
	if err != nil {
		return Contract{}, err
	}
	if in.EndDate != "" {
		end, err := period.ParseDate(in.EndDate)
		if err != nil {
			return Contract{}, err
		}
		if end.Before(start) {
			return Contract{}, period.ErrInvalidRange
		}
	}
	if in.HourlyWage < 0 {
		return Contract{}, fmt.Errorf("%w: hourly wage cannot be negative", apperr.ErrInvalidArgument)
	}

	contractType := user.ContractType(in.ContractType)
	if contractType == "" {
		contractType = employee.ContractType
	}
	if !contractType.Valid() {
		return Contract{}, fmt.Errorf("%w: unknown contract type %q", apperr.ErrInvalidArgument, contractType)
	}
	weekly := employee.WeeklyHours
	if in.WeeklyHours != nil {
		weekly = *in.WeeklyHours
	}
	if weekly < 0 || weekly > user.MaxWeeklyHours {
		return Contract{}, fmt.Errorf("%w: weekly hours must be between 0 and %d", apperr.ErrInvalidArgument, user.MaxWeeklyHours)
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = "Employment contract " + employee.FullName()
	}

	body, err := Render(in.Template, TemplateData{
		Title:        title,
		EmployeeName: employee.FullName(),
		Email:        employee.Email,
		Position:     employee.Position,
		Department:   employee.Department,
		ContractType: string(contractType),
		WeeklyHours:  weekly,
		HourlyWage:   in.HourlyWage,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
	})
	if err != nil {
		return Contract{}, err
	}

	ts := s.timestamp()
	created, err := s.repo.Create(ctx, Contract{
		UserID:       employee.ID,
		Title:        title,
		ContractType: string(contractType),
		WeeklyHours:  weekly,
		HourlyWage:   in.HourlyWage,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Body:         body,
		Status:       StatusDraft,
		DocumentKey:  uuid.NewString(),
		CreatedAt:    ts,
		UpdatedAt:    ts,
	})
	if err != nil {
		return Contract{}, err
	}

	s.log.Infow("contract generated", "contract_id", created.ID, "user_id", created.UserID)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int) (Contract, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, userID int) ([]Contract, error) {
	return s.repo.List(ctx, userID)
}

// Send hands a draft to the employee for signing.
func (s *Service) Send(ctx context.Context, id int) (Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	c.Status = StatusSent
	c.SentAt = s.timestamp()
	return s.transition(ctx, c)
}

// Sign records the employee's electronic signature on a sent contract.
func (s *Service) Sign(ctx context.Context, id, signerID int, signerName, signerIP string) (Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	if c.UserID != signerID {
		return Contract{}, ErrNotSigner
	}
	signerName = strings.TrimSpace(signerName)
	if signerName == "" {
		return Contract{}, fmt.Errorf("%w: signer name is required", apperr.ErrInvalidArgument)
	}

	c.Status = StatusSigned
	c.SignedAt = s.timestamp()
	c.SignerName = signerName
	c.SignerIP = signerIP
	return s.transition(ctx, c)
}

// Void withdraws a contract that has not been signed.
func (s *Service) Void(ctx context.Context, id int) (Contract, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Contract{}, err
	}
	c.Status = StatusVoid
	return s.transition(ctx, c)
}

func (s *Service) transition(ctx context.Context, c Contract) (Contract, error) {
	c.UpdatedAt = s.timestamp()
	updated, err := s.repo.Transition(ctx, c, sourcesOf(c.Status))
	if err != nil {
		return Contract{}, err
	}
	s.log.Infow("contract status changed", "contract_id", updated.ID, "status", updated.Status)
	return updated, nil
}

// WritePDF renders the contract with its signature block.
func (s *Service) WritePDF(ctx context.Context, w io.Writer, c Contract) error {
	employee, err := s.users.GetByID(ctx, c.UserID)
	if err != nil {
		return err
	}
	return export.ContractPDF(w, export.ContractDocument{
		Title:       c.Title,
		Employee:    employee.FullName(),
		Body:        c.Body,
		Status:      string(c.Status),
		DocumentKey: c.DocumentKey,
		SignerName:  c.SignerName,
		SignedAt:    c.SignedAt,
		SignerIP:    c.SignerIP,
	})
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
