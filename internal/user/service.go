package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// ListActive returns the employees that have not been deactivated.
func (s *Service) ListActive(ctx context.Context) ([]User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]User, 0, len(users))
	for _, u := range users {
		if u.Active {
			active = append(active, u)
		}
	}
	return active, nil
}

func (s *Service) ListByIDs(ctx context.Context, ids []int) ([]User, error) {
	return s.repo.ListByIDs(ctx, ids)
}

func (s *Service) GetByID(ctx context.Context, id int) (User, error) {
	if id <= 0 {
		return User{}, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Create adds an employee on behalf of an administrator.
func (s *Service) Create(ctx context.Context, user User) (User, error) {
	user = normalize(user)
	if user.Email == "" || user.FirstName == "" || user.LastName == "" {
		return User{}, fmt.Errorf("%w: email, firstName and lastName are required", apperr.ErrInvalidArgument)
	}
	if user.Role == "" {
		user.Role = RoleEmployee
	}
	if user.ContractType == "" {
		user.ContractType = ContractFixed
	}
	if err := validateEmployment(user); err != nil {
		return User{}, err
	}

	if user.Password != "" && !looksLikeBcrypt(user.Password) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.Password = string(hashed)
	}

	now := s.timestamp()
	user.Active = true
	user.CreatedAt = now
	user.UpdatedAt = now
	return s.repo.Create(ctx, user)
}

// Update replaces the administrative fields of an employee. Activation is
// only changed through SetActive.
func (s *Service) Update(ctx context.Context, id int, user User) (User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	user = normalize(user)
	user.Active = existing.Active
	if user.Email == "" {
		user.Email = existing.Email
	}
	if err := validateEmployment(user); err != nil {
		return User{}, err
	}
	if user.Password != "" && !looksLikeBcrypt(user.Password) {
		hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		user.Password = string(hashed)
	}
	user.UpdatedAt = s.timestamp()
	return s.repo.Update(ctx, id, user)
}

// SetActive toggles whether the employee can sign in and is scheduled.
func (s *Service) SetActive(ctx context.Context, id int, active bool) (User, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	existing.Active = active
	existing.Password = ""
	existing.UpdatedAt = s.timestamp()
	return s.repo.Update(ctx, id, existing)
}

func (s *Service) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Register(ctx context.Context, user User) (User, error) {
	user = normalize(user)
	if _, err := s.repo.GetByEmail(ctx, user.Email); err == nil {
		return User{}, ErrEmailExists
	} else if !errors.Is(err, ErrNotFound) {
		return User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}

	now := s.timestamp()
	user.Password = string(hashed)
	user.Role = RoleEmployee
	user.ContractType = ContractFixed
	user.Active = true
	user.CreatedAt = now
	user.UpdatedAt = now
	return s.repo.Create(ctx, user)
}

func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return User{}, ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	if !user.Active {
		return User{}, ErrInactive
	}

	return user, nil
}

func (s *Service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}

func normalize(user User) User {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.FirstName = strings.TrimSpace(user.FirstName)
	user.LastName = strings.TrimSpace(user.LastName)
	user.Phone = strings.TrimSpace(user.Phone)
	return user
}

func looksLikeBcrypt(value string) bool {
	return len(value) > 4 && value[0:2] == "$2"
}
