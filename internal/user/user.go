package user

import (
	"fmt"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// ContractType decides which vacation accrual rule applies to an employee.
type ContractType string

const (
	ContractFixed ContractType = "fixed"
	ContractFlex  ContractType = "flex"
)

// MaxWeeklyHours caps the contracted hours of a single employee.
const MaxWeeklyHours = 80

type User struct {
	ID           int          `json:"userId"`
	Email        string       `json:"email"`
	Password     string       `json:"password,omitempty"`
	FirstName    string       `json:"firstName"`
	LastName     string       `json:"lastName"`
	Phone        string       `json:"phone"`
	Role         Role         `json:"role"`
	ContractType ContractType `json:"contractType"`
	WeeklyHours  float64      `json:"weeklyHours"`
	Department   string       `json:"department,omitempty"`
	Position     string       `json:"position,omitempty"`
	HiredAt      string       `json:"hiredAt,omitempty"`
	Active       bool         `json:"active"`
	CreatedAt    string       `json:"createdAt,omitempty"`
	UpdatedAt    string       `json:"updatedAt,omitempty"`
}

func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// IsManager reports whether the user may act on other employees' records.
func (u User) IsManager() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleManager || r == RoleEmployee
}

func (c ContractType) Valid() bool {
	return c == ContractFixed || c == ContractFlex
}

func validateEmployment(u User) error {
	if !u.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", apperr.ErrInvalidArgument, u.Role)
	}
	if !u.ContractType.Valid() {
		return fmt.Errorf("%w: unknown contract type %q", apperr.ErrInvalidArgument, u.ContractType)
	}
	if u.WeeklyHours < 0 || u.WeeklyHours > MaxWeeklyHours {
		return fmt.Errorf("%w: weekly hours must be between 0 and %d", apperr.ErrInvalidArgument, MaxWeeklyHours)
	}
	return nil
}
