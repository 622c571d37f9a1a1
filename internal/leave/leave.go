// Package leave handles vacation, sick and day-off requests and the vacation
// balance they draw from.
package leave

import (
	"math"

	"github.com/jobflow/jobflow-backend/internal/period"
)

type Type string

const (
	TypeVacation Type = "vacation"
	TypeSick     Type = "sick"
	TypeDayOff   Type = "day_off"
)

func (t Type) Valid() bool {
	return t == TypeVacation || t == TypeSick || t == TypeDayOff
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Active reports whether the request still claims its days.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusApproved
}

type Request struct {
	ID        int     `json:"leaveId"`
	UserID    int     `json:"userId"`
	Type      Type    `json:"type"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
	Hours     float64 `json:"hours"`
	Status    Status  `json:"status"`
	Note      string  `json:"note,omitempty"`
	DecidedBy *int    `json:"decidedBy,omitempty"`
	CreatedAt string  `json:"createdAt,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

// Period returns the inclusive days of the request.
func (r Request) Period() (period.Period, error) {
	return period.Parse(r.StartDate, r.EndDate)
}

// Balance is the vacation account of one employee.
type Balance struct {
	UserID    int     `json:"userId"`
	Accrued   float64 `json:"accruedHours"`
	Taken     float64 `json:"takenHours"`
	Pending   float64 `json:"pendingHours"`
	Available float64 `json:"availableHours"`
}

// NewBalance derives taken and pending hours from the vacation requests.
func NewBalance(userID int, accrued float64, requests []Request) Balance {
	b := Balance{UserID: userID, Accrued: round2(accrued)}
	for _, r := range requests {
		if r.Type != TypeVacation {
			continue
		}
		switch r.Status {
		case StatusApproved:
			b.Taken += r.Hours
		case StatusPending:
			b.Pending += r.Hours
		}
	}
	b.Taken = round2(b.Taken)
	b.Pending = round2(b.Pending)
	b.Available = round2(b.Accrued - b.Taken - b.Pending)
	return b
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
