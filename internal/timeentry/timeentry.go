// Package timeentry records worked time and its approval by managers.
package timeentry

import (
	"fmt"
	"math"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/period"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

type Entry struct {
	ID           int     `json:"entryId"`
	UserID       int     `json:"userId"`
	Date         string  `json:"date"`
	StartTime    string  `json:"startTime"`
	EndTime      string  `json:"endTime"`
	BreakMinutes int     `json:"breakMinutes"`
	Hours        float64 `json:"hours"`
	Status       Status  `json:"status"`
	Note         string  `json:"note,omitempty"`
	ApprovedBy   *int    `json:"approvedBy,omitempty"`
	CreatedAt    string  `json:"createdAt,omitempty"`
	UpdatedAt    string  `json:"updatedAt,omitempty"`
}

// Filter narrows List. Zero values match everything.
type Filter struct {
	UserID int
	From   string
	To     string
	Status Status
}

// ComputeHours returns the worked hours between start and end minus the
// break. An end at or before start is read as the next day.
func ComputeHours(start, end string, breakMinutes int) (float64, error) {
	s, err := period.ParseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := period.ParseClock(end)
	if err != nil {
		return 0, err
	}
	if breakMinutes < 0 {
		return 0, fmt.Errorf("%w: break cannot be negative", apperr.ErrInvalidArgument)
	}

	span := e - s
	if span <= 0 {
		span += 24 * 60
	}
	if breakMinutes >= span {
		return 0, fmt.Errorf("%w: break must be shorter than the shift", apperr.ErrInvalidArgument)
	}
	return math.Round(float64(span-breakMinutes)/60*100) / 100, nil
}

// ApprovalSummary aggregates the entries of one user by status.
type ApprovalSummary struct {
	UserID        int     `json:"userId"`
	PendingHours  float64 `json:"pendingHours"`
	ApprovedHours float64 `json:"approvedHours"`
	RejectedHours float64 `json:"rejectedHours"`
	PendingCount  int     `json:"pendingCount"`
	ApprovedCount int     `json:"approvedCount"`
	RejectedCount int     `json:"rejectedCount"`
}

// Aggregate builds one summary per user, in order of first appearance.
func Aggregate(entries []Entry) []ApprovalSummary {
	index := make(map[int]int)
	out := make([]ApprovalSummary, 0)
	for _, e := range entries {
		i, ok := index[e.UserID]
		if !ok {
			i = len(out)
			index[e.UserID] = i
			out = append(out, ApprovalSummary{UserID: e.UserID})
		}
		s := &out[i]
		switch e.Status {
		case StatusPending:
			s.PendingHours += e.Hours
			s.PendingCount++
		case StatusApproved:
			s.ApprovedHours += e.Hours
			s.ApprovedCount++
		case StatusRejected:
			s.RejectedHours += e.Hours
			s.RejectedCount++
		}
	}
	for i := range out {
		out[i].PendingHours = round2(out[i].PendingHours)
		out[i].ApprovedHours = round2(out[i].ApprovedHours)
		out[i].RejectedHours = round2(out[i].RejectedHours)
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
