// Package workpattern stores the weekly template of planned hours per
// employee, the baseline overtime and schedules are measured against.
package workpattern

import (
	"fmt"
	"math"
	"time"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/period"
)

// Weekdays lists the keys of Pattern.Days in calendar order.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayPlan is the planned work of one weekday.
type DayPlan struct {
	Hours float64 `json:"hours"`
	Start string  `json:"start,omitempty"`
}

type Pattern struct {
	ID        int                `json:"patternId"`
	UserID    int                `json:"userId"`
	Days      map[string]DayPlan `json:"days"`
	ValidFrom string             `json:"validFrom,omitempty"`
	UpdatedAt string             `json:"updatedAt,omitempty"`
}

// Default spreads weeklyHours evenly over Monday to Friday. It stands in for
// employees who have no stored pattern.
func Default(userID int, weeklyHours float64) Pattern {
	daily := math.Round(weeklyHours/5*100) / 100
	days := make(map[string]DayPlan, len(Weekdays))
	for i, day := range Weekdays {
		if i < 5 {
			days[day] = DayPlan{Hours: daily}
		} else {
			days[day] = DayPlan{}
		}
	}
	return Pattern{UserID: userID, Days: days}
}

func key(d time.Weekday) string {
	// time.Weekday starts on Sunday.
	return Weekdays[(int(d)+6)%7]
}

// HoursOn returns the planned hours for the weekday of d.
func (p Pattern) HoursOn(d time.Time) float64 {
	return p.Days[key(d.Weekday())].Hours
}

// StartOn returns the planned start time for the weekday of d, or "".
func (p Pattern) StartOn(d time.Time) string {
	return p.Days[key(d.Weekday())].Start
}

func (p Pattern) WeeklyHours() float64 {
	total := 0.0
	for _, day := range Weekdays {
		total += p.Days[day].Hours
	}
	return total
}

// PlannedHours sums the pattern hours over every calendar day of per.
func (p Pattern) PlannedHours(per period.Period) float64 {
	total := 0.0
	per.Each(func(d time.Time) {
		total += p.HoursOn(d)
	})
	return total
}

func (p Pattern) Validate() error {
	for name, plan := range p.Days {
		if !isWeekday(name) {
			return fmt.Errorf("%w: unknown weekday %q", apperr.ErrInvalidArgument, name)
		}
		if plan.Hours < 0 || plan.Hours > 24 {
			return fmt.Errorf("%w: %s hours must be between 0 and 24", apperr.ErrInvalidArgument, name)
		}
		if plan.Start != "" {
			if _, err := period.ParseClock(plan.Start); err != nil {
				return err
			}
		}
	}
	if p.ValidFrom != "" {
		if _, err := period.ParseDate(p.ValidFrom); err != nil {
			return err
		}
	}
	return nil
}

func isWeekday(name string) bool {
	for _, day := range Weekdays {
		if day == name {
			return true
		}
	}
	return false
}
