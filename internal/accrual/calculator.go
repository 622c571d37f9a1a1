// Package accrual computes worked and planned hours, overtime, and vacation
// accrual for an employee over a period.
//
// The calculator functions are pure. Service wires them to users, work
// patterns and approved time entries, and persists the per-period result.
package accrual

import (
	"fmt"
	"math"
	"time"

	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/user"
)

const (
	// FlexAccrualRate is the vacation hours earned per hour worked on a flex contract.
	FlexAccrualRate = 0.08
	// FixedVacationWeeks is the yearly entitlement of fixed contracts in contract weeks.
	FixedVacationWeeks = 4
)

// Entry is one worked record as the calculator sees it.
type Entry struct {
	Date  time.Time
	Hours float64
}

// Planner yields the planned hours of a calendar day.
type Planner interface {
	HoursOn(day time.Time) float64
}

// Balance compares worked against planned hours.
type Balance struct {
	Worked    float64
	Planned   float64
	Overtime  float64
	Undertime float64
}

// Compare rounds both sides to two decimals before taking the difference, so
// the reported figures always add up.
func Compare(worked, planned float64) Balance {
	w, p := round2(worked), round2(planned)
	return Balance{
		Worked:    w,
		Planned:   p,
		Overtime:  round2(math.Max(0, w-p)),
		Undertime: round2(math.Max(0, p-w)),
	}
}

// WorkedHours sums the hours of the entries dated inside per.
func WorkedHours(entries []Entry, per period.Period) float64 {
	total := 0.0
	for _, e := range entries {
		if per.Contains(e.Date) {
			total += e.Hours
		}
	}
	return total
}

// PlannedHours sums the planner's hours over every day of per.
func PlannedHours(plan Planner, per period.Period) float64 {
	total := 0.0
	per.Each(func(d time.Time) {
		total += plan.HoursOn(d)
	})
	return total
}

// AnnualEntitlement is the vacation hours a fixed contract earns in a full year.
func AnnualEntitlement(weeklyHours float64) float64 {
	return FixedVacationWeeks * weeklyHours
}

// VacationAccrual returns the vacation hours earned in per. Flex contracts
// earn a share of hours worked; fixed contracts earn the annual entitlement
// pro rata to the days of each calendar year the period covers.
func VacationAccrual(ct user.ContractType, worked, weeklyHours float64, per period.Period) (float64, error) {
	switch ct {
	case user.ContractFlex:
		return round2(worked * FlexAccrualRate), nil
	case user.ContractFixed:
		entitlement := AnnualEntitlement(weeklyHours)
		total := 0.0
		for y := per.From.Year(); y <= per.To.Year(); y++ {
			total += entitlement * float64(daysInYear(per, y)) / float64(period.DaysInYear(y))
		}
		return round2(total), nil
	default:
		return 0, fmt.Errorf("unknown contract type %q", ct)
	}
}

// daysInYear counts the days of per that fall in year.
func daysInYear(per period.Period, year int) int {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	if per.From.After(from) {
		from = per.From
	}
	if per.To.Before(to) {
		to = per.To
	}
	if to.Before(from) {
		return 0
	}
	return period.Period{From: from, To: to}.Days()
}

// WeekBalance is the balance of one ISO week, clipped to the requested period.
type WeekBalance struct {
	Week      string  `json:"week"`
	From      string  `json:"from"`
	To        string  `json:"to"`
	Worked    float64 `json:"workedHours"`
	Planned   float64 `json:"plannedHours"`
	Overtime  float64 `json:"overtimeHours"`
	Undertime float64 `json:"undertimeHours"`
}

// WeeklyBalances splits per into ISO weeks and compares each one.
func WeeklyBalances(entries []Entry, plan Planner, per period.Period) []WeekBalance {
	out := make([]WeekBalance, 0, per.Days()/7+2)
	start := per.From
	for !start.After(per.To) {
		// Weeks end on Sunday.
		end := start.AddDate(0, 0, (7-int(start.Weekday()))%7)
		if end.After(per.To) {
			end = per.To
		}
		week := period.Period{From: start, To: end}
		year, num := start.ISOWeek()
		b := Compare(WorkedHours(entries, week), PlannedHours(plan, week))
		out = append(out, WeekBalance{
			Week:      fmt.Sprintf("%d-W%02d", year, num),
			From:      start.Format(period.DateLayout),
			To:        end.Format(period.DateLayout),
			Worked:    b.Worked,
			Planned:   b.Planned,
			Overtime:  b.Overtime,
			Undertime: b.Undertime,
		})
		start = end.AddDate(0, 0, 1)
	}
	return out
}

// Summary is the full calculation for one employee and period.
type Summary struct {
	UserID            int               `json:"userId"`
	From              string            `json:"from"`
	To                string            `json:"to"`
	ContractType      user.ContractType `json:"contractType"`
	WeeklyHours       float64           `json:"weeklyHours"`
	WorkedHours       float64           `json:"workedHours"`
	PlannedHours      float64           `json:"plannedHours"`
	OvertimeHours     float64           `json:"overtimeHours"`
	UndertimeHours    float64           `json:"undertimeHours"`
	CompensationHours float64           `json:"compensationHours"`
	VacationHours     float64           `json:"vacationHours"`
}

// Input gathers everything Calculate needs.
type Input struct {
	UserID       int
	ContractType user.ContractType
	WeeklyHours  float64
	Entries      []Entry
	Plan         Planner
	Period       period.Period
	OvertimeRate float64
}

// Calculate produces the summary of in.
func Calculate(in Input) (Summary, error) {
	b := Compare(WorkedHours(in.Entries, in.Period), PlannedHours(in.Plan, in.Period))
	vacation, err := VacationAccrual(in.ContractType, b.Worked, in.WeeklyHours, in.Period)
	if err != nil {
		return Summary{}, err
	}
	return Summary{
		UserID:            in.UserID,
		From:              in.Period.From.Format(period.DateLayout),
		To:                in.Period.To.Format(period.DateLayout),
		ContractType:      in.ContractType,
		WeeklyHours:       in.WeeklyHours,
		WorkedHours:       b.Worked,
		PlannedHours:      b.Planned,
		OvertimeHours:     b.Overtime,
		UndertimeHours:    b.Undertime,
		CompensationHours: round2(b.Overtime * in.OvertimeRate),
		VacationHours:     vacation,
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
