// Package period handles the inclusive calendar date ranges every report and
// calculation in the service is expressed in.
package period

import (
	"fmt"
	"time"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ClockLayout is the wire format of wall-clock times.
const ClockLayout = "15:04"

var (
	ErrInvalidDate  = apperr.New(apperr.InvalidArgument, "invalid date, expected YYYY-MM-DD")
	ErrInvalidRange = apperr.New(apperr.InvalidArgument, "period end is before its start")
	ErrInvalidClock = apperr.New(apperr.InvalidArgument, "invalid time, expected HH:MM")
)

// Period is an inclusive range of calendar days in UTC.
type Period struct {
	From time.Time
	To   time.Time
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// Parse builds a period from two YYYY-MM-DD strings.
func Parse(from, to string) (Period, error) {
	f, err := ParseDate(from)
	if err != nil {
		return Period{}, err
	}
	t, err := ParseDate(to)
	if err != nil {
		return Period{}, err
	}
	return New(f, t)
}

// New normalizes both bounds to UTC midnight.
func New(from, to time.Time) (Period, error) {
	p := Period{From: Day(from), To: Day(to)}
	if p.To.Before(p.From) {
		return Period{}, ErrInvalidRange
	}
	return p, nil
}

// ParseOrMonth parses from/to query values, falling back to the month of now
// when both are empty.
func ParseOrMonth(from, to string, now time.Time) (Period, error) {
	if from == "" && to == "" {
		return Month(now), nil
	}
	return Parse(from, to)
}

// Month returns the calendar month containing t.
func Month(t time.Time) Period {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: first, To: first.AddDate(0, 1, -1)}
}

// PreviousMonth returns the calendar month before the one containing t.
func PreviousMonth(t time.Time) Period {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return Month(first.AddDate(0, 0, -1))
}

// Day truncates t to its calendar day in UTC, keeping the wall date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Days is the number of calendar days in the period.
func (p Period) Days() int {
	return int(p.To.Sub(p.From).Hours()/24) + 1
}

// Contains reports whether the day of t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(p.From) && !d.After(p.To)
}

// Overlaps reports whether the two periods share at least one day.
func (p Period) Overlaps(o Period) bool {
	return !p.To.Before(o.From) && !o.To.Before(p.From)
}

// Each calls fn for every day of the period in order.
func (p Period) Each(fn func(day time.Time)) {
	for d := p.From; !d.After(p.To); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// String renders the period as "from..to".
func (p Period) String() string {
	return p.From.Format(DateLayout) + ".." + p.To.Format(DateLayout)
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(start.AddDate(1, 0, 0).Sub(start).Hours() / 24)
}

// ParseClock parses HH:MM into minutes after midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes after midnight as HH:MM, wrapping past midnight.
func FormatClock(minutes int) string {
	minutes = ((minutes % (24 * 60)) + 24*60) % (24 * 60)
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
