package schedule

import (
	"math"
	"time"

	"github.com/jobflow/jobflow-backend/internal/period"
)

// DayPlanner is the per-weekday template shifts are generated from.
type DayPlanner interface {
	HoursOn(day time.Time) float64
	StartOn(day time.Time) string
}

// Plan is the input of one employee: their pattern and the days that must
// stay free (approved leave, existing shifts).
type Plan struct {
	UserID  int
	Pattern DayPlanner
	Blocked map[string]bool
}

// Generate builds one auto shift per planned day of every plan. Days without
// planned hours and blocked days are skipped; a user never gets two shifts on
// the same day.
func Generate(per period.Period, plans []Plan, defaultStart string) ([]Shift, error) {
	fallback, err := period.ParseClock(defaultStart)
	if err != nil {
		return nil, err
	}

	out := make([]Shift, 0)
	for _, plan := range plans {
		seen := make(map[string]bool)
		var genErr error
		per.Each(func(d time.Time) {
			if genErr != nil {
				return
			}
			date := d.Format(period.DateLayout)
			hours := plan.Pattern.HoursOn(d)
			if hours <= 0 || plan.Blocked[date] || seen[date] {
				return
			}

			start := fallback
			if s := plan.Pattern.StartOn(d); s != "" {
				start, genErr = period.ParseClock(s)
				if genErr != nil {
					return
				}
			}
			minutes := int(math.Round(hours * 60))
			seen[date] = true
			out = append(out, Shift{
				UserID:    plan.UserID,
				Date:      date,
				StartTime: period.FormatClock(start),
				EndTime:   period.FormatClock(start + minutes),
				Hours:     math.Round(hours*100) / 100,
				Source:    SourceAuto,
			})
		})
		if genErr != nil {
			return nil, genErr
		}
	}
	return out, nil
}
