package workpattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/period"
)

func TestPlannedHours(t *testing.T) {
	p := Pattern{Days: map[string]DayPlan{
		"monday":    {Hours: 8, Start: "09:00"},
		"wednesday": {Hours: 6},
		"saturday":  {Hours: 4, Start: "10:00"},
	}}

	// 2025-01-06 is a Monday.
	week, err := period.Parse("2025-01-06", "2025-01-12")
	require.NoError(t, err)
	require.Equal(t, 18.0, p.PlannedHours(week))
	require.Equal(t, 18.0, p.WeeklyHours())

	twoWeeks, _ := period.Parse("2025-01-06", "2025-01-19")
	require.Equal(t, 36.0, p.PlannedHours(twoWeeks))

	sat := time.Date(2025, 1, 11, 0, 0, 0, 0, time.UTC)
	require.Equal(t, 4.0, p.HoursOn(sat))
	require.Equal(t, "10:00", p.StartOn(sat))
	require.Equal(t, 0.0, p.HoursOn(sat.AddDate(0, 0, 1)))
}

func TestDefault(t *testing.T) {
	p := Default(3, 38)
	require.Equal(t, 7.6, p.Days["friday"].Hours)
	require.Equal(t, 0.0, p.Days["sunday"].Hours)
	require.InDelta(t, 38, p.WeeklyHours(), 0.001)
}

func TestValidate(t *testing.T) {
	require.NoError(t, Pattern{Days: map[string]DayPlan{"monday": {Hours: 8, Start: "08:30"}}}.Validate())

	err := Pattern{Days: map[string]DayPlan{"funday": {Hours: 8}}}.Validate()
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	err = Pattern{Days: map[string]DayPlan{"monday": {Hours: 25}}}.Validate()
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	err = Pattern{Days: map[string]DayPlan{"monday": {Hours: 8, Start: "8am"}}}.Validate()
	require.ErrorIs(t, err, period.ErrInvalidClock)
}
