package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/workpattern"
)

func TestGenerate(t *testing.T) {
	per, err := period.Parse("2025-03-03", "2025-03-09")
	require.NoError(t, err)

	nightOwl := workpattern.Pattern{Days: map[string]workpattern.DayPlan{
		"monday":   {Hours: 8, Start: "20:00"},
		"saturday": {Hours: 5.5},
	}}
	plans := []Plan{
		{UserID: 1, Pattern: workpattern.Default(1, 40), Blocked: map[string]bool{"2025-03-05": true}},
		{UserID: 2, Pattern: nightOwl},
	}

	shifts, err := Generate(per, plans, "09:00")
	require.NoError(t, err)
	require.Len(t, shifts, 6)

	for _, s := range shifts[:4] {
		require.Equal(t, 1, s.UserID)
		require.NotEqual(t, "2025-03-05", s.Date)
		require.Equal(t, "09:00", s.StartTime)
		require.Equal(t, "17:00", s.EndTime)
		require.Equal(t, SourceAuto, s.Source)
	}

	require.Equal(t, Shift{UserID: 2, Date: "2025-03-03", StartTime: "20:00", EndTime: "04:00", Hours: 8, Source: SourceAuto}, shifts[4])
	require.Equal(t, Shift{UserID: 2, Date: "2025-03-08", StartTime: "09:00", EndTime: "14:30", Hours: 5.5, Source: SourceAuto}, shifts[5])
}

func TestGenerateNeverDuplicatesADay(t *testing.T) {
	per, _ := period.Parse("2025-01-01", "2025-03-31")
	plans := []Plan{{UserID: 1, Pattern: workpattern.Default(1, 35)}, {UserID: 2, Pattern: workpattern.Default(2, 20)}}

	shifts, err := Generate(per, plans, "08:00")
	require.NoError(t, err)

	seen := map[[2]any]bool{}
	for _, s := range shifts {
		key := [2]any{s.UserID, s.Date}
		require.False(t, seen[key], "duplicate shift %v", key)
		seen[key] = true
	}
}

func TestGenerateBadDefaultStart(t *testing.T) {
	per, _ := period.Parse("2025-01-01", "2025-01-02")
	_, err := Generate(per, nil, "nine")
	require.ErrorIs(t, err, period.ErrInvalidClock)
}
