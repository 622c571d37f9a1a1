package timeentry

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

func TestComputeHours(t *testing.T) {
	tests := []struct {
		name         string
		start, end   string
		breakMinutes int
		want         float64
	}{
		{"day", "09:00", "17:30", 30, 8},
		{"overnight", "22:00", "06:00", 45, 7.25},
		{"odd minutes", "08:10", "12:00", 0, 3.83},
		{"full day", "07:00", "07:00", 60, 23},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeHours(tt.start, tt.end, tt.breakMinutes)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := ComputeHours("09:00", "10:00", 60)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = ComputeHours("09:00", "10:00", -5)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
	_, err = ComputeHours("9am", "10:00", 0)
	require.Error(t, err)
}

func TestAggregate(t *testing.T) {
	entries := []Entry{
		{UserID: 2, Hours: 8, Status: StatusApproved},
		{UserID: 1, Hours: 4.5, Status: StatusPending},
		{UserID: 2, Hours: 7.25, Status: StatusPending},
		{UserID: 2, Hours: 1.1, Status: StatusRejected},
		{UserID: 2, Hours: 2.2, Status: StatusRejected},
	}

	got := Aggregate(entries)
	require.Len(t, got, 2)
	require.Equal(t, ApprovalSummary{UserID: 2, PendingHours: 7.25, ApprovedHours: 8, RejectedHours: 3.3, PendingCount: 1, ApprovedCount: 1, RejectedCount: 2}, got[0])
	require.Equal(t, ApprovalSummary{UserID: 1, PendingHours: 4.5, PendingCount: 1}, got[1])
}
