package timeentry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/period"
)

func newTestService(seed []Entry) (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository(seed)
	svc := NewService(repo)
	svc.now = func() time.Time { return time.Date(2025, 2, 3, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func TestServiceLifecycle(t *testing.T) {
	svc, _ := newTestService(nil)
	ctx := t.Context()

	e, err := svc.Create(ctx, 5, Input{Date: "2025-02-03", StartTime: "08:00", EndTime: "16:30", BreakMinutes: 30})
	require.NoError(t, err)
	require.Equal(t, StatusPending, e.Status)
	require.Equal(t, 8.0, e.Hours)

	_, err = svc.Update(ctx, Actor{UserID: 6}, e.ID, Input{Date: "2025-02-03", StartTime: "08:00", EndTime: "12:00"})
	require.ErrorIs(t, err, apperr.ErrForbidden)

	e, err = svc.Update(ctx, Actor{UserID: 5}, e.ID, Input{Date: "2025-02-03", StartTime: "08:00", EndTime: "12:00"})
	require.NoError(t, err)
	require.Equal(t, 4.0, e.Hours)

	_, err = svc.Approve(ctx, e.ID, 5)
	require.ErrorIs(t, err, ErrSelfApproval)

	e, err = svc.Approve(ctx, e.ID, 1)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, e.Status)
	require.Equal(t, 1, *e.ApprovedBy)

	_, err = svc.Reject(ctx, e.ID, 1)
	require.ErrorIs(t, err, ErrNotPending)

	err = svc.Delete(ctx, Actor{UserID: 5}, e.ID)
	require.ErrorIs(t, err, ErrNotPending)
}

func TestServiceBulkApproveSkipsOwnAndDecided(t *testing.T) {
	svc, repo := newTestService([]Entry{
		{ID: 1, UserID: 2, Date: "2025-02-01", Hours: 8, Status: StatusPending},
		{ID: 2, UserID: 3, Date: "2025-02-01", Hours: 6, Status: StatusPending},
		{ID: 3, UserID: 9, Date: "2025-02-02", Hours: 4, Status: StatusPending},
		{ID: 4, UserID: 2, Date: "2025-02-02", Hours: 5, Status: StatusRejected},
	})

	n, err := svc.BulkApprove(t.Context(), []int{1, 2, 3, 4, 42}, 9)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	own, _ := repo.GetByID(t.Context(), 3)
	require.Equal(t, StatusPending, own.Status)
	rejected, _ := repo.GetByID(t.Context(), 4)
	require.Equal(t, StatusRejected, rejected.Status)

	per, _ := period.Parse("2025-02-01", "2025-02-28")
	approved, err := svc.ApprovedEntries(t.Context(), 2, per)
	require.NoError(t, err)
	require.Len(t, approved, 1)
	require.Equal(t, 1, approved[0].ID)
}

func TestServiceApprovalsWindow(t *testing.T) {
	svc, _ := newTestService([]Entry{
		{ID: 1, UserID: 2, Date: "2025-01-31", Hours: 8, Status: StatusApproved},
		{ID: 2, UserID: 2, Date: "2025-02-01", Hours: 6, Status: StatusApproved},
		{ID: 3, UserID: 3, Date: "2025-02-10", Hours: 4, Status: StatusPending},
	})

	per, _ := period.Parse("2025-02-01", "2025-02-28")
	got, err := svc.Approvals(t.Context(), per, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 6.0, got[0].ApprovedHours)
	require.Equal(t, 4.0, got[1].PendingHours)

	_, err = svc.List(t.Context(), Filter{Status: "done"})
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)
}
