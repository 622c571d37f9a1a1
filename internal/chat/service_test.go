package chat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

// newClockedService returns a service whose clock advances one second per
// message.
func newClockedService() *Service {
	svc := NewService(NewInMemoryRepository())
	base := time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	return svc
}

func TestPostValidates(t *testing.T) {
	svc := newClockedService()
	ctx := t.Context()

	_, err := svc.Post(ctx, 1, "general", nil, "   ")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.Post(ctx, 1, "general", nil, strings.Repeat("a", MaxBodyLength+1))
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.Post(ctx, 1, "", nil, "hello")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	self := 1
	_, err = svc.Post(ctx, 1, "", &self, "hello me")
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.Post(ctx, 1, "dm:2:3", nil, "snooping")
	require.ErrorIs(t, err, ErrRoomForbidden)

	to := 5
	msg, err := svc.Post(ctx, 1, "ignored", &to, " hi there ")
	require.NoError(t, err)
	require.Equal(t, "dm:1:5", msg.Room)
	require.Equal(t, "hi there", msg.Body)
	require.True(t, msg.Direct())
	require.NotEmpty(t, msg.ID)

	inRoom, err := svc.Post(ctx, 5, "dm:1:5", nil, "reply")
	require.NoError(t, err)
	require.True(t, inRoom.Direct())
	require.Equal(t, 1, *inRoom.RecipientID)

	_, err = svc.Post(ctx, 5, "dm:5:1", nil, "alias")
	require.ErrorIs(t, err, ErrRoomForbidden)
	_, err = svc.Post(ctx, 5, "dm:01:5", nil, "alias")
	require.ErrorIs(t, err, ErrRoomForbidden)
}

func TestHistoryPagesBackwards(t *testing.T) {
	svc := newClockedService()
	ctx := t.Context()

	var sent []Message
	for _, body := range []string{"one", "two", "three", "four"} {
		m, err := svc.Post(ctx, 1, "general", nil, body)
		require.NoError(t, err)
		sent = append(sent, m)
	}

	latest, err := svc.History(ctx, 2, "general", "", 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	require.Equal(t, "three", latest[0].Body)
	require.Equal(t, "four", latest[1].Body)

	older, err := svc.History(ctx, 2, "general", latest[0].CreatedAt.Format(time.RFC3339Nano), 10)
	require.NoError(t, err)
	require.Len(t, older, 2)
	require.Equal(t, sent[0].ID, older[0].ID)

	_, err = svc.History(ctx, 2, "general", "yesterday", 10)
	require.ErrorIs(t, err, apperr.ErrInvalidArgument)

	_, err = svc.History(ctx, 2, "dm:1:3", "", 10)
	require.ErrorIs(t, err, ErrRoomForbidden)
}
