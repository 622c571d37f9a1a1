package relay

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/chat"
)

// drainEvents returns every event queued for c without blocking.
func drainEvents(t *testing.T, c *Client) []Outbound {
	t.Helper()
	var out []Outbound
	for {
		select {
		case raw, ok := <-c.Send:
			if !ok {
				return out
			}
			var ev Outbound
			require.NoError(t, json.Unmarshal(raw, &ev))
			out = append(out, ev)
		default:
			return out
		}
	}
}

func types(events []Outbound) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func TestPresence(t *testing.T) {
	hub := NewHub(8, zap.NewNop().Sugar())

	alice := hub.Register(1)
	first := drainEvents(t, alice)
	require.Equal(t, []string{EventOnlineUsers}, types(first))
	require.Equal(t, []Presence{{UserID: 1, Status: StatusOnline}}, first[0].Users)

	bob := hub.Register(2)
	require.Equal(t, []string{EventUserOnline}, types(drainEvents(t, alice)))
	require.Len(t, drainEvents(t, bob)[0].Users, 2)

	// A second socket of the same user is not a new arrival.
	bob2 := hub.Register(2)
	require.Empty(t, drainEvents(t, alice))
	drainEvents(t, bob2)

	hub.Unregister(bob)
	require.True(t, hub.IsOnline(2))
	require.Empty(t, drainEvents(t, alice))

	require.True(t, hub.SetStatus(2, StatusBusy))
	ev := drainEvents(t, alice)
	require.Equal(t, EventUserStatus, ev[0].Type)
	require.Equal(t, StatusBusy, ev[0].Status)
	require.Contains(t, hub.Online(), Presence{UserID: 2, Status: StatusBusy})

	hub.Unregister(bob2)
	require.False(t, hub.IsOnline(2))
	ev = drainEvents(t, alice)
	require.Equal(t, []string{EventUserOffline}, types(ev))
	require.Equal(t, 2, ev[0].UserID)
	require.False(t, hub.SetStatus(2, StatusAway))

	// Unregister twice is harmless and the queue is closed.
	hub.Unregister(bob2)
	drainEvents(t, bob2)
	_, open := <-bob2.Send
	require.False(t, open)
}

func TestRoomDeliveryAndTyping(t *testing.T) {
	hub := NewHub(8, zap.NewNop().Sugar())
	alice, bob, carol := hub.Register(1), hub.Register(2), hub.Register(3)
	hub.Join(alice, "general")
	hub.Join(bob, "general")
	for _, c := range []*Client{alice, bob, carol} {
		drainEvents(t, c)
	}

	hub.SetTyping(1, "general", true)
	hub.SetTyping(1, "general", true)
	require.Empty(t, drainEvents(t, alice))
	require.Equal(t, []string{EventTyping}, types(drainEvents(t, bob)))
	require.Empty(t, drainEvents(t, carol))
	require.Equal(t, []int{1}, hub.Typing("general"))

	hub.Deliver(chat.Message{ID: "m1", Room: "general", SenderID: 1, Body: "hi", CreatedAt: time.Now()})
	require.Equal(t, []string{EventNewMessage}, types(drainEvents(t, alice)))
	require.Equal(t, []string{EventStopTyping, EventNewMessage}, types(drainEvents(t, bob)))
	require.Empty(t, drainEvents(t, carol))
	require.Empty(t, hub.Typing("general"))

	hub.Leave(bob, "general")
	hub.Deliver(chat.Message{ID: "m2", Room: "general", SenderID: 1, Body: "anyone?"})
	require.Empty(t, drainEvents(t, bob))
}

func TestDirectDeliveryReachesEverySocket(t *testing.T) {
	hub := NewHub(8, zap.NewNop().Sugar())
	alice, bobPhone, bobLaptop, carol := hub.Register(1), hub.Register(2), hub.Register(2), hub.Register(3)
	for _, c := range []*Client{alice, bobPhone, bobLaptop, carol} {
		drainEvents(t, c)
	}

	to := 2
	hub.Deliver(chat.Message{ID: "d1", Room: chat.DirectRoom(1, 2), SenderID: 1, RecipientID: &to, Body: "psst"})
	for _, c := range []*Client{alice, bobPhone, bobLaptop} {
		ev := drainEvents(t, c)
		require.Len(t, ev, 1)
		require.Equal(t, "d1", ev[0].Message.ID)
	}
	require.Empty(t, drainEvents(t, carol))
}

func TestTypingStopsWhenUserLeaves(t *testing.T) {
	hub := NewHub(8, zap.NewNop().Sugar())
	alice, bob := hub.Register(1), hub.Register(2)
	hub.Join(alice, "general")
	hub.Join(bob, "general")
	hub.SetTyping(1, "general", true)
	drainEvents(t, bob)

	hub.Unregister(alice)
	require.Equal(t, []string{EventStopTyping, EventUserOffline}, types(drainEvents(t, bob)))
	require.Empty(t, hub.Typing("general"))
}

func TestSlowSocketDropsEvents(t *testing.T) {
	hub := NewHub(1, zap.NewNop().Sugar())
	slow := hub.Register(1)
	// The online list fills the single slot.
	for i := 0; i < 3; i++ {
		hub.SendTo(slow, Outbound{Type: EventError, Error: "x"})
	}
	require.Equal(t, int64(3), hub.Dropped())
	require.Len(t, drainEvents(t, slow), 1)
}

func TestConcurrentRegistration(t *testing.T) {
	hub := NewHub(256, zap.NewNop().Sugar())

	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c := hub.Register(id % 10)
			hub.Join(c, "general")
			hub.SetTyping(c.UserID, "general", true)
			hub.Deliver(chat.Message{Room: "general", SenderID: c.UserID, Body: "hi"})
			hub.Unregister(c)
		}(i)
	}
	wg.Wait()

	require.Empty(t, hub.Online())
	require.Empty(t, hub.Typing("general"))
}
