// Package relay is the real-time side of the service: it tracks who is online,
// which rooms their sockets joined and who is typing, and fans chat and
// presence events out to connected sockets.
package relay

import "github.com/jobflow/jobflow-backend/internal/chat"

// Client to server event types.
const (
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
	EventSendMessage  = "send_message"
	EventTyping       = "typing"
	EventStopTyping   = "stop_typing"
	EventUpdateStatus = "update_status"
)

// Server to client event types. Typing events reuse the client names.
const (
	EventOnlineUsers = "online_users"
	EventUserOnline  = "user_online"
	EventUserOffline = "user_offline"
	EventUserStatus  = "user_status"
	EventNewMessage  = "new_message"
	EventError       = "error"
)

// Presence states a user can advertise.
const (
	StatusOnline = "online"
	StatusAway   = "away"
	StatusBusy   = "busy"
)

func validStatus(s string) bool {
	return s == StatusOnline || s == StatusAway || s == StatusBusy
}

// Inbound is an event received from a socket.
type Inbound struct {
	Type        string `json:"type"`
	Room        string `json:"room,omitempty"`
	RecipientID *int   `json:"recipientId,omitempty"`
	Body        string `json:"body,omitempty"`
	Status      string `json:"status,omitempty"`
}

// Presence is one online user.
type Presence struct {
	UserID int    `json:"userId"`
	Status string `json:"status"`
}

// Outbound is an event written to sockets.
type Outbound struct {
	Type    string        `json:"type"`
	UserID  int           `json:"userId,omitempty"`
	Room    string        `json:"room,omitempty"`
	Status  string        `json:"status,omitempty"`
	Users   []Presence    `json:"users,omitempty"`
	Message *chat.Message `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
}
