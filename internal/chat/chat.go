// Package chat persists chat messages and serves room history.
package chat

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	MaxBodyLength       = 4000
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 200
)

const directPrefix = "dm:"

type Message struct {
	ID          string    `json:"messageId"`
	Room        string    `json:"room"`
	SenderID    int       `json:"senderId"`
	RecipientID *int      `json:"recipientId,omitempty"`
	Body        string    `json:"body"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Direct reports whether the message is addressed to a single user.
func (m Message) Direct() bool {
	return m.RecipientID != nil
}

// DirectRoom names the private room of two users; the order of a and b does
// not matter.
func DirectRoom(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s%d:%d", directPrefix, a, b)
}

// Participants returns the two users of a direct room. Only the canonical
// name produced by DirectRoom is accepted, so "dm:2:1" or "dm:01:2" never
// alias "dm:1:2".
func Participants(room string) (int, int, bool) {
	rest, ok := strings.CutPrefix(room, directPrefix)
	if !ok {
		return 0, 0, false
	}
	left, right, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(left)
	b, errB := strconv.Atoi(right)
	if errA != nil || errB != nil || room != DirectRoom(a, b) {
		return 0, 0, false
	}
	return a, b, true
}

// CanAccess reports whether userID may read and write room. Direct rooms are
// limited to their two participants; every other room is open.
func CanAccess(room string, userID int) bool {
	if !strings.HasPrefix(room, directPrefix) {
		return true
	}
	a, b, ok := Participants(room)
	return ok && (userID == a || userID == b)
}
