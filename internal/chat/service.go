package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

var ErrRoomForbidden = apperr.New(apperr.Forbidden, "not a participant of this room")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Post validates and stores a message. A recipient turns the message into a
// direct message in the private room of sender and recipient, whatever room
// was passed. A message posted to a direct room is addressed to the other
// participant.
func (s *Service) Post(ctx context.Context, senderID int, room string, recipientID *int, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, fmt.Errorf("%w: message body is empty", apperr.ErrInvalidArgument)
	}
	if len([]rune(body)) > MaxBodyLength {
		return Message{}, fmt.Errorf("%w: message body exceeds %d characters", apperr.ErrInvalidArgument, MaxBodyLength)
	}

	if recipientID != nil {
		if *recipientID <= 0 || *recipientID == senderID {
			return Message{}, fmt.Errorf("%w: invalid recipient", apperr.ErrInvalidArgument)
		}
		room = DirectRoom(senderID, *recipientID)
	}
	room = strings.TrimSpace(room)
	if room == "" {
		return Message{}, fmt.Errorf("%w: room or recipient is required", apperr.ErrInvalidArgument)
	}
	if !CanAccess(room, senderID) {
		return Message{}, ErrRoomForbidden
	}
	if recipientID == nil {
		if a, b, ok := Participants(room); ok && a != b {
			other := a
			if other == senderID {
				other = b
			}
			recipientID = &other
		}
	}

	msg := Message{
		ID:          uuid.NewString(),
		Room:        room,
		SenderID:    senderID,
		RecipientID: recipientID,
		Body:        body,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.repo.Save(ctx, msg); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// History pages backwards through a room: before is an RFC 3339 timestamp or
// empty for the latest messages.
func (s *Service) History(ctx context.Context, callerID int, room, before string, limit int) ([]Message, error) {
	if !CanAccess(room, callerID) {
		return nil, ErrRoomForbidden
	}

	cursor := s.now().UTC().Add(time.Second)
	if before != "" {
		t, err := time.Parse(time.RFC3339Nano, before)
		if err != nil {
			return nil, fmt.Errorf("%w: before must be an RFC 3339 timestamp", apperr.ErrInvalidArgument)
		}
		cursor = t
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	limit = min(limit, MaxHistoryLimit)

	return s.repo.History(ctx, room, cursor, limit)
}
