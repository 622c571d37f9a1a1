package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/chat"
	"github.com/jobflow/jobflow-backend/internal/push"
	"github.com/jobflow/jobflow-backend/internal/user"
)

const notifyTimeout = 10 * time.Second

type MessageStore interface {
	Post(ctx context.Context, senderID int, room string, recipientID *int, body string) (chat.Message, error)
}

type Notifier interface {
	Notify(ctx context.Context, userID int, n push.Notification) int
}

type UserLookup interface {
	GetByID(ctx context.Context, id int) (user.User, error)
}

// Relay turns inbound socket events into hub updates. Errors never close the
// socket; they are logged and reported back to it as error events.
type Relay struct {
	hub      *Hub
	messages MessageStore
	notifier Notifier
	users    UserLookup
	log      *zap.SugaredLogger
	pending  sync.WaitGroup
}

// New builds a relay. notifier may be nil to disable offline push.
func New(hub *Hub, messages MessageStore, notifier Notifier, users UserLookup, log *zap.SugaredLogger) *Relay {
	return &Relay{hub: hub, messages: messages, notifier: notifier, users: users, log: log.Named("relay")}
}

func (r *Relay) Hub() *Hub {
	return r.hub
}

// Handle processes one raw event from client c.
func (r *Relay) Handle(ctx context.Context, c *Client, raw []byte) {
	var ev Inbound
	if err := json.Unmarshal(raw, &ev); err != nil {
		r.fail(c, "", fmt.Errorf("%w: malformed event", apperr.ErrInvalidArgument))
		return
	}

	switch ev.Type {
	case EventJoinRoom:
		if err := r.checkRoom(c, ev.Room); err != nil {
			r.fail(c, ev.Type, err)
			return
		}
		r.hub.Join(c, ev.Room)
	case EventLeaveRoom:
		r.hub.Leave(c, ev.Room)
	case EventSendMessage:
		r.send(ctx, c, ev)
	case EventTyping, EventStopTyping:
		room, err := r.typingRoom(c, ev)
		if err != nil {
			r.fail(c, ev.Type, err)
			return
		}
		r.hub.SetTyping(c.UserID, room, ev.Type == EventTyping)
	case EventUpdateStatus:
		if !validStatus(ev.Status) {
			r.fail(c, ev.Type, fmt.Errorf("%w: unknown status %q", apperr.ErrInvalidArgument, ev.Status))
			return
		}
		r.hub.SetStatus(c.UserID, ev.Status)
	default:
		r.fail(c, ev.Type, fmt.Errorf("%w: unknown event %q", apperr.ErrInvalidArgument, ev.Type))
	}
}

func (r *Relay) checkRoom(c *Client, room string) error {
	if room == "" {
		return fmt.Errorf("%w: room is required", apperr.ErrInvalidArgument)
	}
	if !chat.CanAccess(room, c.UserID) {
		return chat.ErrRoomForbidden
	}
	return nil
}

// typingRoom resolves the room a typing event refers to; a recipient means
// their direct room with the sender.
func (r *Relay) typingRoom(c *Client, ev Inbound) (string, error) {
	if ev.RecipientID != nil {
		if *ev.RecipientID == c.UserID {
			return "", fmt.Errorf("%w: invalid recipient", apperr.ErrInvalidArgument)
		}
		return chat.DirectRoom(c.UserID, *ev.RecipientID), nil
	}
	return ev.Room, r.checkRoom(c, ev.Room)
}

func (r *Relay) send(ctx context.Context, c *Client, ev Inbound) {
	msg, err := r.messages.Post(ctx, c.UserID, ev.Room, ev.RecipientID, ev.Body)
	if err != nil {
		r.fail(c, ev.Type, err)
		return
	}
	r.hub.Deliver(msg)

	if msg.Direct() && r.notifier != nil && !r.hub.IsOnline(*msg.RecipientID) {
		r.pending.Add(1)
		go func() {
			defer r.pending.Done()
			r.notifyOffline(msg)
		}()
	}
}

func (r *Relay) notifyOffline(msg chat.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	title := "New message"
	if sender, err := r.users.GetByID(ctx, msg.SenderID); err == nil {
		title = "New message from " + sender.FullName()
	}
	body := msg.Body
	if runes := []rune(body); len(runes) > 120 {
		body = string(runes[:120]) + "..."
	}

	delivered := r.notifier.Notify(ctx, *msg.RecipientID, push.Notification{
		Title: title,
		Body:  body,
		URL:   fmt.Sprintf("/chat/%d", msg.SenderID),
		Tag:   msg.Room,
	})
	r.log.Debugw("offline recipient notified", "recipient_id", *msg.RecipientID, "delivered", delivered)
}

// Wait blocks until in-flight push notifications finished.
func (r *Relay) Wait() {
	r.pending.Wait()
}

func (r *Relay) fail(c *Client, eventType string, err error) {
	message := err.Error()
	if apperr.KindOf(err) == apperr.Internal {
		message = "internal error"
		r.log.Errorw("relay event failed", "user_id", c.UserID, "type", eventType, "error", err)
	} else {
		r.log.Debugw("relay event rejected", "user_id", c.UserID, "type", eventType, "error", err)
	}
	r.hub.SendTo(c, Outbound{Type: EventError, Error: message})
}
