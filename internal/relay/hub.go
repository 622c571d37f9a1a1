package relay

import (
	"encoding/json"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/chat"
)

// Client is one connected socket. Events for it are queued on Send and
// written by the socket's writer goroutine; the hub closes Send on Unregister.
type Client struct {
	UserID int
	Send   chan []byte

	rooms map[string]struct{}
}

type clientSet map[*Client]struct{}

// Hub holds the in-memory relay state. Every map is guarded by mu; events are
// queued while holding it so a client is never sent to after its channel was
// closed.
type Hub struct {
	mu      sync.RWMutex
	buffer  int
	clients clientSet
	users   map[int]clientSet
	status  map[int]string
	rooms   map[string]clientSet
	typing  map[string]map[int]struct{}
	dropped atomic.Int64
	log     *zap.SugaredLogger
}

// NewHub creates a hub whose clients buffer up to buffer events.
func NewHub(buffer int, log *zap.SugaredLogger) *Hub {
	if buffer <= 0 {
		buffer = 32
	}
	return &Hub{
		buffer:  buffer,
		clients: make(clientSet),
		users:   make(map[int]clientSet),
		status:  make(map[int]string),
		rooms:   make(map[string]clientSet),
		typing:  make(map[string]map[int]struct{}),
		log:     log.Named("relay"),
	}
}

// Register adds a socket of userID. The new socket receives the online list;
// everyone else learns the user came online if this is their first socket.
func (h *Hub) Register(userID int) *Client {
	c := &Client{UserID: userID, Send: make(chan []byte, h.buffer), rooms: make(map[string]struct{})}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	first := len(h.users[userID]) == 0
	if first {
		h.users[userID] = make(clientSet)
		h.status[userID] = StatusOnline
	}
	h.users[userID][c] = struct{}{}

	h.enqueue(c, Outbound{Type: EventOnlineUsers, Users: h.onlineLocked()})
	if first {
		h.broadcastLocked(Outbound{Type: EventUserOnline, UserID: userID, Status: StatusOnline}, c)
	}
	return c
}

// Unregister removes a socket and closes its queue. When it was the user's
// last socket the user goes offline and stops typing everywhere.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	delete(h.users[c.UserID], c)
	close(c.Send)

	if len(h.users[c.UserID]) > 0 {
		return
	}
	delete(h.users, c.UserID)
	delete(h.status, c.UserID)
	for room, typers := range h.typing {
		if _, ok := typers[c.UserID]; ok {
			h.stopTypingLocked(room, c.UserID)
		}
	}
	h.broadcastLocked(Outbound{Type: EventUserOffline, UserID: c.UserID}, nil)
}

func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	if h.rooms[room] == nil {
		h.rooms[room] = make(clientSet)
	}
	h.rooms[room][c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.leaveLocked(c, room)
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	members := h.rooms[room]
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// SetStatus changes the advertised status of an online user.
func (h *Hub) SetStatus(userID int, status string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[userID]; !ok {
		return false
	}
	h.status[userID] = status
	h.broadcastLocked(Outbound{Type: EventUserStatus, UserID: userID, Status: status}, nil)
	return true
}

// SetTyping records whether userID is typing in room and tells the rest of
// the room's audience. Repeated calls with the same state send nothing.
func (h *Hub) SetTyping(userID int, room string, typing bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, already := h.typing[room][userID]
	switch {
	case typing && !already:
		if h.typing[room] == nil {
			h.typing[room] = make(map[int]struct{})
		}
		h.typing[room][userID] = struct{}{}
		h.sendRoomLocked(room, Outbound{Type: EventTyping, UserID: userID, Room: room}, userID)
	case !typing && already:
		h.stopTypingLocked(room, userID)
	}
}

func (h *Hub) stopTypingLocked(room string, userID int) {
	delete(h.typing[room], userID)
	if len(h.typing[room]) == 0 {
		delete(h.typing, room)
	}
	h.sendRoomLocked(room, Outbound{Type: EventStopTyping, UserID: userID, Room: room}, userID)
}

// Typing lists the users currently typing in room.
func (h *Hub) Typing(room string) []int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]int, 0, len(h.typing[room]))
	for id := range h.typing[room] {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// Deliver sends a stored chat message to its audience: both participants of a
// direct room, or the sockets joined to any other room. Sending a message ends
// the sender's typing state in that room.
func (h *Hub) Deliver(msg chat.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.typing[msg.Room][msg.SenderID]; ok {
		h.stopTypingLocked(msg.Room, msg.SenderID)
	}
	h.sendRoomLocked(msg.Room, Outbound{Type: EventNewMessage, Room: msg.Room, Message: &msg}, 0)
}

// Publish lets messages posted over REST reach live sockets.
func (h *Hub) Publish(msg chat.Message) {
	h.Deliver(msg)
}

// SendTo queues an event for a single socket.
func (h *Hub) SendTo(c *Client, ev Outbound) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[c]; ok {
		h.enqueue(c, ev)
	}
}

func (h *Hub) IsOnline(userID int) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.users[userID]) > 0
}

// Online lists online users ordered by id.
func (h *Hub) Online() []Presence {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.onlineLocked()
}

// Dropped counts events discarded because a socket's queue was full.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

func (h *Hub) onlineLocked() []Presence {
	out := make([]Presence, 0, len(h.users))
	for id := range h.users {
		out = append(out, Presence{UserID: id, Status: h.status[id]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// sendRoomLocked queues ev for the audience of room, skipping every socket of
// exceptUser (0 skips nobody).
func (h *Hub) sendRoomLocked(room string, ev Outbound, exceptUser int) {
	if a, b, ok := chat.Participants(room); ok {
		for _, id := range []int{a, b} {
			if id == exceptUser {
				continue
			}
			for c := range h.users[id] {
				h.enqueue(c, ev)
			}
		}
		return
	}
	for c := range h.rooms[room] {
		if c.UserID != exceptUser {
			h.enqueue(c, ev)
		}
	}
}

func (h *Hub) broadcastLocked(ev Outbound, except *Client) {
	for c := range h.clients {
		if c != except {
			h.enqueue(c, ev)
		}
	}
}

// enqueue never blocks: a full queue drops the event.
func (h *Hub) enqueue(c *Client, ev Outbound) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.log.Errorw("encode event failed", "type", ev.Type, "error", err)
		return
	}
	select {
	case c.Send <- payload:
	default:
		h.dropped.Add(1)
		h.log.Debugw("event dropped for slow socket", "user_id", c.UserID, "type", ev.Type)
	}
}
