package relay

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/user"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 16 << 10

	localUserID = "relay_user_id"
)

type Handler struct {
	relay        *Relay
	users        UserLookup
	secret       string
	eventTimeout time.Duration
	log          *zap.SugaredLogger
}

// NewHandler creates the socket handler. Each inbound event is handled under
// its own eventTimeout deadline; zero leaves events unbounded.
func NewHandler(relay *Relay, users UserLookup, secret string, eventTimeout time.Duration, log *zap.SugaredLogger) *Handler {
	return &Handler{relay: relay, users: users, secret: secret, eventTimeout: eventTimeout, log: log.Named("relay")}
}

// RegisterRoutes mounts the socket endpoint. It authenticates with the token
// query parameter, so it must be registered ahead of the JWT middleware.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Use("/ws", h.authenticate)
	app.Get("/ws", websocket.New(h.serve, websocket.Config{
		HandshakeTimeout: writeWait,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}))
}

func (h *Handler) authenticate(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	userID, _, err := user.ParseToken(c.Query("token"), h.secret)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}
	u, err := h.users.GetByID(c.UserContext(), userID)
	if err != nil || !u.Active {
		h.log.Infow("socket rejected", "user_id", userID, "error", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Unauthorized"})
	}

	c.Locals(localUserID, userID)
	return c.Next()
}

func (h *Handler) serve(conn *websocket.Conn) {
	userID, _ := conn.Locals(localUserID).(int)
	hub := h.relay.Hub()
	client := hub.Register(userID)
	h.log.Debugw("socket connected", "user_id", userID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.writeLoop(conn, client)
	}()

	h.readLoop(conn, client)

	hub.Unregister(client)
	<-done
	h.log.Debugw("socket closed", "user_id", userID)
}

func (h *Handler) readLoop(conn *websocket.Conn, client *Client) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		kind, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debugw("socket read failed", "user_id", client.UserID, "error", err)
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		h.handle(client, raw)
	}
}

func (h *Handler) handle(client *Client, raw []byte) {
	ctx := context.Background()
	if h.eventTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.eventTimeout)
		defer cancel()
	}
	h.relay.Handle(ctx, client, raw)
}

// writeLoop drains the client's queue until the hub closes it.
func (h *Handler) writeLoop(conn *websocket.Conn, client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case payload, ok := <-client.Send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Debugw("socket write failed", "user_id", client.UserID, "error", err)
				_ = conn.Close()
				h.drain(client)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = conn.Close()
				h.drain(client)
				return
			}
		}
	}
}

// drain discards queued events after a write failure until Unregister closes
// the queue.
func (h *Handler) drain(client *Client) {
	for range client.Send {
	}
}
