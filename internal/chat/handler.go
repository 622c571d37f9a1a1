package chat

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/user"
)

// Publisher fans a stored message out to live connections.
type Publisher interface {
	Publish(msg Message)
}

type Handler struct {
	service   *Service
	publisher Publisher
	log       *zap.SugaredLogger
}

type postRequest struct {
	Room        string `json:"room"`
	RecipientID *int   `json:"recipientId"`
	Body        string `json:"body"`
}

// NewHandler wires the REST side of chat. publisher may be nil.
func NewHandler(service *Service, publisher Publisher, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, publisher: publisher, log: log.Named("chat")}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/chat/rooms/:room/messages", h.roomHistory)
	app.Get("/api/v1/chat/direct/:userId/messages", h.directHistory)
	app.Post("/api/v1/chat/messages", h.post)
}

func (h *Handler) roomHistory(c *fiber.Ctx) error {
	return h.history(c, c.Params("room"))
}

func (h *Handler) directHistory(c *fiber.Ctx) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	other, err := c.ParamsInt("userId")
	if err != nil || other <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid user id"})
	}
	return h.history(c, DirectRoom(callerID, other))
}

func (h *Handler) history(c *fiber.Ctx, room string) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	messages, err := h.service.History(c.UserContext(), callerID, room, c.Query("before"), c.QueryInt("limit", DefaultHistoryLimit))
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(messages)
}

func (h *Handler) post(c *fiber.Ctx) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	payload := new(postRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	msg, err := h.service.Post(c.UserContext(), callerID, payload.Room, payload.RecipientID, payload.Body)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	if h.publisher != nil {
		h.publisher.Publish(msg)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}
