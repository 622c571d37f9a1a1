package push

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/user"
)

type Handler struct {
	service *Service
	log     *zap.SugaredLogger
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

func NewHandler(service *Service, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, log: log.Named("push")}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/push/vapid-key", h.vapidKey)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/push/subscriptions", h.subscribe)
	app.Delete("/api/v1/push/subscriptions", h.unsubscribe)
}

func (h *Handler) vapidKey(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"publicKey": h.service.PublicKey()})
}

func (h *Handler) subscribe(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	payload := new(Subscription)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	sub, err := h.service.Subscribe(c.UserContext(), userID, *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(sub)
}

func (h *Handler) unsubscribe(c *fiber.Ctx) error {
	userID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	payload := new(unsubscribeRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	if err := h.service.Unsubscribe(c.UserContext(), userID, payload.Endpoint); err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Unsubscribed"})
}
