package leave

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/user"
)

type Handler struct {
	service *Service
	log     *zap.SugaredLogger
}

func NewHandler(service *Service, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, log: log.Named("leave")}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	managers := user.RequireRole(user.RoleAdmin, user.RoleManager)

	app.Get("/api/v1/leave", h.list)
	app.Post("/api/v1/leave", h.request)
	app.Get("/api/v1/leave/balance", h.balance)
	app.Get("/api/v1/leave/:id", h.get)
	app.Post("/api/v1/leave/:id/approve", managers, h.approve)
	app.Post("/api/v1/leave/:id/reject", managers, h.reject)
	app.Post("/api/v1/leave/:id/cancel", h.cancel)
}

func (h *Handler) list(c *fiber.Ctx) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	filter := Filter{
		UserID: callerID,
		From:   c.Query("from"),
		To:     c.Query("to"),
		Status: Status(c.Query("status")),
	}
	if user.IsManagerCtx(c) {
		filter.UserID = c.QueryInt("userId", 0)
	} else if target := c.QueryInt("userId", 0); target != 0 && target != callerID {
		return apperr.Write(c, h.log, apperr.ErrForbidden)
	}

	requests, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(requests)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid leave id"})
	}
	req, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	if _, err := user.Authorize(c, req.UserID); err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(req)
}

func (h *Handler) request(c *fiber.Ctx) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Request(c.UserContext(), callerID, *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) balance(c *fiber.Ctx) error {
	userID, err := user.Authorize(c, c.QueryInt("userId", 0))
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	b, err := h.service.Balance(c.UserContext(), userID)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(b)
}

func (h *Handler) approve(c *fiber.Ctx) error {
	return h.change(c, h.service.Approve)
}

func (h *Handler) reject(c *fiber.Ctx) error {
	return h.change(c, h.service.Reject)
}

func (h *Handler) cancel(c *fiber.Ctx) error {
	return h.change(c, h.service.Cancel)
}

func (h *Handler) change(c *fiber.Ctx, fn func(context.Context, int, int) (Request, error)) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid leave id"})
	}

	req, err := fn(c.UserContext(), id, callerID)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	h.log.Infow("leave request changed", "leave_id", id, "status", req.Status, "by", callerID)
	return c.JSON(req)
}
