package schedule

import (
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
	return &Handler{service: service, log: log.Named("schedule")}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	managers := user.RequireRole(user.RoleAdmin, user.RoleManager)

	app.Get("/api/v1/schedule", h.list)
	app.Post("/api/v1/schedule", managers, h.create)
	app.Post("/api/v1/schedule/generate", managers, h.generate)
	app.Put("/api/v1/schedule/:id", managers, h.update)
	app.Delete("/api/v1/schedule/:id", managers, h.delete)
}

// list shows the caller's shifts; managers see everyone unless userId is set.
func (h *Handler) list(c *fiber.Ctx) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	filter := Filter{UserID: callerID, From: c.Query("from"), To: c.Query("to"), Source: Source(c.Query("source"))}
	if user.IsManagerCtx(c) {
		filter.UserID = c.QueryInt("userId", 0)
	} else if target := c.QueryInt("userId", 0); target != 0 && target != callerID {
		return apperr.Write(c, h.log, apperr.ErrForbidden)
	}

	shifts, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(shifts)
}

func (h *Handler) create(c *fiber.Ctx) error {
	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Create(c.UserContext(), *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) update(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid shift id"})
	}

	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	updated, err := h.service.Update(c.UserContext(), id, *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(updated)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid shift id"})
	}

	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Shift deleted"})
}

func (h *Handler) generate(c *fiber.Ctx) error {
	payload := new(GenerateRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	result, err := h.service.Generate(c.UserContext(), *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}
