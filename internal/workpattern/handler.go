package workpattern

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/user"
)

type Handler struct {
	service *Service
	log     *zap.SugaredLogger
}

func NewHandler(service *Service, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, log: log.Named("workpattern")}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/work-patterns/:userId", h.getPattern)
	app.Get("/api/v1/work-patterns/:userId/planned-hours", h.plannedHours)
	app.Put("/api/v1/work-patterns/:userId", user.RequireRole(user.RoleAdmin, user.RoleManager), h.putPattern)
}

func (h *Handler) getPattern(c *fiber.Ctx) error {
	userID, err := h.target(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	p, err := h.service.Get(c.UserContext(), userID)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(p)
}

func (h *Handler) putPattern(c *fiber.Ctx) error {
	userID, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid user id"})
	}

	payload := new(Pattern)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	saved, err := h.service.Put(c.UserContext(), userID, *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(saved)
}

func (h *Handler) plannedHours(c *fiber.Ctx) error {
	userID, err := h.target(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	per, err := period.ParseOrMonth(c.Query("from"), c.Query("to"), time.Now())
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	hours, err := h.service.PlannedHours(c.UserContext(), userID, per)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"userId":       userID,
		"from":         per.From.Format(period.DateLayout),
		"to":           per.To.Format(period.DateLayout),
		"plannedHours": math.Round(hours*100) / 100,
	})
}

func (h *Handler) target(c *fiber.Ctx) (int, error) {
	id, err := strconv.Atoi(c.Params("userId"))
	if err != nil {
		return 0, apperr.New(apperr.InvalidArgument, "invalid user id")
	}
	return user.Authorize(c, id)
}
