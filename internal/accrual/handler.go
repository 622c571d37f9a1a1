package accrual

import (
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

type runRequest struct {
	From   string `json:"from"`
	To     string `json:"to"`
	UserID int    `json:"userId"`
}

func NewHandler(service *Service, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, log: log.Named("accrual")}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/accrual/summary", h.summary)
	app.Get("/api/v1/accrual/weekly-overtime", h.weeklyOvertime)
	app.Get("/api/v1/accrual/records", h.records)
	app.Post("/api/v1/accrual/run", user.RequireRole(user.RoleAdmin, user.RoleManager), h.run)
}

func (h *Handler) summary(c *fiber.Ctx) error {
	userID, per, err := h.targetAndPeriod(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	sum, err := h.service.Summarize(c.UserContext(), userID, per)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(sum)
}

func (h *Handler) weeklyOvertime(c *fiber.Ctx) error {
	userID, per, err := h.targetAndPeriod(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	weeks, err := h.service.WeeklyOvertime(c.UserContext(), userID, per)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(fiber.Map{"userId": userID, "weeks": weeks})
}

func (h *Handler) records(c *fiber.Ctx) error {
	userID, err := user.Authorize(c, c.QueryInt("userId", 0))
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	records, err := h.service.Records(c.UserContext(), userID)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(records)
}

// run accrues the period for one user, or for every active user when userId
// is omitted. The period defaults to the previous month.
func (h *Handler) run(c *fiber.Ctx) error {
	payload := new(runRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(payload); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}
	}

	per := period.PreviousMonth(time.Now())
	if payload.From != "" || payload.To != "" {
		parsed, err := period.Parse(payload.From, payload.To)
		if err != nil {
			return apperr.Write(c, h.log, err)
		}
		per = parsed
	}

	if payload.UserID != 0 {
		rec, err := h.service.Accrue(c.UserContext(), payload.UserID, per)
		if err != nil {
			return apperr.Write(c, h.log, err)
		}
		return c.JSON(rec)
	}

	result, err := h.service.RunAll(c.UserContext(), per)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(result)
}

func (h *Handler) targetAndPeriod(c *fiber.Ctx) (int, period.Period, error) {
	userID, err := user.Authorize(c, c.QueryInt("userId", 0))
	if err != nil {
		return 0, period.Period{}, err
	}
	per, err := period.ParseOrMonth(c.Query("from"), c.Query("to"), time.Now())
	if err != nil {
		return 0, period.Period{}, err
	}
	return userID, per, nil
}
