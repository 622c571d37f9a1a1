package timeentry

import (
	"bytes"
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/jobflow/jobflow-backend/internal/apperr"
	"github.com/jobflow/jobflow-backend/internal/export"
	"github.com/jobflow/jobflow-backend/internal/period"
	"github.com/jobflow/jobflow-backend/internal/user"
)

// UserLookup resolves employee names for exported timesheets.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (user.User, error)
}

type Handler struct {
	service *Service
	users   UserLookup
	log     *zap.SugaredLogger
}

type bulkApproveRequest struct {
	IDs []int `json:"ids"`
}

func NewHandler(service *Service, users UserLookup, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, users: users, log: log.Named("timeentry")}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	managers := user.RequireRole(user.RoleAdmin, user.RoleManager)

	app.Get("/api/v1/time-entries", h.list)
	app.Post("/api/v1/time-entries", h.create)
	app.Get("/api/v1/time-entries/approvals", managers, h.approvals)
	app.Get("/api/v1/time-entries/export", h.export)
	app.Post("/api/v1/time-entries/approve", managers, h.bulkApprove)
	app.Get("/api/v1/time-entries/:id", h.get)
	app.Put("/api/v1/time-entries/:id", h.update)
	app.Delete("/api/v1/time-entries/:id", h.delete)
	app.Post("/api/v1/time-entries/:id/approve", managers, h.approve)
	app.Post("/api/v1/time-entries/:id/reject", managers, h.reject)
}

// list returns the caller's entries; managers may pass userId or omit it to
// see everyone.
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

	entries, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(entries)
}

func (h *Handler) get(c *fiber.Ctx) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid entry id"})
	}
	entry, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	if _, err := user.Authorize(c, entry.UserID); err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(entry)
}

func (h *Handler) create(c *fiber.Ctx) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Create(c.UserContext(), callerID, *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *Handler) update(c *fiber.Ctx) error {
	actor, id, err := h.actorAndID(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	payload := new(Input)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	updated, err := h.service.Update(c.UserContext(), actor, id, *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(updated)
}

func (h *Handler) delete(c *fiber.Ctx) error {
	actor, id, err := h.actorAndID(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	if err := h.service.Delete(c.UserContext(), actor, id); err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(fiber.Map{"message": "Time entry deleted"})
}

func (h *Handler) approve(c *fiber.Ctx) error {
	return h.decide(c, h.service.Approve)
}

func (h *Handler) reject(c *fiber.Ctx) error {
	return h.decide(c, h.service.Reject)
}

func (h *Handler) decide(c *fiber.Ctx, fn func(context.Context, int, int) (Entry, error)) error {
	actor, id, err := h.actorAndID(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	entry, err := fn(c.UserContext(), id, actor.UserID)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	h.log.Infow("time entry decided", "entry_id", id, "status", entry.Status, "approver", actor.UserID)
	return c.JSON(entry)
}

func (h *Handler) bulkApprove(c *fiber.Ctx) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	payload := new(bulkApproveRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if len(payload.IDs) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "ids are required"})
	}

	approved, err := h.service.BulkApprove(c.UserContext(), payload.IDs, callerID)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(fiber.Map{"approved": approved})
}

func (h *Handler) approvals(c *fiber.Ctx) error {
	per, err := period.ParseOrMonth(c.Query("from"), c.Query("to"), time.Now())
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	summaries, err := h.service.Approvals(c.UserContext(), per, c.QueryInt("userId", 0))
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"from":  per.From.Format(period.DateLayout),
		"to":    per.To.Format(period.DateLayout),
		"users": summaries,
	})
}

// export renders a timesheet of one user as ?format=xlsx (default) or pdf.
func (h *Handler) export(c *fiber.Ctx) error {
	target, err := user.Authorize(c, c.QueryInt("userId", 0))
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	per, err := period.ParseOrMonth(c.Query("from"), c.Query("to"), time.Now())
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	employee, err := h.users.GetByID(c.UserContext(), target)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	entries, err := h.service.List(c.UserContext(), Filter{
		UserID: target,
		From:   per.From.Format(period.DateLayout),
		To:     per.To.Format(period.DateLayout),
		Status: Status(c.Query("status")),
	})
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	sheet := export.Timesheet{Employee: employee.FullName(), Period: per.String()}
	for _, e := range entries {
		sheet.Rows = append(sheet.Rows, export.TimesheetRow{
			Date:         e.Date,
			Start:        e.StartTime,
			End:          e.EndTime,
			BreakMinutes: e.BreakMinutes,
			Hours:        e.Hours,
			Status:       string(e.Status),
			Note:         e.Note,
		})
	}

	var buf bytes.Buffer
	switch c.Query("format", "xlsx") {
	case "xlsx":
		if err := export.TimesheetXLSX(&buf, sheet); err != nil {
			return apperr.Write(c, h.log, err)
		}
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Attachment(sheet.Filename("xlsx"))
	case "pdf":
		if err := export.TimesheetPDF(&buf, sheet); err != nil {
			return apperr.Write(c, h.log, err)
		}
		c.Set(fiber.HeaderContentType, "application/pdf")
		c.Attachment(sheet.Filename("pdf"))
	default:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "format must be xlsx or pdf"})
	}
	return c.Send(buf.Bytes())
}

func (h *Handler) actorAndID(c *fiber.Ctx) (Actor, int, error) {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return Actor{}, 0, err
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Actor{}, 0, apperr.New(apperr.InvalidArgument, "invalid entry id")
	}
	return Actor{UserID: callerID, Manager: user.IsManagerCtx(c)}, id, nil
}
