package contract

import (
	"bytes"
	"context"
	"fmt"
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

type signRequest struct {
	Name string `json:"name"`
}

func NewHandler(service *Service, log *zap.SugaredLogger) *Handler {
	return &Handler{service: service, log: log.Named("contract")}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	managers := user.RequireRole(user.RoleAdmin, user.RoleManager)

	app.Get("/api/v1/contracts", h.list)
	app.Post("/api/v1/contracts", managers, h.generate)
	app.Get("/api/v1/contracts/:id", h.get)
	app.Get("/api/v1/contracts/:id/pdf", h.pdf)
	app.Post("/api/v1/contracts/:id/send", managers, h.send)
	app.Post("/api/v1/contracts/:id/sign", h.sign)
	app.Post("/api/v1/contracts/:id/void", managers, h.void)
}

func (h *Handler) list(c *fiber.Ctx) error {
	target, err := user.Authorize(c, c.QueryInt("userId", 0))
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	// Managers without a userId see every contract.
	if user.IsManagerCtx(c) && c.QueryInt("userId", 0) == 0 {
		target = 0
	}

	contracts, err := h.service.List(c.UserContext(), target)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(contracts)
}

func (h *Handler) generate(c *fiber.Ctx) error {
	payload := new(GenerateInput)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	created, err := h.service.Generate(c.UserContext(), *payload)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// load fetches the contract named by the route and checks the caller may see it.
func (h *Handler) load(c *fiber.Ctx) (Contract, error) {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return Contract{}, fmt.Errorf("%w: invalid contract id", apperr.ErrInvalidArgument)
	}
	contract, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return Contract{}, err
	}
	if _, err := user.Authorize(c, contract.UserID); err != nil {
		return Contract{}, err
	}
	return contract, nil
}

func (h *Handler) get(c *fiber.Ctx) error {
	contract, err := h.load(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(contract)
}

func (h *Handler) pdf(c *fiber.Ctx) error {
	contract, err := h.load(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}

	var buf bytes.Buffer
	if err := h.service.WritePDF(c.UserContext(), &buf, contract); err != nil {
		return apperr.Write(c, h.log, err)
	}
	c.Attachment(fmt.Sprintf("contract-%s.pdf", contract.DocumentKey))
	c.Set(fiber.HeaderContentType, "application/pdf")
	return c.Send(buf.Bytes())
}

func (h *Handler) sign(c *fiber.Ctx) error {
	callerID, err := user.GetUserIDFromCtx(c)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid contract id"})
	}
	payload := new(signRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	signed, err := h.service.Sign(c.UserContext(), id, callerID, payload.Name, c.IP())
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(signed)
}

func (h *Handler) send(c *fiber.Ctx) error {
	return h.change(c, h.service.Send)
}

func (h *Handler) void(c *fiber.Ctx) error {
	return h.change(c, h.service.Void)
}

func (h *Handler) change(c *fiber.Ctx, fn func(context.Context, int) (Contract, error)) error {
	id, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid contract id"})
	}

	updated, err := fn(c.UserContext(), id)
	if err != nil {
		return apperr.Write(c, h.log, err)
	}
	return c.JSON(updated)
}
