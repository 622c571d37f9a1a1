// Package apperr defines application errors that know their HTTP status.
package apperr

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Kind classifies an application error.
type Kind int

const (
	Internal Kind = iota
	InvalidArgument
	NotFound
	Conflict
	Forbidden
	Unauthorized
)

// Error is a domain error with a kind. Wrap it with fmt.Errorf("%w: ...") to
// add detail; the kind survives.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// HTTPStatus maps the kind to a response status.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case InvalidArgument:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// New creates a sentinel error of the given kind.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

var (
	ErrInvalidArgument = New(InvalidArgument, "invalid argument")
	ErrForbidden       = New(Forbidden, "forbidden")
	ErrUnauthorized    = New(Unauthorized, "unauthorized")
)

// KindOf reports the kind of err, Internal when err is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Write renders err as a JSON {"message": ...} response. Unclassified errors
// are logged and answered with a generic 500.
func Write(c *fiber.Ctx, log *zap.SugaredLogger, err error) error {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != Internal {
		return c.Status(ae.HTTPStatus()).JSON(fiber.Map{"message": err.Error()})
	}
	if log != nil {
		log.Errorw("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "internal error"})
}
