package user

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/jobflow/jobflow-backend/internal/apperr"
)

// NewToken signs a JWT carrying the user_id and role claims.
func NewToken(user User, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    string(user.Role),
		"email":   user.Email,
		"exp":     time.Now().Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates a raw token string, as the websocket handshake has no
// Authorization header to hand to the middleware.
func ParseToken(raw, secret string) (int, Role, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperr.ErrUnauthorized
		}
		return []byte(secret), nil
	})
	if err != nil || !tok.Valid {
		return 0, "", apperr.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, "", apperr.ErrUnauthorized
	}
	id, err := claimInt(claims["user_id"])
	if err != nil {
		return 0, "", err
	}
	role, _ := claims["role"].(string)
	return id, Role(role), nil
}

// NewJWTMiddleware guards every route registered after it.
func NewJWTMiddleware(secret string) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: []byte(secret),
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		},
	})
}

// GetUserIDFromCtx extracts the user_id claim from the JWT token stored
// in `c.Locals("user")`.
func GetUserIDFromCtx(c *fiber.Ctx) (int, error) {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return 0, err
	}
	return claimInt(claims["user_id"])
}

// GetRoleFromCtx returns the role claim, employee when it is absent.
func GetRoleFromCtx(c *fiber.Ctx) Role {
	claims, err := claimsFromCtx(c)
	if err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return RoleEmployee
	}
	return Role(role)
}

// IsManagerCtx reports whether the caller may act on other employees.
func IsManagerCtx(c *fiber.Ctx) bool {
	role := GetRoleFromCtx(c)
	return role == RoleAdmin || role == RoleManager
}

// RequireRole rejects callers whose role is not in roles.
func RequireRole(roles ...Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := GetUserIDFromCtx(c); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "unauthorized"})
		}
		role := GetRoleFromCtx(c)
		for _, r := range roles {
			if role == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"message": "forbidden"})
	}
}

// Authorize resolves whose records the caller is acting on. An empty target
// means the caller; other users require a manager or admin.
func Authorize(c *fiber.Ctx, target int) (int, error) {
	callerID, err := GetUserIDFromCtx(c)
	if err != nil {
		return 0, apperr.ErrUnauthorized
	}
	if target == 0 || target == callerID {
		return callerID, nil
	}
	if !IsManagerCtx(c) {
		return 0, apperr.ErrForbidden
	}
	return target, nil
}

func claimsFromCtx(c *fiber.Ctx) (jwt.MapClaims, error) {
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return nil, apperr.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.ErrUnauthorized
	}
	return claims, nil
}

func claimInt(raw any) (int, error) {
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, apperr.ErrUnauthorized
		}
		return id, nil
	default:
		return 0, apperr.ErrUnauthorized
	}
}
