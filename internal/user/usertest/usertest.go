// Package usertest provides request helpers for handler tests.
package usertest

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
)

// FakeAuth injects a jwt.Token into locals when the X-User-ID header is
// provided, with the role taken from X-User-Role. It stands in for the jwtware
// middleware so tests need no signing key.
func FakeAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			id, err := strconv.Atoi(v)
			if err == nil {
				claims := jwt.MapClaims{"user_id": id}
				if role := c.Get("X-User-Role"); role != "" {
					claims["role"] = role
				}
				c.Locals("user", &jwt.Token{Claims: claims})
			}
		}
		return c.Next()
	}
}
