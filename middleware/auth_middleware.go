// Package middleware extracts the acting identity from incoming requests.
// Authentication itself happens at the external identity provider; this
// layer only consumes tokens it did not issue and attaches the actor to the
// request context for audit attribution.
package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"conciliacao/models"
	"conciliacao/utils"
)

// ActorMiddleware resolves the acting user from either a Bearer token issued
// by the identity provider (UI callers) or the X-User-ID/X-User-Name compat
// headers (API/system callers). Requests without any identity are rejected:
// every mutation must be attributable.
func ActorMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")

		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			userIDStr := c.Get("X-User-ID")
			if userIDStr == "" {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "missing identity token",
				})
			}

			userID, err := strconv.Atoi(userIDStr)
			if err != nil {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "invalid user id header",
				})
			}

			c.Locals("user_id", uint(userID))
			c.Locals("user_name", c.Get("X-User-Name"))
			c.Locals("origin", models.AuditOriginAPI)
			return c.Next()
		}

		tokenString := authHeader[7:]
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "invalid identity token",
			})
		}

		c.Locals("user_id", claims.UserID)
		c.Locals("user_name", claims.Name)
		c.Locals("user_role", claims.Role)
		c.Locals("origin", models.AuditOriginUI)
		return c.Next()
	}
}
