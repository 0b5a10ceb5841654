package middleware

import (
	"github.com/gofiber/fiber/v2"

	"bloodlink/internal/domain"
)

func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := GetCurrentActor(c)
		if actor == nil {
			return Unauthorized("Actor not authenticated")
		}

		if !actor.HasRole(roles...) {
			return Forbidden("Insufficient permissions for this operation")
		}

		return c.Next()
	}
}

// RequireResponder admits the roles that can receive alerts and accept requests.
func RequireResponder() fiber.Handler {
	return RequireRole(domain.RoleDonor, domain.RoleBloodBank, domain.RoleNGO)
}
