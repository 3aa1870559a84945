package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RoleAdmin is the only role the service issues.
const RoleAdmin = "admin"

// AdminSubject is the token subject for the shared admin credential.
const AdminSubject = "helpdesk-admin"

// RequireRole ensures the authenticated principal carries role.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if principal.Role != role {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}
