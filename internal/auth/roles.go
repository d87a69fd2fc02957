package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/domain"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// RequireRole ensures the authenticated principal carries the given role.
func RequireRole(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewAuthenticationError("unauthorised request")
		}
		if principal.Role != role {
			return apperrors.NewForbidden(role.Label() + " role required")
		}
		return c.Next()
	}
}
