package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/networkhq/network-intake/internal/domain"
	apperrors "github.com/networkhq/network-intake/pkg/util"
)

// RequireAdmin ensures the caller authenticated as an administrator.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if principal.SubjectType != domain.SubjectTypeAdmin {
			return apperrors.NewForbidden("admin role required")
		}
		return c.Next()
	}
}
