package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/moderation-service/pkg/util/errorutil"
)

// RequireCapability ensures the principal's role grants every listed capability.
func RequireCapability(required ...Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		caps := principal.Capabilities()
		for _, capability := range required {
			if !caps.Has(capability) {
				return apperrors.NewUnauthorized("missing capability " + string(capability))
			}
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated.
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthenticated("authentication required")
		}
		return c.Next()
	}
}
