package identity

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/shiftdesk/shiftdesk/internal/authz"
)

// principalKey is the fiber locals key holding the resolved principal.
const principalKey = "principal"

// Middleware resolves the principal of every request and stores it in
// fiber locals. Requests without a valid bearer token are rejected before
// any data access.
func Middleware(resolver *Resolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": authz.ErrUnauthenticated.Error()})
		}

		principal, err := resolver.Resolve(token)
		if err != nil {
			log.Warn().Str("ip", c.IP()).Msg("invalid bearer token")

			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": authz.ErrUnauthenticated.Error()})
		}

		c.Locals(principalKey, principal)

		return c.Next()
	}
}

// FromCtx returns the principal resolved for the request. The second
// return is false when the middleware did not run, which is a wiring bug.
func FromCtx(c *fiber.Ctx) (authz.Principal, bool) {
	p, ok := c.Locals(principalKey).(authz.Principal)
	return p, ok
}

// RequireRole creates middleware admitting only principals at or above
// the lowest of the given roles. Denials are counted on the operational
// error channel.
func RequireRole(resource string, roles ...authz.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := FromCtx(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).
				JSON(fiber.Map{"error": authz.ErrUnauthenticated.Error()})
		}

		if !authz.HasMinimumRole(p.Role, roles...) {
			authz.CountDenial(resource, c.Method())
			log.Warn().Str("user_id", p.ID).Str("role", string(p.Role)).
				Str("resource", resource).Msg("insufficient role")

			return c.Status(fiber.StatusForbidden).
				JSON(fiber.Map{"error": authz.ErrForbidden.Error()})
		}

		return c.Next()
	}
}
