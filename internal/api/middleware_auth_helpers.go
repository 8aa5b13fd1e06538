package api

import (
	"errors"
	"strings"

	"github.com/creait/portal/internal/models"
	"github.com/creait/portal/internal/services"
	"github.com/gofiber/fiber/v2"
)

// SessionRequired resolves the session cookie to a subject and stashes
// it in the request context. Any failure is the same generic 401; the
// distinct cause only reaches the log.
func (handler *Handler) SessionRequired(c *fiber.Ctx) error {
	secret := strings.TrimSpace(c.Cookies(sessionCookieName))
	subject, err := handler.sessions.Validate(secret)
	if err != nil {
		if !errors.Is(err, services.ErrAuthenticationFailed) {
			handler.logger.Error().Err(err).Str("ip", c.IP()).Msg("session validation failed")
		} else {
			handler.logger.Warn().Str("ip", c.IP()).Str("path", c.Path()).Msg("rejected session credential")
		}
		handler.clearSessionCookie(c)
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	c.Locals(contextSubjectKey, subject)
	return c.Next()
}

// RoleRequired gates a route at a minimum role. The role is resolved
// from the profile store again at the gate rather than trusting whatever
// the session carried; a demotion committed between the two reads still
// bites.
func (handler *Handler) RoleRequired(required models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, ok := currentSubject(c)
		if !ok {
			return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
		}

		role, err := handler.authorizer.RequireAtLeast(subject.Profile.SubjectID, required)
		switch {
		case err == nil:
			subject.Role = role
			c.Locals(contextSubjectKey, subject)
			return c.Next()
		case errors.Is(err, services.ErrAuthorizationDenied):
			handler.logger.Warn().
				Str("subject", subject.Profile.SubjectID).
				Str("role", role.String()).
				Str("required", required.String()).
				Str("path", c.Path()).
				Msg("authorization denied")
			return apiError(c, fiber.StatusForbidden, messageForbidden)
		case errors.Is(err, services.ErrNotProvisioned):
			handler.clearSessionCookie(c)
			return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
		default:
			handler.logger.Error().Err(err).Str("path", c.Path()).Msg("role resolution failed")
			return apiError(c, fiber.StatusInternalServerError, "internal error")
		}
	}
}
