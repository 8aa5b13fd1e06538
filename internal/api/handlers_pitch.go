package api

import (
	"errors"
	"strings"
	"time"

	"github.com/creait/portal/internal/security"
	"github.com/creait/portal/internal/services"
	"github.com/gofiber/fiber/v2"
)

// ShowPitch is the account-free entry point for shared decks:
// /pitch/:slug?token=...&username=... Every failure — unknown token,
// revoked, expired, wrong gate, rate limited — renders the same generic
// denial, so a probing caller learns nothing about why.
func (handler *Handler) ShowPitch(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	token := strings.TrimSpace(c.Query("token"))
	username := strings.TrimSpace(c.Query("username"))

	tokenPrefix := security.TokenPrefix(token)
	limiterKey := pitchLimiterKey(c, tokenPrefix)
	now := time.Now()
	if handler.pitchLimiter.tooManyRecent(limiterKey, now, pitchAttemptsLimit, pitchAttemptsWindow) {
		handler.logger.Warn().
			Str("slug", slug).
			Str("token_prefix", tokenPrefix).
			Str("ip", c.IP()).
			Msg("pitch access rate limited")
		return apiError(c, fiber.StatusForbidden, messageAccessDenied)
	}

	grant, err := handler.pitches.Validate(slug, token, username, services.AccessAttempt{
		ClientIP:  c.IP(),
		UserAgent: c.Get("User-Agent"),
	})
	if err != nil {
		if isPitchDenial(err) {
			handler.pitchLimiter.addFailure(limiterKey, now, pitchAttemptsWindow)
			handler.logger.Warn().
				Err(err).
				Str("slug", slug).
				Str("token_prefix", tokenPrefix).
				Str("ip", c.IP()).
				Msg("pitch access denied")
		} else {
			handler.logger.Error().Err(err).Str("slug", slug).Msg("pitch validation failed")
		}
		return apiError(c, fiber.StatusForbidden, messageAccessDenied)
	}

	handler.pitchLimiter.reset(limiterKey)
	handler.logger.Info().
		Str("slug", grant.ResourceSlug).
		Str("access_id", grant.PitchAccessID).
		Str("ip", c.IP()).
		Msg("pitch access granted")

	return c.JSON(fiber.Map{
		"resource_slug":  grant.ResourceSlug,
		"recipient_name": grant.RecipientName,
		"expires_at":     grant.ExpiresAt,
	})
}

func isPitchDenial(err error) bool {
	return errors.Is(err, services.ErrTokenInvalid) ||
		errors.Is(err, services.ErrTokenExpired) ||
		errors.Is(err, services.ErrTokenRevoked) ||
		errors.Is(err, services.ErrUsernameGateMismatch)
}
