package api

import (
	"errors"
	"strings"
	"time"

	"github.com/creait/portal/internal/identity"
	"github.com/gofiber/fiber/v2"
)

type sessionCredentials struct {
	IDToken  string `json:"id_token" form:"id_token"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// CreateSession verifies a presented credential with the identity
// provider and, on success, issues the session cookie. Every credential
// failure is the same generic 401; a provider outage is a 503 so
// monitoring can tell outages from attacks. Nothing here ever fails
// open.
func (handler *Handler) CreateSession(c *fiber.Ctx) error {
	limiterKey := requestLimiterKey(c)
	now := time.Now()
	if handler.loginLimiter.tooManyRecent(limiterKey, now, loginAttemptsLimit, loginAttemptsWindow) {
		handler.logger.Warn().Str("ip", c.IP()).Msg("login rate limited")
		return apiError(c, fiber.StatusTooManyRequests, messageAuthenticationFailed)
	}

	var credentials sessionCredentials
	if err := c.BodyParser(&credentials); err != nil {
		return apiError(c, fiber.StatusBadRequest, messageAuthenticationFailed)
	}

	verified, err := handler.verifyCredentials(c, credentials)
	if err != nil {
		if errors.Is(err, identity.ErrProviderUnavailable) {
			handler.logger.Error().Err(err).Msg("identity provider unavailable")
			return apiError(c, fiber.StatusServiceUnavailable, messageServiceUnavailable)
		}
		handler.loginLimiter.addFailure(limiterKey, now, loginAttemptsWindow)
		handler.logger.Warn().Err(err).Str("ip", c.IP()).Msg("credential verification failed")
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	secret, session, err := handler.sessions.Create(verified.SubjectID, verified.TokenExpiresAt)
	if err != nil {
		// An unprovisioned subject presented a valid provider credential;
		// to the caller that is indistinguishable from a bad one.
		handler.loginLimiter.addFailure(limiterKey, now, loginAttemptsWindow)
		handler.logger.Warn().Err(err).Str("subject", verified.SubjectID).Msg("session creation refused")
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	handler.loginLimiter.reset(limiterKey)
	handler.setSessionCookie(c, secret, session.ExpiresAt)
	handler.logger.Info().Str("subject", verified.SubjectID).Msg("session created")
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) verifyCredentials(c *fiber.Ctx, credentials sessionCredentials) (identity.Verified, error) {
	if token := strings.TrimSpace(credentials.IDToken); token != "" {
		return handler.verifier.VerifyIDToken(c.Context(), token)
	}
	return handler.verifier.VerifyPassword(c.Context(), credentials.Email, credentials.Password)
}

// DestroySession logs the caller out. It is idempotent and always
// returns 200: the cookie is cleared and the server-side record deleted
// whether or not the presented secret was ever valid.
func (handler *Handler) DestroySession(c *fiber.Ctx) error {
	secret := strings.TrimSpace(c.Cookies(sessionCookieName))
	if err := handler.sessions.Destroy(secret); err != nil {
		// The record may outlive this failure; the cookie still dies.
		handler.logger.Error().Err(err).Msg("session destroy failed")
	}
	handler.clearSessionCookie(c)
	return c.JSON(fiber.Map{"ok": true})
}

// DestroyAllSessions signs the caller out everywhere: every session
// record for the subject dies, not just the one behind this cookie.
// Unlike DestroySession it requires a valid session, since it acts on
// the whole subject.
func (handler *Handler) DestroyAllSessions(c *fiber.Ctx) error {
	subject, ok := currentSubject(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	if err := handler.sessions.DestroyAll(subject.Profile.SubjectID); err != nil {
		handler.logger.Error().Err(err).Str("subject", subject.Profile.SubjectID).Msg("destroy all sessions failed")
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}

	handler.clearSessionCookie(c)
	handler.logger.Info().Str("subject", subject.Profile.SubjectID).Msg("all sessions destroyed")
	return c.JSON(fiber.Map{"ok": true})
}

// CurrentSession reports who the cookie resolves to right now. The
// portal shell uses it to decide which navigation to render.
func (handler *Handler) CurrentSession(c *fiber.Ctx) error {
	subject, ok := currentSubject(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}
	return c.JSON(fiber.Map{
		"subject_id": subject.Profile.SubjectID,
		"email":      subject.Profile.Email,
		"role":       subject.Role.String(),
	})
}

func (handler *Handler) setSessionCookie(c *fiber.Ctx, secret string, expiresAt time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    secret,
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Strict",
		Expires:  expiresAt,
	})
}

func (handler *Handler) clearSessionCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		Secure:   handler.cookieSecure,
		SameSite: "Strict",
		Expires:  time.Now().Add(-1 * time.Hour),
	})
}
