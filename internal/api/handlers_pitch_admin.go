package api

import (
	"errors"
	"strings"
	"time"

	"github.com/creait/portal/internal/models"
	"github.com/creait/portal/internal/services"
	"github.com/gofiber/fiber/v2"
)

type issuePitchAccessPayload struct {
	ResourceSlug     string `json:"resource_slug" form:"resource_slug"`
	ExpiryDays       int    `json:"expiry_days" form:"expiry_days"`
	UsernameGate     string `json:"username_gate" form:"username_gate"`
	RecipientName    string `json:"recipient_name" form:"recipient_name"`
	RecipientCompany string `json:"recipient_company" form:"recipient_company"`
	Notes            string `json:"notes" form:"notes"`
}

// IssuePitchAccess mints a sharing link. The response is the only place
// the plaintext token ever appears; it is not recoverable afterwards.
func (handler *Handler) IssuePitchAccess(c *fiber.Ctx) error {
	subject, ok := currentSubject(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	var payload issuePitchAccessPayload
	if err := c.BodyParser(&payload); err != nil {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	issued, err := handler.pitches.Issue(subject.Profile.SubjectID, subject.Role, services.IssueInput{
		ResourceSlug:     payload.ResourceSlug,
		ExpiryDays:       payload.ExpiryDays,
		UsernameGate:     payload.UsernameGate,
		RecipientName:    payload.RecipientName,
		RecipientCompany: payload.RecipientCompany,
		Notes:            payload.Notes,
	})
	if err != nil {
		if errors.Is(err, services.ErrAuthorizationDenied) {
			return apiError(c, fiber.StatusForbidden, messageForbidden)
		}
		return apiError(c, fiber.StatusBadRequest, err.Error())
	}

	handler.logger.Info().
		Str("subject", subject.Profile.SubjectID).
		Str("slug", issued.ResourceSlug).
		Str("access_id", issued.PitchAccessID).
		Time("expires_at", issued.ExpiresAt).
		Msg("pitch access issued")

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"pitch_access_id": issued.PitchAccessID,
		"resource_slug":   issued.ResourceSlug,
		"token":           issued.Token,
		"expires_at":      issued.ExpiresAt,
	})
}

func (handler *Handler) ListPitchAccess(c *fiber.Ctx) error {
	subject, ok := currentSubject(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	accesses, err := handler.pitches.List(subject.Profile.SubjectID, subject.Role, c.Query("slug"))
	if err != nil {
		return handler.respondPitchAdminError(c, err)
	}

	items := make([]fiber.Map, 0, len(accesses))
	for _, access := range accesses {
		items = append(items, pitchAccessView(access))
	}
	return c.JSON(fiber.Map{"items": items})
}

type extendPitchAccessPayload struct {
	ExpiresAt time.Time `json:"expires_at" form:"expires_at"`
}

func (handler *Handler) ExtendPitchAccess(c *fiber.Ctx) error {
	subject, ok := currentSubject(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	var payload extendPitchAccessPayload
	if err := c.BodyParser(&payload); err != nil || payload.ExpiresAt.IsZero() {
		return apiError(c, fiber.StatusBadRequest, "invalid input")
	}

	access, err := handler.pitches.Extend(subject.Profile.SubjectID, subject.Role, strings.TrimSpace(c.Params("id")), payload.ExpiresAt)
	if err != nil {
		return handler.respondPitchAdminError(c, err)
	}

	handler.logger.Info().
		Str("subject", subject.Profile.SubjectID).
		Str("access_id", access.ID).
		Time("expires_at", access.ExpiresAt).
		Msg("pitch access extended")
	return c.JSON(pitchAccessView(access))
}

func (handler *Handler) RevokePitchAccess(c *fiber.Ctx) error {
	subject, ok := currentSubject(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	accessID := strings.TrimSpace(c.Params("id"))
	if err := handler.pitches.Revoke(subject.Profile.SubjectID, subject.Role, accessID); err != nil {
		return handler.respondPitchAdminError(c, err)
	}

	handler.logger.Info().
		Str("subject", subject.Profile.SubjectID).
		Str("access_id", accessID).
		Msg("pitch access revoked")
	return c.JSON(fiber.Map{"ok": true})
}

func (handler *Handler) GetPitchAccessLog(c *fiber.Ctx) error {
	subject, ok := currentSubject(c)
	if !ok {
		return apiError(c, fiber.StatusUnauthorized, messageAuthenticationFailed)
	}

	events, err := handler.pitches.AccessLog(subject.Profile.SubjectID, subject.Role, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return handler.respondPitchAdminError(c, err)
	}

	items := make([]fiber.Map, 0, len(events))
	for _, event := range events {
		items = append(items, fiber.Map{
			"viewed_at":  event.ViewedAt,
			"client_ip":  event.ClientIP,
			"username":   event.Username,
			"user_agent": event.UserAgent,
		})
	}
	return c.JSON(fiber.Map{"items": items})
}

func (handler *Handler) respondPitchAdminError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrAuthorizationDenied):
		return apiError(c, fiber.StatusForbidden, messageForbidden)
	case errors.Is(err, services.ErrAccessNotFound):
		return apiError(c, fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrExtendNotForward),
		errors.Is(err, services.ErrTokenRevoked):
		return apiError(c, fiber.StatusConflict, err.Error())
	default:
		handler.logger.Error().Err(err).Str("path", c.Path()).Msg("pitch admin operation failed")
		return apiError(c, fiber.StatusInternalServerError, "internal error")
	}
}

// pitchAccessView is the audit-listing shape. It deliberately exposes
// only the token hash prefix: enough for a human to match a record to a
// log line, useless for access.
func pitchAccessView(access models.PitchAccess) fiber.Map {
	view := fiber.Map{
		"pitch_access_id":   access.ID,
		"resource_slug":     access.ResourceSlug,
		"token_hash_prefix": access.TokenHash[:8],
		"gated":             access.HasUsernameGate(),
		"recipient_name":    access.RecipientName,
		"recipient_company": access.RecipientCompany,
		"notes":             access.Notes,
		"issued_by":         access.IssuedBy,
		"created_at":        access.CreatedAt,
		"expires_at":        access.ExpiresAt,
		"revoked":           access.Revoked,
		"view_count":        access.ViewCount,
	}
	if access.LastViewedAt != nil {
		view["last_viewed_at"] = *access.LastViewedAt
	}
	return view
}
