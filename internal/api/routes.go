package api

import (
	"github.com/creait/portal/internal/models"
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/healthz", handler.Health)

	// Account-free sharing-link path. Deliberately outside the session
	// middleware: the two credential spaces never meet.
	app.Get("/pitch/:slug", handler.ShowPitch)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/session", handler.CreateSession)
	auth.Delete("/session", handler.DestroySession)
	auth.Get("/session", handler.SessionRequired, handler.CurrentSession)
	auth.Delete("/sessions", handler.SessionRequired, handler.DestroyAllSessions)

	pitchAccess := api.Group("/pitch-access", handler.SessionRequired)
	pitchAccess.Post("", handler.RoleRequired(models.RoleTeam), handler.IssuePitchAccess)
	pitchAccess.Get("", handler.RoleRequired(models.RoleTeam), handler.ListPitchAccess)
	pitchAccess.Post("/:id/extend", handler.RoleRequired(models.RoleTeam), handler.ExtendPitchAccess)
	pitchAccess.Post("/:id/revoke", handler.RoleRequired(models.RoleTeam), handler.RevokePitchAccess)
	pitchAccess.Get("/:id/log", handler.RoleRequired(models.RoleTeam), handler.GetPitchAccessLog)
}

func (handler *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
