package api

import (
	"github.com/creait/portal/internal/services"
	"github.com/gofiber/fiber/v2"
)

func apiError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

func currentSubject(c *fiber.Ctx) (services.AuthenticatedSubject, bool) {
	subject, ok := c.Locals(contextSubjectKey).(services.AuthenticatedSubject)
	return subject, ok
}
