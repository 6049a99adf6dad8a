package server

import (
	"github.com/gofiber/fiber/v2"
)

// envelope is the single wire shape for every response, success or failure.
// Middleware rejections funnel through the same envelope as handler errors.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func respondError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(envelope{
		Success: false,
		Error:   message,
	})
}
