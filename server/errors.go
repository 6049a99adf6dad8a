package server

import (
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"

	"github.com/subtrackd/subtrack"
)

// fallbackMessage is what clients see for unclassified failures
const fallbackMessage = "Server error"

// handleError is the terminal error stage: every failure surfaced from a
// handler or middleware lands here and leaves as the uniform envelope. It
// never throws; if writing the envelope itself fails we fall back to a plain
// 500.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status, message := normalizeError(err)

	// Full detail stays server side; clients only get the normalized message.
	s.logger.Error("request failed",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"error", err,
	)

	if writeErr := respondError(c, status, message); writeErr != nil {
		s.logger.Error("failed to write error response", "error", writeErr)
		return c.Status(fiber.StatusInternalServerError).SendString(fallbackMessage)
	}

	return nil
}

// normalizeError maps heterogeneous failure shapes onto a status and a client
// facing message. Rules are applied in order; first match wins.
func normalizeError(err error) (int, string) {
	// Missing records and malformed identifiers both present as a plain 404.
	if repository.IsRecordNotFound(err) {
		return fiber.StatusNotFound, "Resource not found"
	}

	if subtrack.IsDuplicateKeyError(err) {
		return fiber.StatusBadRequest, "Duplicate field value entered"
	}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		return fiber.StatusBadRequest, joinValidationErrors(vErrs)
	}

	var richErr *errors.Error
	if errors.As(err, &richErr) {
		// No code means nobody classified this for clients; the internal
		// message stays internal.
		if richErr.Code == 0 {
			return fiber.StatusInternalServerError, fallbackMessage
		}
		return richErr.Code, richErr.Message
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}

	return fiber.StatusInternalServerError, fallbackMessage
}

// joinValidationErrors flattens ozzo's field->error map into one message,
// preserving every violated field rather than only the first. Fields are
// sorted so the output is deterministic.
func joinValidationErrors(vErrs validation.Errors) string {
	fields := make([]string, 0, len(vErrs))
	for field := range vErrs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		if fieldErr := vErrs[field]; fieldErr != nil {
			messages = append(messages, field+" "+fieldErr.Error())
		}
	}

	return strings.Join(messages, ", ")
}
