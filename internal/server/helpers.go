package server

import (
	"errors"
	"strings"

	"capmatch/internal/middleware"
	"capmatch/internal/models"
	"capmatch/internal/repository"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// respondData renders the success envelope around a payload.
func respondData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

// respondMessage renders a success envelope carrying only a message.
func respondMessage(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
	})
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "projectId" -> "project ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "Id") {
		return strings.ToLower(param[:len(param)-2]) + " ID"
	}
	return param
}

// resolveStudent maps the authenticated caller to their student profile.
// Writes a response and returns errResponseWritten on failure.
func (s *Server) resolveStudent(c *fiber.Ctx) (*models.Student, error) {
	caller := middleware.CallerIdentity(c)
	student, err := s.studentRepo.GetByUserID(c.UserContext(), caller.UserID)
	if err != nil {
		_ = models.RespondWithServiceError(c, err)
		return nil, errResponseWritten
	}
	return student, nil
}

// resolveSupervisor maps the authenticated caller to their supervisor profile.
func (s *Server) resolveSupervisor(c *fiber.Ctx) (*models.Supervisor, error) {
	caller := middleware.CallerIdentity(c)
	supervisor, err := s.supervisorRepo.GetByUserID(c.UserContext(), caller.UserID)
	if err != nil {
		_ = models.RespondWithServiceError(c, err)
		return nil, errResponseWritten
	}
	return supervisor, nil
}

// parseDirection reads the "type" query parameter as a request direction.
func parseDirection(c *fiber.Ctx) repository.RequestDirection {
	switch c.Query("type") {
	case "incoming":
		return repository.RequestDirectionIncoming
	case "outgoing":
		return repository.RequestDirectionOutgoing
	default:
		return repository.RequestDirectionAll
	}
}
