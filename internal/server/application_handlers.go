package server

import (
	"capmatch/internal/middleware"
	"capmatch/internal/models"
	"capmatch/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateApplication handles POST /api/applications. Student-only; the
// submitting student is resolved from the bearer identity, never from the
// payload.
func (s *Server) CreateApplication(c *fiber.Ctx) error {
	student, err := s.resolveStudent(c)
	if err != nil {
		return nil
	}

	var input service.CreateApplicationInput
	if err := c.BodyParser(&input); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	app, err := s.applicationService.CreateApplication(c.UserContext(), student.ID, input)
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusCreated, app)
}

// GetApplications handles GET /api/applications. Students see their own
// submissions; supervisors see applications addressed to them.
func (s *Server) GetApplications(c *fiber.Ctx) error {
	caller := middleware.CallerIdentity(c)

	switch caller.Role {
	case models.RoleStudent:
		student, err := s.resolveStudent(c)
		if err != nil {
			return nil
		}
		apps, err := s.applicationService.ListByStudent(c.UserContext(), student.ID)
		if err != nil {
			return models.RespondWithServiceError(c, err)
		}
		return respondData(c, fiber.StatusOK, apps)

	case models.RoleSupervisor:
		supervisor, err := s.resolveSupervisor(c)
		if err != nil {
			return nil
		}
		apps, err := s.applicationService.ListBySupervisor(c.UserContext(), supervisor.ID)
		if err != nil {
			return models.RespondWithServiceError(c, err)
		}
		return respondData(c, fiber.StatusOK, apps)

	default:
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Listing requires a student or supervisor profile"))
	}
}

// CheckDuplicateApplication handles GET /api/applications/duplicate-check.
func (s *Server) CheckDuplicateApplication(c *fiber.Ctx) error {
	student, err := s.resolveStudent(c)
	if err != nil {
		return nil
	}

	supervisorID := c.QueryInt("supervisor_id")
	if supervisorID <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("supervisor_id query parameter is required"))
	}

	duplicate, err := s.applicationService.CheckDuplicate(c.UserContext(), student.ID, uint(supervisorID))
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, fiber.Map{"duplicate": duplicate})
}

type updateApplicationStatusRequest struct {
	Status   string `json:"status"`
	Feedback string `json:"feedback"`
}

// UpdateApplicationStatus handles PATCH /api/applications/:id/status.
func (s *Server) UpdateApplicationStatus(c *fiber.Ctx) error {
	applicationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req updateApplicationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	caller := middleware.CallerIdentity(c)
	app, err := s.applicationService.UpdateStatus(c.UserContext(), caller,
		applicationID, models.ApplicationStatus(req.Status), req.Feedback)
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, app)
}

// ResubmitApplication handles POST /api/applications/:id/resubmit.
func (s *Server) ResubmitApplication(c *fiber.Ctx) error {
	applicationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	caller := middleware.CallerIdentity(c)
	app, err := s.applicationService.ResubmitApplication(c.UserContext(), caller, applicationID)
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, app)
}

// WithdrawApplication handles DELETE /api/applications/:id.
func (s *Server) WithdrawApplication(c *fiber.Ctx) error {
	applicationID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	caller := middleware.CallerIdentity(c)
	if err := s.applicationService.WithdrawApplication(c.UserContext(), caller, applicationID); err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondMessage(c, fiber.StatusOK, "Application withdrawn")
}
