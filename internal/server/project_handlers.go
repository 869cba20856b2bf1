package server

import (
	"capmatch/internal/middleware"
	"capmatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

type createProjectBody struct {
	Title string `json:"title"`
}

// CreateProject handles POST /api/projects.
func (s *Server) CreateProject(c *fiber.Ctx) error {
	supervisor, err := s.resolveSupervisor(c)
	if err != nil {
		return nil
	}

	var body createProjectBody
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	project, err := s.projectService.CreateProject(c.UserContext(), supervisor.ID, body.Title)
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusCreated, project)
}

// GetProjects handles GET /api/projects, listing projects the caller owns or
// co-supervises.
func (s *Server) GetProjects(c *fiber.Ctx) error {
	supervisor, err := s.resolveSupervisor(c)
	if err != nil {
		return nil
	}

	projects, err := s.projectService.ListBySupervisor(c.UserContext(), supervisor.ID)
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, projects)
}

type updateProjectStatusBody struct {
	Status string `json:"status"`
}

// UpdateProjectStatus handles PATCH /api/projects/:id/status.
func (s *Server) UpdateProjectStatus(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Admins may not carry a supervisor profile; the service ignores the
	// supervisor id for them.
	caller := middleware.CallerIdentity(c)
	var supervisorID uint
	if !caller.IsAdmin() {
		supervisor, err := s.resolveSupervisor(c)
		if err != nil {
			return nil
		}
		supervisorID = supervisor.ID
	}

	var body updateProjectStatusBody
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	project, err := s.projectService.UpdateStatus(c.UserContext(), projectID,
		caller, supervisorID, models.ProjectStatus(body.Status))
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, project)
}
