package server

import (
	"capmatch/internal/models"
	"capmatch/internal/service"

	"github.com/gofiber/fiber/v2"
)

type sendCoSupervisionRequestBody struct {
	TargetSupervisorID uint `json:"target_supervisor_id"`
}

// SendCoSupervisionRequest handles POST /api/projects/:projectId/co-supervision/requests.
func (s *Server) SendCoSupervisionRequest(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	supervisor, err := s.resolveSupervisor(c)
	if err != nil {
		return nil
	}

	var body sendCoSupervisionRequestBody
	if err := c.BodyParser(&body); err != nil || body.TargetSupervisorID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("target_supervisor_id is required"))
	}

	request, err := s.coSupervisionSvc.SendRequest(c.UserContext(),
		supervisor.ID, body.TargetSupervisorID, projectID)
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusCreated, request)
}

// GetCoSupervisionRequests handles GET /api/co-supervision/requests.
func (s *Server) GetCoSupervisionRequests(c *fiber.Ctx) error {
	supervisor, err := s.resolveSupervisor(c)
	if err != nil {
		return nil
	}

	requests, err := s.coSupervisionSvc.ListRequests(c.UserContext(), supervisor.ID, parseDirection(c))
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, requests)
}

// RespondToCoSupervisionRequest handles POST /api/co-supervision/requests/:id/respond.
func (s *Server) RespondToCoSupervisionRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	supervisor, err := s.resolveSupervisor(c)
	if err != nil {
		return nil
	}

	var body respondRequestBody
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.coSupervisionSvc.RespondToRequest(c.UserContext(),
		requestID, supervisor.ID, service.RespondAction(body.Action))
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, request)
}

// CancelCoSupervisionRequest handles DELETE /api/co-supervision/requests/:id.
func (s *Server) CancelCoSupervisionRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	supervisor, err := s.resolveSupervisor(c)
	if err != nil {
		return nil
	}

	if err := s.coSupervisionSvc.CancelRequest(c.UserContext(), requestID, supervisor.ID); err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondMessage(c, fiber.StatusOK, "Co-supervision request cancelled")
}

// UnpairCoSupervisor handles DELETE /api/projects/:projectId/co-supervisor.
func (s *Server) UnpairCoSupervisor(c *fiber.Ctx) error {
	projectID, err := s.parseID(c, "projectId")
	if err != nil {
		return nil
	}
	supervisor, err := s.resolveSupervisor(c)
	if err != nil {
		return nil
	}

	if err := s.coSupervisionSvc.UnpairCoSupervisor(c.UserContext(), projectID, supervisor.ID); err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondMessage(c, fiber.StatusOK, "Co-supervisor released")
}
