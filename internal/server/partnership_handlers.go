package server

import (
	"capmatch/internal/models"
	"capmatch/internal/service"

	"github.com/gofiber/fiber/v2"
)

type sendPartnershipRequestBody struct {
	TargetStudentID uint `json:"target_student_id"`
}

// SendPartnershipRequest handles POST /api/partnerships/requests.
func (s *Server) SendPartnershipRequest(c *fiber.Ctx) error {
	student, err := s.resolveStudent(c)
	if err != nil {
		return nil
	}

	var body sendPartnershipRequestBody
	if err := c.BodyParser(&body); err != nil || body.TargetStudentID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("target_student_id is required"))
	}

	request, err := s.partnershipService.SendRequest(c.UserContext(), student.ID, body.TargetStudentID)
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusCreated, request)
}

// GetPartnershipRequests handles GET /api/partnerships/requests.
// The "type" query parameter selects incoming, outgoing, or all.
func (s *Server) GetPartnershipRequests(c *fiber.Ctx) error {
	student, err := s.resolveStudent(c)
	if err != nil {
		return nil
	}

	requests, err := s.partnershipService.GetRequests(c.UserContext(), student.ID, parseDirection(c))
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, requests)
}

type respondRequestBody struct {
	Action string `json:"action"`
}

// RespondToPartnershipRequest handles POST /api/partnerships/requests/:id/respond.
func (s *Server) RespondToPartnershipRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	student, err := s.resolveStudent(c)
	if err != nil {
		return nil
	}

	var body respondRequestBody
	if err := c.BodyParser(&body); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	request, err := s.partnershipService.RespondToRequest(c.UserContext(),
		requestID, student.ID, service.RespondAction(body.Action))
	if err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondData(c, fiber.StatusOK, request)
}

// CancelPartnershipRequest handles DELETE /api/partnerships/requests/:id.
func (s *Server) CancelPartnershipRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	student, err := s.resolveStudent(c)
	if err != nil {
		return nil
	}

	if err := s.partnershipService.CancelRequest(c.UserContext(), requestID, student.ID); err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondMessage(c, fiber.StatusOK, "Partnership request cancelled")
}

// Unpair handles DELETE /api/partnerships/partner, dissolving the caller's
// current partnership.
func (s *Server) Unpair(c *fiber.Ctx) error {
	student, err := s.resolveStudent(c)
	if err != nil {
		return nil
	}
	if student.PartnerID == nil {
		return models.RespondWithServiceError(c,
			models.NewInvalidStateError("You do not have a partner"))
	}

	if err := s.partnershipService.Unpair(c.UserContext(), student.ID, *student.PartnerID); err != nil {
		return models.RespondWithServiceError(c, err)
	}
	return respondMessage(c, fiber.StatusOK, "Partnership dissolved")
}
