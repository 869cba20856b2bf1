package server

import (
	"capmatch/internal/middleware"
	"capmatch/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ResendVerification handles POST /api/auth/resend-verification. Account
// identity lives in an external provider; this endpoint only validates the
// caller still needs verification and acknowledges the resend, so the
// rate limiter in front of it can throttle abuse.
func (s *Server) ResendVerification(c *fiber.Ctx) error {
	caller := middleware.CallerIdentity(c)
	if caller.EmailVerified {
		return models.RespondWithServiceError(c,
			models.NewInvalidStateError("Email address is already verified"))
	}

	s.logger.InfoContext(c.UserContext(), "verification email resend requested",
		"user_id", caller.UserID)
	return respondMessage(c, fiber.StatusOK, "Verification email sent")
}
