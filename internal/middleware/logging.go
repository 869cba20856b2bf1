package middleware

import (
	"context"
	"time"

	"capmatch/internal/observability"

	"github.com/gofiber/fiber/v2"
)

type contextKey string

const (
	// RequestIDKey carries the per-request id in the request context.
	RequestIDKey contextKey = "request_id"
	// UserIDKey carries the authenticated user id in the request context.
	UserIDKey contextKey = "user_id"
)

// ContextMiddleware injects the request ID from Fiber locals into the request
// context so deep service layers can log it. The user id is added by
// AuthRequired once the token has been validated.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok {
			c.SetUserContext(context.WithValue(c.UserContext(), RequestIDKey, rid))
		}
		return c.Next()
	}
}

// RequestLogger logs each request with method, path, status, and latency.
func RequestLogger() fiber.Handler {
	logger := observability.Component("http")
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.InfoContext(c.UserContext(), "request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return err
	}
}
