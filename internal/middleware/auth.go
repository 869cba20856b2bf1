// Package middleware provides authentication, rate limiting, and observability
// middleware for the application.
package middleware

import (
	"context"
	"strconv"
	"strings"

	"capmatch/internal/config"
	"capmatch/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

func unauthenticated(c *fiber.Ctx, message string) error {
	return models.RespondWithError(c, fiber.StatusUnauthorized,
		models.NewUnauthenticatedError(message))
}

// AuthRequired enforces authentication for protected routes. The identity
// provider issues tokens carrying the verified user id ("sub"), role, and
// email verification flag; this middleware only validates and unpacks them.
func AuthRequired(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return unauthenticated(c, "Authorization header required")
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return unauthenticated(c, "Invalid authorization header format")
	}

	tokenString := parts[1]

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})

	if err != nil || !token.Valid {
		return unauthenticated(c, "Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return unauthenticated(c, "Invalid token claims")
	}

	// "sub" per RFC 7519 carries the user id as a decimal string.
	subStr, ok := claims["sub"].(string)
	if !ok {
		return unauthenticated(c, "Invalid token structure - missing subject")
	}
	userIDVal, err := strconv.ParseUint(subStr, 10, 32)
	if err != nil {
		return unauthenticated(c, "Invalid user ID in token")
	}

	role, _ := claims["role"].(string)
	if role == "" {
		return unauthenticated(c, "Invalid token structure - missing role")
	}
	emailVerified, _ := claims["email_verified"].(bool)

	c.Locals("userID", uint(userIDVal))
	c.Locals("role", role)
	c.Locals("emailVerified", emailVerified)

	// ContextMiddleware runs before authentication, so the user id goes
	// into the request context here.
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, uint(userIDVal)))

	return c.Next()
}

// RequireRole returns a middleware allowing only the given roles. Admins pass
// every role gate.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		if role == models.RoleAdmin {
			return c.Next()
		}
		for _, allowed := range roles {
			if role == allowed {
				return c.Next()
			}
		}
		return models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("Insufficient role for this operation"))
	}
}

// CallerIdentity reconstructs the verified identity stored by AuthRequired.
func CallerIdentity(c *fiber.Ctx) models.Identity {
	userID, _ := c.Locals("userID").(uint)
	role, _ := c.Locals("role").(string)
	emailVerified, _ := c.Locals("emailVerified").(bool)
	return models.Identity{
		UserID:        userID,
		Role:          role,
		EmailVerified: emailVerified,
	}
}
