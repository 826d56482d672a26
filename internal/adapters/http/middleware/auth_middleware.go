package middleware

import (
	"errors"
	"strings"

	"campus-aid-buddy/internal/core/domain"
	"campus-aid-buddy/internal/pkg/jwt"
	"campus-aid-buddy/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const actorKey = "actor"

// TokenValidator turns an access token into the actor it was issued to
type TokenValidator interface {
	ValidateAccessToken(accessToken string) (*domain.Actor, error)
}

// accessToken reads the token from the access_token cookie, falling back to
// the Authorization header.
func accessToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	if authHeader := c.Get(fiber.HeaderAuthorization); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := accessToken(c)
		if token == "" {
			return response.Unauthorized(c, "Access token required")
		}

		actor, err := tokens.ValidateAccessToken(token)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		c.Locals(actorKey, actor)
		return c.Next()
	}
}

// StreamAuth is AuthMiddleware that also accepts ?access_token=, since
// EventSource clients cannot set headers.
func StreamAuth(tokens TokenValidator) fiber.Handler {
	auth := AuthMiddleware(tokens)
	return func(c *fiber.Ctx) error {
		if accessToken(c) == "" {
			if token := c.Query("access_token"); token != "" {
				c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
			}
		}
		return auth(c)
	}
}

// Actor returns the authenticated actor, or nil on public routes
func Actor(c *fiber.Ctx) *domain.Actor {
	actor, _ := c.Locals(actorKey).(*domain.Actor)
	return actor
}

// RoleMiddleware creates role-based authorization middleware
func RoleMiddleware(allowedRoles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor := Actor(c)
		if actor == nil {
			return response.Unauthorized(c, "Unauthorized")
		}

		for _, allowedRole := range allowedRoles {
			if actor.Role == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// OptionalAuth sets the actor when a valid token is present and carries on
// either way.
func OptionalAuth(tokens TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := accessToken(c); token != "" {
			if actor, err := tokens.ValidateAccessToken(token); err == nil {
				c.Locals(actorKey, actor)
			}
		}
		return c.Next()
	}
}
