package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"musicschool-news/pkg/logger"
	"musicschool-news/pkg/utils"
)

const RoleAdmin = utils.RoleAdmin

// Protected validates the bearer token and stores the user in c.Locals("user").
func Protected(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.UnauthorizedResponse(c, "Missing authorization header")
		}

		token := utils.ExtractTokenFromHeader(authHeader)
		if token == "" {
			return utils.UnauthorizedResponse(c, "Invalid authorization header format")
		}

		userCtx, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			logger.AuthError("token_validation_failed", "Token validation failed", err, map[string]interface{}{
				"path": c.Path(),
				"ip":   c.IP(),
			})
			if errors.Is(err, utils.ErrExpiredToken) {
				return utils.UnauthorizedResponse(c, "Token has expired")
			}
			return utils.UnauthorizedResponse(c, "Invalid token")
		}

		c.Locals("user", userCtx)
		return c.Next()
	}
}

// RequireRole must run after Protected.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := utils.GetUserFromContext(c)
		if err != nil {
			return utils.UnauthorizedResponse(c, "User not authenticated")
		}

		if !user.HasRole(role) {
			logger.Auth("access_denied", "Insufficient permissions", map[string]interface{}{
				"user_id": user.ID.String(),
				"role":    user.Role,
				"path":    c.Path(),
			})
			return utils.ForbiddenResponse(c, "Insufficient permissions")
		}

		return c.Next()
	}
}

func AdminOnly() fiber.Handler {
	return RequireRole(RoleAdmin)
}

// Optional sets the user when a valid token is present and lets anonymous requests through.
func Optional(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := utils.ExtractTokenFromHeader(c.Get("Authorization"))
		if token == "" {
			return c.Next()
		}

		userCtx, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			return c.Next()
		}

		c.Locals("user", userCtx)
		return c.Next()
	}
}

// OptionalWithQueryToken also accepts ?token=, for WebSocket clients that cannot set headers.
func OptionalWithQueryToken(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := utils.ExtractTokenFromHeader(c.Get("Authorization"))
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			return c.Next()
		}

		userCtx, err := utils.ParseAccessToken(token, jwtSecret)
		if err != nil {
			return c.Next()
		}

		c.Locals("user", userCtx)
		return c.Next()
	}
}

// IsAdmin reports whether an earlier middleware stored an admin user.
func IsAdmin(c *fiber.Ctx) bool {
	user, ok := c.Locals("user").(*utils.UserContext)
	return ok && user.IsAdmin()
}
