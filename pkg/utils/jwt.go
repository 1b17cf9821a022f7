package utils

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoleAdmin is the only role allowed to change news content.
const RoleAdmin = "admin"

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrMissingToken = errors.New("missing token")
	ErrNoUser       = errors.New("no authenticated user")
)

// Tokens are issued by the school back office; this service only verifies them.
var validSigningMethods = []string{jwt.SigningMethodHS256.Alg()}

type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// UserContext is the caller identity stored in c.Locals("user").
type UserContext struct {
	ID       uuid.UUID
	Username string
	Role     string
}

func (u *UserContext) HasRole(role string) bool {
	return u != nil && role != "" && u.Role == role
}

func (u *UserContext) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}

// ParseAccessToken verifies an HS256 token with an expiry and returns its user.
// A token without a role is valid but grants no role.
func ParseAccessToken(tokenString, jwtSecret string) (*UserContext, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(jwtSecret), nil
	}, jwt.WithValidMethods(validSigningMethods), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || userID == uuid.Nil {
		return nil, ErrInvalidToken
	}

	return &UserContext{
		ID:       userID,
		Username: claims.Username,
		Role:     strings.ToLower(strings.TrimSpace(claims.Role)),
	}, nil
}

// ExtractTokenFromHeader returns the token of a "Bearer <token>" header, or "".
func ExtractTokenFromHeader(authHeader string) string {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

func GetUserFromContext(c *fiber.Ctx) (*UserContext, error) {
	user, ok := c.Locals("user").(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUser
	}
	return user, nil
}
