package middleware

import (
	"strings"

	"github.com/feedbackfortress/backend/internal/auth"
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	jwtService *auth.JWTService
}

func NewAuthMiddleware(jwtService *auth.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// Required authentication
func (m *AuthMiddleware) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"UNAUTHORIZED",
				"Missing token",
			))
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"UNAUTHORIZED",
				"Invalid token format",
			))
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := m.jwtService.ValidateToken(tokenString)
		if err != nil {
			if strings.Contains(err.Error(), "expired") {
				return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
					"TOKEN_EXPIRED",
					"Token has expired",
				))
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
				"INVALID_TOKEN",
				"Invalid token",
			))
		}

		userID, _ := uuid.Parse(claims.Sub)
		c.Locals("userID", userID)
		c.Locals("userRole", claims.Role)
		c.Locals("studentID", claims.StudentID)

		return c.Next()
	}
}

// Admin only
func (m *AuthMiddleware) AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		role := c.Locals("userRole")
		if role == nil || role.(string) != "admin" {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse(
				"FORBIDDEN",
				"Access denied. Admins only.",
			))
		}
		return c.Next()
	}
}

// Get current user ID from context
func GetUserID(c *fiber.Ctx) *uuid.UUID {
	userID := c.Locals("userID")
	if userID == nil {
		return nil
	}
	id := userID.(uuid.UUID)
	return &id
}

// Get current user role from context
func GetUserRole(c *fiber.Ctx) string {
	role := c.Locals("userRole")
	if role == nil {
		return ""
	}
	return role.(string)
}

// GetStudentID returns the caller's campus student id from context
func GetStudentID(c *fiber.Ctx) string {
	sid := c.Locals("studentID")
	if sid == nil {
		return ""
	}
	return sid.(string)
}
