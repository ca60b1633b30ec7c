package handler

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/feedbackfortress/backend/internal/auth"
	"github.com/feedbackfortress/backend/internal/captcha"
	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/feedbackfortress/backend/internal/middleware"
	"github.com/feedbackfortress/backend/internal/repository"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type AuthHandler struct {
	userRepo   *repository.UserRepository
	jwtService *auth.JWTService
	captcha    *captcha.Service
}

func NewAuthHandler(userRepo *repository.UserRepository, jwtService *auth.JWTService, captchaService *captcha.Service) *AuthHandler {
	return &AuthHandler{
		userRepo:   userRepo,
		jwtService: jwtService,
		captcha:    captchaService,
	}
}

// Register - POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"INVALID_REQUEST", "Invalid request format",
		))
	}

	var details []dto.ErrorDetail
	if strings.TrimSpace(req.StudentID) == "" {
		details = append(details, dto.ErrorDetail{Field: "student_id", Message: "Student ID is required"})
	}
	if !strings.Contains(req.Email, "@") {
		details = append(details, dto.ErrorDetail{Field: "email", Message: "A valid email is required"})
	}
	if utf8.RuneCountInString(req.Password) < 8 {
		details = append(details, dto.ErrorDetail{Field: "password", Message: "Password must be at least 8 characters"})
	}
	if strings.TrimSpace(req.Alias) == "" {
		details = append(details, dto.ErrorDetail{Field: "alias", Message: "Display name is required"})
	}
	if len(details) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(details...))
	}

	if err := h.requireCaptcha(c, req.SessionID, req.Captcha); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"INTERNAL_ERROR", "Failed to create account",
		))
	}

	user := &domain.User{
		StudentID:    strings.TrimSpace(req.StudentID),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: string(hash),
		Alias:        strings.TrimSpace(req.Alias),
		Role:         domain.RoleStudent,
	}

	if err := h.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(
				dto.ErrorDetail{Field: "student_id", Message: "Student ID or email is already registered"},
			))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"CREATE_FAILED", "Failed to create account",
		))
	}

	return h.respondWithToken(c, fiber.StatusCreated, user)
}

// Login - POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"INVALID_REQUEST", "Invalid request format",
		))
	}

	if err := h.requireCaptcha(c, req.SessionID, req.Captcha); err != nil {
		return err
	}

	user, err := h.userRepo.FindByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
			"INVALID_CREDENTIALS", "Email or password is incorrect",
		))
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse(
			"INVALID_CREDENTIALS", "Email or password is incorrect",
		))
	}

	return h.respondWithToken(c, fiber.StatusOK, user)
}

// UpdateMe - PATCH /me
//
// Alias/email updates. Non-admin callers must answer a captcha
// challenge; admins are exempt.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse(
			"INVALID_REQUEST", "Invalid request format",
		))
	}

	if middleware.GetUserRole(c) != string(domain.RoleAdmin) {
		if err := h.requireCaptcha(c, req.SessionID, req.Captcha); err != nil {
			return err
		}
	}

	user, err := h.userRepo.FindByID(*userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Account not found"))
	}

	if req.Alias != nil {
		if strings.TrimSpace(*req.Alias) == "" {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(
				dto.ErrorDetail{Field: "alias", Message: "Display name cannot be empty"},
			))
		}
		user.Alias = strings.TrimSpace(*req.Alias)
	}
	if req.Email != nil {
		if !strings.Contains(*req.Email, "@") {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(
				dto.ErrorDetail{Field: "email", Message: "A valid email is required"},
			))
		}
		user.Email = strings.ToLower(strings.TrimSpace(*req.Email))
		user.EmailVerifiedAt = nil
	}

	if err := h.userRepo.Update(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(
				dto.ErrorDetail{Field: "email", Message: "Email is already registered"},
			))
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"UPDATE_FAILED", "Failed to update profile",
		))
	}

	return c.JSON(dto.SuccessResponse(toUserResponse(user), "Profile updated"))
}

// requireCaptcha writes the error response itself when the challenge
// fails; callers just propagate the returned error.
func (h *AuthHandler) requireCaptcha(c *fiber.Ctx, sessionID, code string) error {
	ok, err := h.captcha.Validate(c.Context(), sessionID, code)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"INTERNAL_ERROR", "Failed to verify captcha",
		))
	}
	if !ok {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ValidationErrorResponse(
			dto.ErrorDetail{Field: "captcha", Message: "Captcha verification failed"},
		))
	}
	return nil
}

func (h *AuthHandler) respondWithToken(c *fiber.Ctx, status int, user *domain.User) error {
	token, expiresIn, err := h.jwtService.GenerateToken(user.ID, string(user.Role), user.StudentID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"INTERNAL_ERROR", "Failed to issue token",
		))
	}

	return c.Status(status).JSON(dto.SuccessResponse(dto.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: expiresIn,
		User:      toUserResponse(user),
	}, ""))
}

func toUserResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:              u.ID.String(),
		StudentID:       u.StudentID,
		Email:           u.Email,
		Alias:           u.Alias,
		Role:            string(u.Role),
		EmailVerifiedAt: u.EmailVerifiedAt,
		CreatedAt:       u.CreatedAt,
	}
}
