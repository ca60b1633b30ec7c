package handler

import (
	"github.com/feedbackfortress/backend/internal/captcha"
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CaptchaHandler struct {
	captcha *captcha.Service
}

func NewCaptchaHandler(captchaService *captcha.Service) *CaptchaHandler {
	return &CaptchaHandler{captcha: captchaService}
}

// Get - GET /captcha
//
// Issues a fresh challenge for the given session, minting a session id
// when the client has none yet. Regenerating replaces the previous
// code. The code travels in the payload because the UI renders it as
// text; it is a form-flow speed bump, not a bot barrier.
func (h *CaptchaHandler) Get(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	code, err := h.captcha.Generate(c.Context(), sessionID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"INTERNAL_ERROR", "Failed to generate captcha",
		))
	}

	return c.JSON(dto.SuccessResponse(dto.CaptchaResponse{
		SessionID: sessionID,
		Code:      code,
	}, ""))
}
