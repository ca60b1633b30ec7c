package handler

import (
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/feedbackfortress/backend/internal/middleware"
	"github.com/feedbackfortress/backend/internal/repository"
	"github.com/gofiber/fiber/v2"
)

type InboxHandler struct {
	inboxRepo *repository.InboxRepository
}

func NewInboxHandler(inboxRepo *repository.InboxRepository) *InboxHandler {
	return &InboxHandler{inboxRepo: inboxRepo}
}

// List - GET /inbox
//
// Pinned messages first, then unread before read, then newest first.
func (h *InboxHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	messages, err := h.inboxRepo.ListForUser(*userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch inbox",
		))
	}

	responses := make([]dto.InboxMessageResponse, 0, len(messages))
	for _, m := range messages {
		responses = append(responses, dto.InboxMessageResponse{
			ID:        m.ID.String(),
			Subject:   m.Subject,
			Content:   m.Content,
			IsRead:    m.IsRead,
			IsPinned:  m.IsPinned,
			CreatedAt: m.CreatedAt,
		})
	}

	return c.JSON(dto.SuccessResponse(responses, ""))
}
