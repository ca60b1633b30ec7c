package handler

import (
	"errors"

	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/feedbackfortress/backend/internal/dto"
	"github.com/feedbackfortress/backend/internal/middleware"
	"github.com/feedbackfortress/backend/internal/repository"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	notificationRepo *repository.NotificationRepository
}

func NewNotificationHandler(notificationRepo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{notificationRepo: notificationRepo}
}

// List - GET /notifications
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	unreadOnly := c.QueryBool("unread_only", false)

	notifications, total, err := h.notificationRepo.FindByUserID(*userID, unreadOnly, page, limit)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch notifications",
		))
	}

	unread, err := h.notificationRepo.CountUnread(*userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to fetch notifications",
		))
	}

	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, toNotificationResponse(&notifications[i]))
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return c.JSON(dto.SuccessWithMeta(responses, dto.NotificationListMeta{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		UnreadCount: unread,
	}))
}

// Count - GET /notifications/count
func (h *NotificationHandler) Count(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	unread, err := h.notificationRepo.CountUnread(*userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"FETCH_FAILED", "Failed to count notifications",
		))
	}

	return c.JSON(dto.SuccessResponse(dto.NotificationCountResponse{UnreadCount: unread}, ""))
}

// MarkAsRead - PATCH /notifications/:id/read
func (h *NotificationHandler) MarkAsRead(c *fiber.Ctx) error {
	notification, errResp := h.owned(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := h.notificationRepo.MarkAsRead(notification.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"UPDATE_FAILED", "Failed to update notification",
		))
	}

	return c.JSON(dto.SuccessResponse(nil, "Notification marked as read"))
}

// MarkAllAsRead - PATCH /notifications/read-all
func (h *NotificationHandler) MarkAllAsRead(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	if err := h.notificationRepo.MarkAllAsRead(*userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"UPDATE_FAILED", "Failed to update notifications",
		))
	}

	return c.JSON(dto.SuccessResponse(nil, "All notifications marked as read"))
}

// Delete - DELETE /notifications/:id
func (h *NotificationHandler) Delete(c *fiber.Ctx) error {
	notification, errResp := h.owned(c)
	if errResp != nil {
		return errResp(c)
	}

	if err := h.notificationRepo.Delete(notification.ID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"DELETE_FAILED", "Failed to delete notification",
		))
	}

	return c.JSON(dto.SuccessResponse(nil, "Notification deleted"))
}

// ClearAll - DELETE /notifications
func (h *NotificationHandler) ClearAll(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
	}

	if err := h.notificationRepo.ClearAll(*userID); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
			"DELETE_FAILED", "Failed to clear notifications",
		))
	}

	return c.JSON(dto.SuccessResponse(nil, "Notifications cleared"))
}

// owned resolves :id to a notification belonging to the caller.
func (h *NotificationHandler) owned(c *fiber.Ctx) (*domain.Notification, func(*fiber.Ctx) error) {
	userID := middleware.GetUserID(c)
	if userID == nil {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse("UNAUTHORIZED", "Unauthorized"))
		}
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse("INVALID_ID", "Invalid notification ID"))
		}
	}

	notification, err := h.notificationRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse("NOT_FOUND", "Notification not found"))
			}
		}
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse(
				"FETCH_FAILED", "Failed to fetch notification",
			))
		}
	}

	if notification.UserID != *userID {
		return nil, func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse("FORBIDDEN", "Not your notification"))
		}
	}

	return notification, nil
}

func toNotificationResponse(n *domain.Notification) dto.NotificationResponse {
	return dto.NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Category:  n.Category,
		Read:      n.Read,
		Data:      n.Data,
		CreatedAt: n.CreatedAt,
	}
}
