package service

import (
	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/feedbackfortress/backend/internal/repository"
)

type NotificationService struct {
	repo *repository.NotificationRepository
}

func NewNotificationService(repo *repository.NotificationRepository) *NotificationService {
	return &NotificationService{repo: repo}
}

// NotifyGrievanceStatusUpdated tells the owner their submission moved
// to a new workflow state.
func (s *NotificationService) NotifyGrievanceStatusUpdated(g *domain.Grievance, oldStatus, newStatus domain.GrievanceStatus) error {
	notification := &domain.Notification{
		UserID:   g.UserID,
		Type:     domain.NotifInfo,
		Title:    "Grievance Status Updated",
		Message:  "Your grievance #" + g.GrievanceID + " is now " + domain.DisplayStatus(newStatus),
		Category: strPtr(domain.NotifCategoryGrievance),
		Data: domain.JSONB{
			"grievance_id": g.GrievanceID,
			"old_status":   string(oldStatus),
			"new_status":   string(newStatus),
		},
	}
	return s.repo.Create(notification)
}

// NotifyGrievanceResolved tells the owner their submission was closed
// out, including the resolution message.
func (s *NotificationService) NotifyGrievanceResolved(g *domain.Grievance) error {
	message := "Your grievance #" + g.GrievanceID + " has been resolved"
	data := domain.JSONB{
		"grievance_id": g.GrievanceID,
	}
	if g.ResolutionMessage != nil && *g.ResolutionMessage != "" {
		data["resolution_message"] = *g.ResolutionMessage
	}

	notification := &domain.Notification{
		UserID:   g.UserID,
		Type:     domain.NotifSuccess,
		Title:    "Grievance Resolved",
		Message:  message,
		Category: strPtr(domain.NotifCategoryGrievance),
		Data:     data,
	}
	return s.repo.Create(notification)
}

func strPtr(s string) *string {
	return &s
}
