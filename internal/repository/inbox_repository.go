package repository

import (
	"github.com/feedbackfortress/backend/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InboxRepository struct {
	db *gorm.DB
}

func NewInboxRepository(db *gorm.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// Create is internal only; the HTTP surface exposes no inbox writes.
func (r *InboxRepository) Create(msg *domain.InboxMessage) error {
	return r.db.Create(msg).Error
}

// ListForUser returns the user's inbox: pinned first, then unread
// before read, then newest first.
func (r *InboxRepository) ListForUser(userID uuid.UUID) ([]domain.InboxMessage, error) {
	var msgs []domain.InboxMessage
	err := r.db.Where("user_id = ?", userID).
		Order("is_pinned DESC, is_read ASC, created_at DESC").
		Find(&msgs).Error
	return msgs, err
}
