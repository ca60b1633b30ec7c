package dto

import "time"

type InboxMessageResponse struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	Content   string    `json:"content"`
	IsRead    bool      `json:"is_read"`
	IsPinned  bool      `json:"is_pinned"`
	CreatedAt time.Time `json:"created_at"`
}
