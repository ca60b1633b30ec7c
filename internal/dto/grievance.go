package dto

import "time"

type GrievanceResponse struct {
	ID                string     `json:"id"`
	GrievanceID       string     `json:"grievance_id"`
	Subject           string     `json:"subject"`
	Details           string     `json:"details"`
	Type              string     `json:"type"`
	Priority          string     `json:"priority"`
	Status            string     `json:"status"`
	StatusLabel       string     `json:"status_label"`
	Attachments       []string   `json:"attachments"`
	ResolutionMessage *string    `json:"resolution_message,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	// StudentID of the owner, populated on admin listings only.
	StudentID *string `json:"student_id,omitempty"`
}

// OwnerStats summarizes the caller's own submissions on the dashboard.
type OwnerStats struct {
	Total       int64 `json:"total"`
	Pending     int64 `json:"pending"`
	UnderReview int64 `json:"under_review"`
	Resolved    int64 `json:"resolved"`
	Archived    int64 `json:"archived"`
}

type DashboardResponse struct {
	Grievances []GrievanceResponse `json:"grievances"`
	Stats      OwnerStats          `json:"stats"`
}

type UpdateGrievanceRequest struct {
	Status            *string `json:"status"`
	ResolutionMessage *string `json:"resolution_message"`
}
