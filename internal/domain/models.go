package domain

import (
	"crypto/rand"
	"database/sql/driver"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enum types
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleAdmin   UserRole = "admin"
)

type GrievanceType string

const (
	TypeComplaint GrievanceType = "complaint"
	TypeFeedback  GrievanceType = "feedback"
)

type GrievancePriority string

const (
	PriorityLow    GrievancePriority = "low"
	PriorityNormal GrievancePriority = "normal"
	PriorityHigh   GrievancePriority = "high"
	PriorityUrgent GrievancePriority = "urgent"
)

type GrievanceStatus string

const (
	StatusPending     GrievanceStatus = "pending"
	StatusUnderReview GrievanceStatus = "under_review"
	StatusResolved    GrievanceStatus = "resolved"
	StatusArchived    GrievanceStatus = "archived"
)

// ValidGrievanceStatus reports whether s is one of the workflow states.
// An early schema defaulted new rows to under_review before pending was
// added, so both remain valid wherever a status is read back.
func ValidGrievanceStatus(s GrievanceStatus) bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusResolved, StatusArchived:
		return true
	}
	return false
}

// DisplayStatus maps a raw status to the label shown to submitters.
// "solved"/"unsolved" only ever appeared in legacy data but the label
// map still covers them; anything else gets the capitalized raw value.
func DisplayStatus(s GrievanceStatus) string {
	switch s {
	case StatusUnderReview:
		return "Under Review"
	case "solved":
		return "Solved"
	case "unsolved":
		return "Unsolved"
	}
	raw := string(s)
	if raw == "" {
		return ""
	}
	return strings.ToUpper(raw[:1]) + raw[1:]
}

type NotificationType string

const (
	NotifSuccess NotificationType = "success"
	NotifError   NotificationType = "error"
	NotifWarning NotificationType = "warning"
	NotifInfo    NotificationType = "info"
)

// Notification categories are free text by convention.
const (
	NotifCategoryGrievance = "grievance"
	NotifCategorySystem    = "system"
	NotifCategoryUser      = "user"
	NotifCategoryAdmin     = "admin"
)

// JSONB type for GORM
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, isStr := value.(string); isStr {
			bytes = []byte(s)
		} else {
			return nil
		}
	}
	return json.Unmarshal(bytes, j)
}

// StringList is a JSON-encoded string array column, used for the
// ordered attachment key list on a grievance.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	return string(b), err
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// User
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID       string     `gorm:"type:varchar(30);not null;uniqueIndex" json:"student_id"`
	Email           string     `gorm:"type:varchar(255);not null;uniqueIndex" json:"email"`
	PasswordHash    string     `gorm:"type:varchar(255);not null" json:"-"`
	Alias           string     `gorm:"type:varchar(100);not null" json:"alias"`
	Role            UserRole   `gorm:"type:varchar(20);not null;default:'student'" json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Grievance is the core entity: one submitted complaint or feedback
// record. Subject and Details are stored encrypted; the repository
// decrypts them on every read path.
type Grievance struct {
	ID                uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	GrievanceID       string            `gorm:"type:varchar(12);not null;uniqueIndex" json:"grievance_id"`
	UserID            uuid.UUID         `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject           string            `gorm:"type:text;not null" json:"subject"`
	Details           string            `gorm:"type:text;not null" json:"details"`
	Type              GrievanceType     `gorm:"type:varchar(20);not null" json:"type"`
	Priority          GrievancePriority `gorm:"type:varchar(10);not null;default:'normal'" json:"priority"`
	Status            GrievanceStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Attachments       StringList        `gorm:"type:text;not null;default:'[]'" json:"attachments"`
	ResolutionMessage *string           `gorm:"type:text" json:"resolution_message,omitempty"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty"`
	DraftSavedAt      *time.Time        `json:"draft_saved_at,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	DeletedAt         gorm.DeletedAt    `gorm:"index" json:"-"`
	User              *User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Grievance) TableName() string { return "grievances" }

// Notification
type Notification struct {
	ID        uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Title     string           `gorm:"type:varchar(255);not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Category  *string          `gorm:"type:varchar(50)" json:"category,omitempty"`
	Read      bool             `gorm:"not null;default:false" json:"read"`
	Data      JSONB            `gorm:"type:text;default:'{}'" json:"data,omitempty"`
	CreatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	User      *User            `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Notification) TableName() string { return "notifications" }

// InboxMessage is a read-only per-user message; there is no write API.
type InboxMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Subject   string    `gorm:"type:varchar(255);not null" json:"subject"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	IsRead    bool      `gorm:"not null;default:false" json:"is_read"`
	IsPinned  bool      `gorm:"not null;default:false" json:"is_pinned"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (InboxMessage) TableName() string { return "inbox_messages" }

// ============================================================================
// ID GENERATION AND HOOKS
// ============================================================================

const grievanceIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewGrievanceID returns a public-facing token of the form
// GRV-XXXXXXXX (8 random uppercase alphanumerics).
func NewGrievanceID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(err)
	}
	out := make([]byte, 8)
	for i, b := range buf {
		out[i] = grievanceIDAlphabet[int(b)%len(grievanceIDAlphabet)]
	}
	return "GRV-" + string(out)
}

// setUUIDIfEmpty checks if ID is nil and sets it to a new UUID
func setUUIDIfEmpty(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&u.ID)
	return nil
}

func (g *Grievance) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&g.ID)
	if g.GrievanceID == "" {
		g.GrievanceID = NewGrievanceID()
	}
	if g.Priority == "" {
		g.Priority = PriorityNormal
	}
	if g.Status == "" {
		g.Status = StatusPending
	}
	return nil
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&n.ID)
	return nil
}

func (m *InboxMessage) BeforeCreate(tx *gorm.DB) error {
	setUUIDIfEmpty(&m.ID)
	return nil
}
