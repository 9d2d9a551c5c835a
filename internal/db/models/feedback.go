package models

import "time"

// Feedback is a note from one user about another.
type Feedback struct {
	// ID is the unique identifier for the feedback entry.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// UserID is the author. Ownership field.
	UserID string `gorm:"size:64;not null;index" json:"user_id"`
	// TargetUserID is the user the feedback is about. Ownership field.
	TargetUserID string `gorm:"size:64;not null;index" json:"target_user_id"`
	// DepartmentID scopes the feedback; nil means organization-wide.
	DepartmentID *string `gorm:"size:64;index" json:"department_id,omitempty"`
	// Message is the feedback text.
	Message string `gorm:"type:text;not null" json:"message"`
	// CreatedAt is the timestamp when the feedback was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the feedback was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Feedback model.
func (Feedback) TableName() string {
	return "feedback"
}
