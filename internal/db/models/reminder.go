package models

import "time"

// Reminder is a dated note for a user.
type Reminder struct {
	// ID is the unique identifier for the reminder.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// UserID is the user the reminder is for. Ownership field.
	UserID string `gorm:"size:64;not null;index" json:"user_id"`
	// CreatedBy is the user who created the reminder. Ownership field.
	CreatedBy string `gorm:"size:64;index" json:"created_by"`
	// DepartmentID scopes the reminder; nil means organization-wide.
	DepartmentID *string `gorm:"size:64;index" json:"department_id,omitempty"`
	// Message is the reminder text.
	Message string `gorm:"size:500;not null" json:"message"`
	// RemindAt is when the reminder fires.
	RemindAt time.Time `gorm:"not null" json:"remind_at"`
	// Done marks the reminder as handled.
	Done bool `json:"done"`
	// CreatedAt is the timestamp when the reminder was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the reminder was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Reminder model.
func (Reminder) TableName() string {
	return "reminders"
}
