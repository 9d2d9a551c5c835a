package models

import "time"

// SOP statuses.
const (
	SOPStatusDraft    = "draft"
	SOPStatusActive   = "active"
	SOPStatusArchived = "archived"
)

// SOP is a standard operating procedure. SOPs without a department are
// organization-wide and readable by everyone once active.
type SOP struct {
	// ID is the unique identifier for the procedure.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// Title is the procedure title.
	Title string `gorm:"size:255;not null" json:"title"`
	// Body is the procedure content.
	Body string `gorm:"type:text" json:"body"`
	// Status is one of draft, active, archived.
	Status string `gorm:"size:20;not null;default:'draft';index" json:"status"`
	// DepartmentID scopes the procedure; nil means organization-wide.
	DepartmentID *string `gorm:"size:64;index" json:"department_id,omitempty"`
	// CreatedBy is the user who created the procedure. Ownership field.
	CreatedBy string `gorm:"size:64;index" json:"created_by"`
	// CreatedAt is the timestamp when the procedure was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the procedure was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the SOP model.
func (SOP) TableName() string {
	return "sops"
}
