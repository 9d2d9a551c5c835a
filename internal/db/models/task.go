package models

import "time"

// Task statuses. Completed is terminal: bulk completion treats an already
// completed task as a distinct rejection reason.
const (
	TaskStatusOpen       = "open"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
)

// Task is a unit of work assigned to a user within a department.
type Task struct {
	// ID is the unique identifier for the task.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// Title is the short description of the task.
	Title string `gorm:"size:255;not null" json:"title"`
	// Description is the long form description.
	Description string `gorm:"type:text" json:"description"`
	// Status is one of open, in_progress, completed.
	Status string `gorm:"size:20;not null;default:'open';index" json:"status"`
	// DepartmentID scopes the task to a department; nil means organization-wide.
	DepartmentID *string `gorm:"size:64;index" json:"department_id,omitempty"`
	// AssignedTo is the user the task is assigned to. Ownership field.
	AssignedTo string `gorm:"size:64;index" json:"assigned_to"`
	// CreatedBy is the user who created the task. Ownership field.
	CreatedBy string `gorm:"size:64;index" json:"created_by"`
	// DueAt is the optional due date.
	DueAt *time.Time `json:"due_at,omitempty"`
	// CompletedAt is set when the task reaches the completed status.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	// CreatedAt is the timestamp when the task was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the task was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Task model.
func (Task) TableName() string {
	return "tasks"
}
