package models

import "time"

// ClockSession records one work interval for a user. ClockOut stays nil
// while the session is open.
type ClockSession struct {
	// ID is the unique identifier for the session.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// UserID is the user the session belongs to. Ownership field.
	UserID string `gorm:"size:64;not null;index" json:"user_id"`
	// DepartmentID scopes the session to the user's department at clock-in.
	DepartmentID *string `gorm:"size:64;index" json:"department_id,omitempty"`
	// ClockIn is when the session started.
	ClockIn time.Time `gorm:"not null" json:"clock_in"`
	// ClockOut is when the session ended; nil while still open.
	ClockOut *time.Time `json:"clock_out,omitempty"`
	// CreatedAt is the timestamp when the session was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the session was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the ClockSession model.
func (ClockSession) TableName() string {
	return "clock_sessions"
}

// Duration returns the session length, zero while the session is open.
func (c *ClockSession) Duration() time.Duration {
	if c.ClockOut == nil {
		return 0
	}

	return c.ClockOut.Sub(c.ClockIn)
}
