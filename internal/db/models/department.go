package models

import "time"

// Department is the scoping unit for manager-level visibility. Resources
// without a department are organization-wide.
type Department struct {
	// ID is the unique identifier for the department.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// Name is the unique display name of the department.
	Name string `gorm:"unique;size:100;not null" json:"name"`
	// CreatedAt is the timestamp when the department was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the department was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the database table name for the Department model.
func (Department) TableName() string {
	return "departments"
}
