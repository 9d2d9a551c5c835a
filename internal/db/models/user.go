package models

import (
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// User represents a user account in the system. A user carries exactly one
// role from the fixed hierarchy and optionally belongs to a department,
// which together drive row visibility everywhere else.
type User struct {
	// ID is the unique identifier for the user.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// Active indicates whether the user account is active and can log in.
	Active bool `json:"active"`
	// Email is the user's unique email address.
	Email string `gorm:"unique;size:255;not null" json:"email"`
	// Password is the Argon2id hashed password.
	Password string `gorm:"size:255" json:"-"`
	// FirstName is the user's first or given name.
	FirstName string `gorm:"size:100" json:"first_name"`
	// LastName is the user's last or family name.
	LastName string `gorm:"size:100" json:"last_name"`
	// Role is the role name from the fixed hierarchy (god, admin, manager, user, guest).
	Role string `gorm:"size:20;not null;default:'guest'" json:"role"`
	// DepartmentID scopes the user to a department; nil means organization-wide.
	DepartmentID *string `gorm:"size:64;index" json:"department_id,omitempty"`
	// Department is the associated department.
	Department *Department `gorm:"foreignKey:DepartmentID;references:ID;constraint:OnDelete:SET NULL,OnUpdate:CASCADE" json:"-"`
	// CreatedAt is the timestamp when the user was created (managed by GORM).
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt is the timestamp when the user was last updated (managed by GORM).
	UpdatedAt time.Time `json:"updated_at"`
	// DeletedAt is the soft delete timestamp (nil if not deleted, managed by GORM).
	DeletedAt *time.Time `json:"-"`
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
// This function should be used when creating or updating user passwords.
func HashPassword(password string) string {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		log.Fatal().Msgf("failed to hash password: %v", err)
	}

	return hashedPassword
}

// VerifyPassword verifies a plaintext password against the user's stored
// hashed password using constant-time comparison.
func (u *User) VerifyPassword(password string) bool {
	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
