package models

import "time"

// Audit log actions.
const (
	AuditActionInsert = "INSERT"
	AuditActionUpdate = "UPDATE"
	AuditActionDelete = "DELETE"
)

// AuditUserSystem is the reserved actor id for entries not tied to an
// interactive caller. A sentinel rather than null, so a missing auth
// context bug stays distinguishable from a genuine system action.
const AuditUserSystem = "system"

// AuditLog is one append-only audit entry. Rows are never updated or
// deleted once written.
type AuditLog struct {
	// ID is the unique identifier for the entry.
	ID string `gorm:"primaryKey;size:64" json:"id"`
	// TableName is the table of the audited record.
	TableName string `gorm:"column:table_name;size:64;not null;index" json:"table_name"`
	// RecordID is the id of the audited record.
	RecordID string `gorm:"size:64;not null;index" json:"record_id"`
	// Action is INSERT, UPDATE or DELETE.
	Action string `gorm:"size:10;not null" json:"action"`
	// OldValues is the structured snapshot before the mutation, if any.
	OldValues JSONMap `gorm:"type:json" json:"old_values,omitempty"`
	// NewValues is the structured snapshot after the mutation, if any.
	NewValues JSONMap `gorm:"type:json" json:"new_values,omitempty"`
	// Metadata carries extra context, e.g. the sensitive action tag or
	// the id list of an aggregate batch entry.
	Metadata JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	// UserID is the acting user, or the "system" sentinel.
	UserID string `gorm:"size:64;index" json:"user_id,omitempty"`
	// IPAddress is the caller's address, if known.
	IPAddress string `gorm:"size:64" json:"ip_address,omitempty"`
	// UserAgent is the caller's user agent, if known.
	UserAgent string `gorm:"size:255" json:"user_agent,omitempty"`
	// CreatedAt is the timestamp the entry was written.
	CreatedAt time.Time `json:"created_at"`
}
