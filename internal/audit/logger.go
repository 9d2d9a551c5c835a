// Package audit converts mutation events into durable append-only audit
// records. It exclusively owns the creation path for audit entries; no
// other package writes to the audit store.
package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/db/models"
)

var writeFailures = promauto.NewCounter(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "audit_write_failures_total",
	Help: "Number of audit entries that failed to persist.",
})

// Entry describes one mutation to record.
type Entry struct {
	TableName string
	RecordID  string
	Action    string
	OldValues models.JSONMap
	NewValues models.JSONMap
	Metadata  models.JSONMap
	// UserID is the acting user; empty falls back to the system sentinel.
	UserID    string
	IPAddress string
	UserAgent string
}

// Context carries the request context of a sensitive action.
type Context struct {
	TableName string
	RecordID  string
	UserID    string
	IPAddress string
	UserAgent string
	Metadata  models.JSONMap
}

// Store is the append-only persistence boundary. The audit package never
// invokes update or delete on it.
type Store interface {
	Append(ctx context.Context, entry *models.AuditLog) error
}

// GormStore appends audit rows through gorm.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore wraps a gorm handle as an audit store.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Append inserts one audit row.
func (s *GormStore) Append(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	return nil
}

// Logger records audit entries.
type Logger struct {
	store Store
}

// NewLogger creates an audit logger on top of a store.
func NewLogger(store Store) *Logger {
	return &Logger{store: store}
}

// Record appends one audit entry. A failed write increments a counter and
// is logged; callers on mutation paths ignore the returned error so that
// audit trouble never blocks the mutation itself.
func (l *Logger) Record(ctx context.Context, e Entry) error {
	userID := e.UserID
	if userID == "" {
		userID = models.AuditUserSystem
	}

	row := &models.AuditLog{
		ID:        uuid.NewString(),
		TableName: e.TableName,
		RecordID:  e.RecordID,
		Action:    e.Action,
		OldValues: e.OldValues,
		NewValues: e.NewValues,
		Metadata:  e.Metadata,
		UserID:    userID,
		IPAddress: e.IPAddress,
		UserAgent: e.UserAgent,
	}

	if err := l.store.Append(ctx, row); err != nil {
		writeFailures.Inc()
		log.Error().Err(err).
			Str("table", e.TableName).
			Str("record_id", e.RecordID).
			Str("action", e.Action).
			Msg("audit write failed")

		return err
	}

	return nil
}

// RecordSensitive appends an entry for a catalogued sensitive action.
// Sensitive actions are stored as UPDATE rows tagged via metadata, keeping
// a single append-only store instead of a second schema.
func (l *Logger) RecordSensitive(ctx context.Context, action SensitiveAction, ac Context) error {
	meta := models.JSONMap{"sensitive_action": string(action)}
	for k, v := range ac.Metadata {
		meta[k] = v
	}

	return l.Record(ctx, Entry{
		TableName: ac.TableName,
		RecordID:  ac.RecordID,
		Action:    models.AuditActionUpdate,
		Metadata:  meta,
		UserID:    ac.UserID,
		IPAddress: ac.IPAddress,
		UserAgent: ac.UserAgent,
	})
}
