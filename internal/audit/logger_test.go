package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/db/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to create test database")

	err = db.AutoMigrate(&models.AuditLog{})
	require.NoError(t, err, "failed to migrate test database")

	return db
}

func TestRecordPersistsEntry(t *testing.T) {
	db := setupTestDB(t)
	logger := NewLogger(NewGormStore(db))

	err := logger.Record(context.Background(), Entry{
		TableName: "tasks",
		RecordID:  "t1",
		Action:    models.AuditActionUpdate,
		OldValues: models.JSONMap{"assigned_to": "u_old"},
		NewValues: models.JSONMap{"assigned_to": "u_new"},
		UserID:    "m_1",
		IPAddress: "10.0.0.1",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	var rows []models.AuditLog
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.NotEmpty(t, row.ID)
	assert.Equal(t, "tasks", row.TableName)
	assert.Equal(t, "t1", row.RecordID)
	assert.Equal(t, models.AuditActionUpdate, row.Action)
	assert.Equal(t, "u_old", row.OldValues["assigned_to"])
	assert.Equal(t, "u_new", row.NewValues["assigned_to"])
	assert.Equal(t, "m_1", row.UserID)
	assert.Equal(t, "10.0.0.1", row.IPAddress)
	assert.False(t, row.CreatedAt.IsZero())
}

func TestRecordUsesSystemSentinel(t *testing.T) {
	db := setupTestDB(t)
	logger := NewLogger(NewGormStore(db))

	err := logger.Record(context.Background(), Entry{
		TableName: "users",
		RecordID:  "u1",
		Action:    models.AuditActionInsert,
	})
	require.NoError(t, err)

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)
	assert.Equal(t, models.AuditUserSystem, row.UserID)
}

func TestRecordSensitiveTagsMetadata(t *testing.T) {
	db := setupTestDB(t)
	logger := NewLogger(NewGormStore(db))

	err := logger.RecordSensitive(context.Background(), ActionBulkComplete, Context{
		TableName: "tasks",
		RecordID:  "batch",
		UserID:    "m_1",
		Metadata:  models.JSONMap{"ids": []any{"t1", "t2"}, "count": float64(2)},
	})
	require.NoError(t, err)

	var row models.AuditLog
	require.NoError(t, db.First(&row).Error)

	assert.Equal(t, models.AuditActionUpdate, row.Action, "sensitive actions are stored as tagged UPDATE rows")
	assert.Equal(t, string(ActionBulkComplete), row.Metadata["sensitive_action"])
	assert.Equal(t, float64(2), row.Metadata["count"])
}

type failingStore struct{}

func (failingStore) Append(context.Context, *models.AuditLog) error {
	return errors.New("store down")
}

func TestRecordReportsStoreFailure(t *testing.T) {
	logger := NewLogger(failingStore{})

	err := logger.Record(context.Background(), Entry{
		TableName: "tasks",
		RecordID:  "t1",
		Action:    models.AuditActionDelete,
	})

	// the error is returned for observability; callers never propagate it
	assert.Error(t, err)
}
