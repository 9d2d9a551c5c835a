// Package auditlog exposes the read-only audit trail to administrators.
// There are deliberately no mutation routes; rows only ever get appended
// through the audit logger.
package auditlog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/authz"
	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/db/models"
	"github.com/shiftdesk/shiftdesk/internal/identity"
	"github.com/shiftdesk/shiftdesk/internal/web/handler"
)

// Path is the base path for the audit trail.
const Path = handler.RootPath + "admin/audit-logs"

// Service provides read access to audit entries.
type Service struct {
	cfg *config.Config
	db  *gorm.DB
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db

	guard := identity.RequireRole("audit_logs", authz.RoleAdmin, authz.RoleGod)

	app.Get(Path, guard, s.List)
}

// List returns audit entries, newest first. Filterable by table, record,
// acting user and sensitive action tag.
func (s *Service) List(c *fiber.Ctx) error {
	if _, ok := identity.FromCtx(c); !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	page, pageSize := handler.Pagination(c)

	tx := s.db.WithContext(c.Context()).Model(&models.AuditLog{})

	if table := c.Query("table"); table != "" {
		tx = tx.Where("table_name = ?", table)
	}

	if recordID := c.Query("record_id"); recordID != "" {
		tx = tx.Where("record_id = ?", recordID)
	}

	if userID := c.Query("user_id"); userID != "" {
		tx = tx.Where("user_id = ?", userID)
	}

	if action := c.Query("action"); action != "" {
		tx = tx.Where("action = ?", action)
	}

	var totalCount int64
	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count audit entries failed")
		return handler.RenderError(c, err)
	}

	var entries []models.AuditLog
	if err := tx.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&entries).Error; err != nil {
		log.Error().Err(err).Msg("query audit entries failed")
		return handler.RenderError(c, err)
	}

	return c.JSON(fiber.Map{
		"entries":    entries,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalCount,
	})
}
