// Package clock provides the JSON handlers for clock sessions. Clock-in
// and clock-out are catalogued sensitive actions and always audited.
package clock

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/audit"
	"github.com/shiftdesk/shiftdesk/internal/authz"
	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/db/models"
	"github.com/shiftdesk/shiftdesk/internal/db/scopefilter"
	"github.com/shiftdesk/shiftdesk/internal/identity"
	"github.com/shiftdesk/shiftdesk/internal/web/handler"
)

// Path is the base path for clock sessions.
const Path = handler.RootPath + "clock-sessions"

// Service provides clock session operations.
type Service struct {
	cfg   *config.Config
	db    *gorm.DB
	audit *audit.Logger
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, auditLogger *audit.Logger) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.audit = auditLogger

	app.Get(Path, s.List)
	app.Post(Path+"/in", s.ClockIn)
	app.Post(Path+"/out", s.ClockOut)
}

// List returns the clock sessions visible to the caller, newest first.
// Durations are computed per session from its actual timestamps; there is
// no aggregate total endpoint.
func (s *Service) List(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	scope := authz.Scope(p, authz.ResourceClockSession, c.Query("department_id"))
	page, pageSize := handler.Pagination(c)

	tx := scopefilter.Apply(s.db.Model(&models.ClockSession{}), scope)

	var totalCount int64
	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count clock sessions failed")
		return handler.RenderError(c, err)
	}

	var sessions []models.ClockSession
	if err := tx.Order("clock_in DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&sessions).Error; err != nil {
		log.Error().Err(err).Msg("query clock sessions failed")
		return handler.RenderError(c, err)
	}

	type sessionOut struct {
		models.ClockSession
		DurationSeconds float64 `json:"duration_seconds"`
	}

	out := make([]sessionOut, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessionOut{
			ClockSession:    sessions[i],
			DurationSeconds: sessions[i].Duration().Seconds(),
		})
	}

	return c.JSON(fiber.Map{
		"sessions":   out,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalCount,
	})
}

// ClockIn opens a session for the caller. A second open session is a
// conflict.
func (s *Service) ClockIn(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var open models.ClockSession
	err := s.db.WithContext(c.Context()).
		Where("user_id = ? AND clock_out IS NULL", p.ID).
		First(&open).Error

	switch {
	case err == nil:
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already clocked in"})
	case !errors.Is(err, gorm.ErrRecordNotFound):
		log.Error().Err(err).Msg("query open session failed")
		return handler.RenderError(c, err)
	}

	session := models.ClockSession{
		ID:           uuid.NewString(),
		UserID:       p.ID,
		DepartmentID: p.DepartmentID,
		ClockIn:      time.Now(),
	}

	if err := s.db.WithContext(c.Context()).Create(&session).Error; err != nil {
		log.Error().Err(err).Msg("clock in failed")
		return handler.RenderError(c, err)
	}

	// audit failures are observed via metrics, never propagated
	_ = s.audit.RecordSensitive(c.Context(), audit.ActionClockIn, audit.Context{
		TableName: models.ClockSession{}.TableName(),
		RecordID:  session.ID,
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})

	return c.Status(fiber.StatusCreated).JSON(session)
}

// ClockOut closes the caller's open session.
func (s *Service) ClockOut(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var session models.ClockSession
	err := s.db.WithContext(c.Context()).
		Where("user_id = ? AND clock_out IS NULL", p.ID).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "not clocked in"})
		}

		log.Error().Err(err).Msg("query open session failed")

		return handler.RenderError(c, err)
	}

	now := time.Now()
	session.ClockOut = &now

	if err := s.db.WithContext(c.Context()).Save(&session).Error; err != nil {
		log.Error().Err(err).Msg("clock out failed")
		return handler.RenderError(c, err)
	}

	_ = s.audit.RecordSensitive(c.Context(), audit.ActionClockOut, audit.Context{
		TableName: models.ClockSession{}.TableName(),
		RecordID:  session.ID,
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Metadata:  models.JSONMap{"duration_seconds": session.Duration().Seconds()},
	})

	return c.JSON(session)
}
