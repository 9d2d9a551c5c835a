// Package feedback provides the JSON handlers for user feedback notes.
package feedback

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/authz"
	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/db/models"
	"github.com/shiftdesk/shiftdesk/internal/db/scopefilter"
	"github.com/shiftdesk/shiftdesk/internal/identity"
	"github.com/shiftdesk/shiftdesk/internal/web/handler"
)

// Path is the base path for feedback.
const Path = handler.RootPath + "feedback"

// Service provides operations for feedback notes.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
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
	s.validator = validator.New()

	app.Get(Path, s.List)
	app.Post(Path, s.Create)
	app.Delete(Path+"/:id", s.Delete)
}

func rowMeta(f *models.Feedback) authz.RowMeta {
	// The author and the subject both count as owners for visibility, but
	// only the author may delete, so UserID is the single mutation owner.
	return authz.RowMeta{
		DepartmentID: f.DepartmentID,
		UserID:       f.UserID,
	}
}

// List returns the feedback visible to the caller. Non-managers see only
// notes they wrote or that are about them.
func (s *Service) List(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	scope := authz.Scope(p, authz.ResourceFeedback, c.Query("department_id"))
	page, pageSize := handler.Pagination(c)

	tx := scopefilter.Apply(s.db.Model(&models.Feedback{}), scope)

	if target := c.Query("target_user_id"); target != "" {
		tx = tx.Where("target_user_id = ?", target)
	}

	var totalCount int64
	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count feedback failed")
		return handler.RenderError(c, err)
	}

	var entries []models.Feedback
	if err := tx.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&entries).Error; err != nil {
		log.Error().Err(err).Msg("query feedback failed")
		return handler.RenderError(c, err)
	}

	return c.JSON(fiber.Map{
		"feedback":   entries,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalCount,
	})
}

// Create inserts a feedback note authored by the caller.
func (s *Service) Create(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		TargetUserID string `json:"target_user_id" validate:"required"`
		Message      string `json:"message"        validate:"required"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if in.TargetUserID == p.ID {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "cannot leave feedback about yourself"})
	}

	var target models.User
	if err := s.db.WithContext(c.Context()).First(&target, "id = ?", in.TargetUserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query feedback target failed")

		return handler.RenderError(c, err)
	}

	entry := models.Feedback{
		ID:           uuid.NewString(),
		UserID:       p.ID,
		TargetUserID: target.ID,
		DepartmentID: target.DepartmentID,
		Message:      in.Message,
	}

	if err := s.db.WithContext(c.Context()).Create(&entry).Error; err != nil {
		log.Error().Err(err).Msg("create feedback failed")
		return handler.RenderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(entry)
}

// Delete removes a feedback note. Only the author or a sufficiently
// privileged caller may delete it.
func (s *Service) Delete(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var entry models.Feedback
	if err := s.db.WithContext(c.Context()).First(&entry, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query feedback failed")

		return handler.RenderError(c, err)
	}

	if !authz.CanMutate(p, rowMeta(&entry)) {
		authz.CountDenial(string(authz.ResourceFeedback), "delete")
		return handler.RenderError(c, authz.Denied("no access to this feedback entry"))
	}

	if err := s.db.WithContext(c.Context()).Delete(&entry).Error; err != nil {
		log.Error().Err(err).Msg("delete feedback failed")
		return handler.RenderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
