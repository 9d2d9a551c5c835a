// Package reminder provides the JSON handlers for reminders.
package reminder

import (
	"errors"
	"time"

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

// Path is the base path for reminders.
const Path = handler.RootPath + "reminders"

// Service provides CRUD operations for reminders.
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
	app.Patch(Path+"/:id", s.Update)
	app.Delete(Path+"/:id", s.Delete)
}

func rowMeta(r *models.Reminder) authz.RowMeta {
	return authz.RowMeta{
		DepartmentID: r.DepartmentID,
		CreatedBy:    r.CreatedBy,
		UserID:       r.UserID,
	}
}

// List returns the reminders visible to the caller.
func (s *Service) List(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	scope := authz.Scope(p, authz.ResourceReminder, c.Query("department_id"))
	page, pageSize := handler.Pagination(c)

	tx := scopefilter.Apply(s.db.Model(&models.Reminder{}), scope)

	var totalCount int64
	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count reminders failed")
		return handler.RenderError(c, err)
	}

	var reminders []models.Reminder
	if err := tx.Order("remind_at ASC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&reminders).Error; err != nil {
		log.Error().Err(err).Msg("query reminders failed")
		return handler.RenderError(c, err)
	}

	return c.JSON(fiber.Map{
		"reminders":  reminders,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalCount,
	})
}

// Create inserts a reminder. Creating one for someone else needs Manager
// rank.
func (s *Service) Create(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		UserID   string    `json:"user_id"`
		Message  string    `json:"message"   validate:"required,max=500"`
		RemindAt time.Time `json:"remind_at" validate:"required"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if in.UserID == "" {
		in.UserID = p.ID
	}

	if in.UserID != p.ID && !authz.HasMinimumRole(p.Role, authz.RoleManager, authz.RoleAdmin, authz.RoleGod) {
		authz.CountDenial(string(authz.ResourceReminder), "create")
		return handler.RenderError(c, authz.Denied("creating reminders for others requires manager rank"))
	}

	reminder := models.Reminder{
		ID:           uuid.NewString(),
		UserID:       in.UserID,
		CreatedBy:    p.ID,
		DepartmentID: p.DepartmentID,
		Message:      in.Message,
		RemindAt:     in.RemindAt,
	}

	if err := s.db.WithContext(c.Context()).Create(&reminder).Error; err != nil {
		log.Error().Err(err).Msg("create reminder failed")
		return handler.RenderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(reminder)
}

// Update marks a reminder done or edits its message.
func (s *Service) Update(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		Message  *string    `json:"message"   validate:"omitempty,max=500"`
		RemindAt *time.Time `json:"remind_at"`
		Done     *bool      `json:"done"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var reminder models.Reminder
	if err := s.db.WithContext(c.Context()).First(&reminder, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query reminder failed")

		return handler.RenderError(c, err)
	}

	if !authz.CanMutate(p, rowMeta(&reminder)) {
		authz.CountDenial(string(authz.ResourceReminder), "update")
		return handler.RenderError(c, authz.Denied("no access to this reminder"))
	}

	if in.Message != nil {
		reminder.Message = *in.Message
	}

	if in.RemindAt != nil {
		reminder.RemindAt = *in.RemindAt
	}

	if in.Done != nil {
		reminder.Done = *in.Done
	}

	if err := s.db.WithContext(c.Context()).Save(&reminder).Error; err != nil {
		log.Error().Err(err).Msg("update reminder failed")
		return handler.RenderError(c, err)
	}

	return c.JSON(reminder)
}

// Delete removes a reminder.
func (s *Service) Delete(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var reminder models.Reminder
	if err := s.db.WithContext(c.Context()).First(&reminder, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query reminder failed")

		return handler.RenderError(c, err)
	}

	if !authz.CanMutate(p, rowMeta(&reminder)) {
		authz.CountDenial(string(authz.ResourceReminder), "delete")
		return handler.RenderError(c, authz.Denied("no access to this reminder"))
	}

	if err := s.db.WithContext(c.Context()).Delete(&reminder).Error; err != nil {
		log.Error().Err(err).Msg("delete reminder failed")
		return handler.RenderError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
