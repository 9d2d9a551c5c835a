// Package sop provides the JSON handlers for standard operating
// procedures. Active org-wide SOPs are readable by everyone; drafts only
// by their author and department management.
package sop

import (
	"errors"

	"github.com/go-playground/validator/v10"
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

// Path is the base path for SOP management.
const Path = handler.RootPath + "sops"

// Service provides CRUD operations for SOPs.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
	audit     *audit.Logger
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Creation is restricted to Manager rank and above.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, auditLogger *audit.Logger) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()
	s.audit = auditLogger

	app.Get(Path, s.List)
	app.Get(Path+"/:id", s.Get)
	app.Post(Path,
		identity.RequireRole(string(authz.ResourceSOP), authz.RoleManager, authz.RoleAdmin, authz.RoleGod),
		s.Create,
	)
	app.Patch(Path+"/:id", s.Update)
	app.Delete(Path+"/:id", s.Delete)
}

func rowMeta(p *models.SOP) authz.RowMeta {
	return authz.RowMeta{
		DepartmentID: p.DepartmentID,
		CreatedBy:    p.CreatedBy,
	}
}

func snapshot(p *models.SOP) models.JSONMap {
	values := models.JSONMap{
		"title":      p.Title,
		"status":     p.Status,
		"created_by": p.CreatedBy,
	}
	if p.DepartmentID != nil {
		values["department_id"] = *p.DepartmentID
	}

	return values
}

// List returns the SOPs visible to the caller.
func (s *Service) List(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	scope := authz.Scope(p, authz.ResourceSOP, c.Query("department_id"))
	page, pageSize := handler.Pagination(c)

	tx := scopefilter.Apply(s.db.Model(&models.SOP{}), scope)

	var totalCount int64
	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count sops failed")
		return handler.RenderError(c, err)
	}

	var sops []models.SOP
	if err := tx.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&sops).Error; err != nil {
		log.Error().Err(err).Msg("query sops failed")
		return handler.RenderError(c, err)
	}

	return c.JSON(fiber.Map{
		"sops":       sops,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalCount,
	})
}

// Get returns one SOP within the caller's scope.
func (s *Service) Get(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var sop models.SOP
	err := scopefilter.Apply(s.db.Model(&models.SOP{}), authz.Scope(p, authz.ResourceSOP, "")).
		Where("id = ?", c.Params("id")).
		First(&sop).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query sop failed")

		return handler.RenderError(c, err)
	}

	return c.JSON(sop)
}

// Create inserts a new SOP. Creation is a catalogued sensitive action.
func (s *Service) Create(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		Title        string  `json:"title"         validate:"required,max=255"`
		Body         string  `json:"body"          validate:"required"`
		Status       string  `json:"status"        validate:"omitempty,oneof=draft active archived"`
		DepartmentID *string `json:"department_id"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if in.Status == "" {
		in.Status = models.SOPStatusDraft
	}

	// a manager may not publish outside its own department
	if p.Role == authz.RoleManager && in.DepartmentID != nil && !p.InDepartment(*in.DepartmentID) {
		authz.CountDenial(string(authz.ResourceSOP), "create")
		return handler.RenderError(c, authz.Denied("managers may only create SOPs for their own department"))
	}

	sop := models.SOP{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Body:         in.Body,
		Status:       in.Status,
		DepartmentID: in.DepartmentID,
		CreatedBy:    p.ID,
	}

	if err := s.db.WithContext(c.Context()).Create(&sop).Error; err != nil {
		log.Error().Err(err).Msg("create sop failed")
		return handler.RenderError(c, err)
	}

	// audit failures are observed via metrics, never propagated
	_ = s.audit.RecordSensitive(c.Context(), audit.ActionSOPCreate, audit.Context{
		TableName: models.SOP{}.TableName(),
		RecordID:  sop.ID,
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Metadata:  models.JSONMap{"title": sop.Title},
	})

	return c.Status(fiber.StatusCreated).JSON(sop)
}

// Update mutates one SOP.
func (s *Service) Update(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		Title  *string `json:"title"  validate:"omitempty,max=255"`
		Body   *string `json:"body"`
		Status *string `json:"status" validate:"omitempty,oneof=draft active archived"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var sop models.SOP
	if err := s.db.WithContext(c.Context()).First(&sop, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query sop failed")

		return handler.RenderError(c, err)
	}

	if !authz.CanMutate(p, rowMeta(&sop)) {
		authz.CountDenial(string(authz.ResourceSOP), "update")
		return handler.RenderError(c, authz.Denied("no access to this SOP"))
	}

	oldValues := snapshot(&sop)

	if in.Title != nil {
		sop.Title = *in.Title
	}

	if in.Body != nil {
		sop.Body = *in.Body
	}

	if in.Status != nil {
		sop.Status = *in.Status
	}

	if err := s.db.WithContext(c.Context()).Save(&sop).Error; err != nil {
		log.Error().Err(err).Msg("update sop failed")
		return handler.RenderError(c, err)
	}

	_ = s.audit.Record(c.Context(), audit.Entry{
		TableName: models.SOP{}.TableName(),
		RecordID:  sop.ID,
		Action:    models.AuditActionUpdate,
		OldValues: oldValues,
		NewValues: snapshot(&sop),
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})

	return c.JSON(sop)
}

// Delete removes one SOP.
func (s *Service) Delete(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var sop models.SOP
	if err := s.db.WithContext(c.Context()).First(&sop, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query sop failed")

		return handler.RenderError(c, err)
	}

	if !authz.CanMutate(p, rowMeta(&sop)) {
		authz.CountDenial(string(authz.ResourceSOP), "delete")
		return handler.RenderError(c, authz.Denied("no access to this SOP"))
	}

	if err := s.db.WithContext(c.Context()).Delete(&sop).Error; err != nil {
		log.Error().Err(err).Msg("delete sop failed")
		return handler.RenderError(c, err)
	}

	_ = s.audit.Record(c.Context(), audit.Entry{
		TableName: models.SOP{}.TableName(),
		RecordID:  sop.ID,
		Action:    models.AuditActionDelete,
		OldValues: snapshot(&sop),
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})

	return c.SendStatus(fiber.StatusNoContent)
}
