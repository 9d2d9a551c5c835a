// Package user provides the administrative handlers for user accounts:
// listing, provisioning and role changes.
package user

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

// Path is the base path for user administration.
const Path = handler.RootPath + "admin/users"

// Service provides user administration operations.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
	audit     *audit.Logger
}

// Handler is the exported instance.
var Handler = Service{}

// Init registers routes. Everything here requires at least manager rank;
// the per-operation checks below tighten further.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, auditLogger *audit.Logger) {
	if app == nil || cfg == nil || db == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.db = db
	s.validator = validator.New()
	s.audit = auditLogger

	guard := identity.RequireRole(string(authz.ResourceUser),
		authz.RoleManager, authz.RoleAdmin, authz.RoleGod)

	app.Get(Path, guard, s.List)
	app.Post(Path, guard, s.Create)
	app.Patch(Path+"/:id/role", guard, s.ChangeRole)
}

// List returns the users visible to the caller. Managers see their own
// department, admins see everyone.
func (s *Service) List(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	scope := authz.Scope(p, authz.ResourceUser, c.Query("department_id"))
	page, pageSize := handler.Pagination(c)

	tx := scopefilter.Apply(s.db.Model(&models.User{}), scope)

	if role := c.Query("role"); role != "" {
		tx = tx.Where("role = ?", role)
	}

	var totalCount int64
	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count users failed")
		return handler.RenderError(c, err)
	}

	var users []models.User
	if err := tx.Order("email ASC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&users).Error; err != nil {
		log.Error().Err(err).Msg("query users failed")
		return handler.RenderError(c, err)
	}

	return c.JSON(fiber.Map{
		"users":      users,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalCount,
	})
}

// Create provisions a new user account. The caller must strictly outrank
// the role being granted, and managers may only provision into their own
// department.
func (s *Service) Create(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		Email        string  `json:"email"         validate:"required,email"`
		Password     string  `json:"password"      validate:"required,min=12"`
		FirstName    string  `json:"first_name"    validate:"max=100"`
		LastName     string  `json:"last_name"     validate:"max=100"`
		Role         string  `json:"role"          validate:"required"`
		DepartmentID *string `json:"department_id"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	role := authz.ParseRole(in.Role)
	if !role.Known() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown role"})
	}

	if !authz.Outranks(p.Role, role) {
		authz.CountDenial(string(authz.ResourceUser), "create")
		return handler.RenderError(c, authz.Denied("cannot grant a role at or above your own"))
	}

	if p.Role == authz.RoleManager {
		if p.DepartmentID == nil || in.DepartmentID == nil || *in.DepartmentID != *p.DepartmentID {
			authz.CountDenial(string(authz.ResourceUser), "create")
			return handler.RenderError(c, authz.Denied("managers provision users in their own department only"))
		}
	}

	user := models.User{
		ID:           uuid.NewString(),
		Active:       true,
		Email:        in.Email,
		Password:     models.HashPassword(in.Password),
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         string(role),
		DepartmentID: in.DepartmentID,
	}

	if err := s.db.WithContext(c.Context()).Create(&user).Error; err != nil {
		log.Error().Err(err).Msg("create user failed")
		return handler.RenderError(c, err)
	}

	// Audit failures are observed via metrics, never propagated.
	_ = s.audit.RecordSensitive(c.Context(), audit.ActionUserProvision, audit.Context{
		TableName: user.TableName(),
		RecordID:  user.ID,
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Metadata:  models.JSONMap{"email": user.Email, "role": user.Role},
	})

	return c.Status(fiber.StatusCreated).JSON(user)
}

// ChangeRole updates a user's role. The caller must strictly outrank both
// the user's current role and the role being granted.
func (s *Service) ChangeRole(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		Role string `json:"role" validate:"required"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	newRole := authz.ParseRole(in.Role)
	if !newRole.Known() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown role"})
	}

	var user models.User
	if err := s.db.WithContext(c.Context()).First(&user, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query user failed")

		return handler.RenderError(c, err)
	}

	currentRole := authz.ParseRole(user.Role)
	if !authz.Outranks(p.Role, currentRole) || !authz.Outranks(p.Role, newRole) {
		authz.CountDenial(string(authz.ResourceUser), "role_change")
		return handler.RenderError(c, authz.Denied("cannot change roles at or above your own"))
	}

	if p.Role == authz.RoleManager && (user.DepartmentID == nil || !p.InDepartment(*user.DepartmentID)) {
		authz.CountDenial(string(authz.ResourceUser), "role_change")
		return handler.RenderError(c, authz.Denied("managers change roles in their own department only"))
	}

	oldRole := user.Role
	user.Role = string(newRole)

	if err := s.db.WithContext(c.Context()).Save(&user).Error; err != nil {
		log.Error().Err(err).Msg("update user role failed")
		return handler.RenderError(c, err)
	}

	// Audit failures are observed via metrics, never propagated.
	_ = s.audit.RecordSensitive(c.Context(), audit.ActionRoleChange, audit.Context{
		TableName: user.TableName(),
		RecordID:  user.ID,
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Metadata:  models.JSONMap{"old_role": oldRole, "new_role": user.Role},
	})

	return c.JSON(user)
}
