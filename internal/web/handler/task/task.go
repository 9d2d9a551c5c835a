// Package task provides the JSON handlers for tasks, including the
// all-or-nothing bulk operations.
package task

import (
	"errors"
	"time"

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

// Path is the base path for task management.
const Path = handler.RootPath + "tasks"

// Service provides CRUD and bulk operations for tasks.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	validator *validator.Validate
	audit     *audit.Logger
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
	s.validator = validator.New()
	s.audit = auditLogger

	app.Get(Path, s.List)
	app.Get(Path+"/:id", s.Get)
	app.Post(Path, s.Create)
	app.Patch(Path+"/:id", s.Update)
	app.Delete(Path+"/:id", s.Delete)
	app.Post(Path+"/bulk/complete", s.BulkComplete)
	app.Post(Path+"/bulk/delete", s.BulkDelete)
}

func rowMeta(t *models.Task) authz.RowMeta {
	return authz.RowMeta{
		DepartmentID: t.DepartmentID,
		CreatedBy:    t.CreatedBy,
		AssignedTo:   t.AssignedTo,
	}
}

func snapshot(t *models.Task) models.JSONMap {
	values := models.JSONMap{
		"title":       t.Title,
		"description": t.Description,
		"status":      t.Status,
		"assigned_to": t.AssignedTo,
		"created_by":  t.CreatedBy,
	}
	if t.DepartmentID != nil {
		values["department_id"] = *t.DepartmentID
	}

	return values
}

// List returns the tasks visible to the caller. A department_id query
// parameter is honored for Manager rank and above only.
func (s *Service) List(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	scope := authz.Scope(p, authz.ResourceTask, c.Query("department_id"))
	page, pageSize := handler.Pagination(c)

	tx := scopefilter.Apply(s.db.Model(&models.Task{}), scope)
	if status := c.Query("status"); status != "" {
		tx = tx.Where("status = ?", status)
	}

	var totalCount int64
	if err := tx.Count(&totalCount).Error; err != nil {
		log.Error().Err(err).Msg("count tasks failed")
		return handler.RenderError(c, err)
	}

	var tasks []models.Task
	if err := tx.Order("created_at DESC").
		Limit(pageSize).Offset((page - 1) * pageSize).
		Find(&tasks).Error; err != nil {
		log.Error().Err(err).Msg("query tasks failed")
		return handler.RenderError(c, err)
	}

	return c.JSON(fiber.Map{
		"tasks":      tasks,
		"page":       page,
		"pageSize":   pageSize,
		"totalItems": totalCount,
	})
}

// Get returns one task. Out-of-scope rows are indistinguishable from
// absent ones.
func (s *Service) Get(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	scope := authz.Scope(p, authz.ResourceTask, "")

	var task models.Task
	err := scopefilter.Apply(s.db.Model(&models.Task{}), scope).
		Where("id = ?", c.Params("id")).
		First(&task).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query task failed")

		return handler.RenderError(c, err)
	}

	return c.JSON(task)
}

// Create inserts a new task. Assigning it to someone else at creation
// needs the same rank as a reassignment.
func (s *Service) Create(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		Title        string     `json:"title"         validate:"required,max=255"`
		Description  string     `json:"description"`
		DepartmentID *string    `json:"department_id"`
		AssignedTo   string     `json:"assigned_to"`
		DueAt        *time.Time `json:"due_at"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	task := models.Task{
		ID:           uuid.NewString(),
		Title:        in.Title,
		Description:  in.Description,
		Status:       models.TaskStatusOpen,
		DepartmentID: in.DepartmentID,
		AssignedTo:   in.AssignedTo,
		CreatedBy:    p.ID,
		DueAt:        in.DueAt,
	}

	if task.DepartmentID == nil {
		task.DepartmentID = p.DepartmentID
	}

	if task.AssignedTo == "" {
		task.AssignedTo = p.ID
	}

	if task.AssignedTo != p.ID {
		assigneeDept, err := s.lookupUserDepartment(c, task.AssignedTo)
		if err != nil {
			return handler.RenderError(c, err)
		}

		meta := rowMeta(&task)
		if err := authz.CanReassign(p, meta, assigneeDept); err != nil {
			authz.CountDenial(string(authz.ResourceTask), "create")
			return handler.RenderError(c, err)
		}
	}

	if err := s.db.WithContext(c.Context()).Create(&task).Error; err != nil {
		log.Error().Err(err).Msg("create task failed")
		return handler.RenderError(c, err)
	}

	// audit failures are observed via metrics, never propagated
	_ = s.audit.Record(c.Context(), audit.Entry{
		TableName: models.Task{}.TableName(),
		RecordID:  task.ID,
		Action:    models.AuditActionInsert,
		NewValues: snapshot(&task),
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})

	return c.Status(fiber.StatusCreated).JSON(task)
}

// Update mutates one task. Reassignment needs Manager rank, and a Manager
// may only assign within its own department.
func (s *Service) Update(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in struct {
		Title       *string    `json:"title"        validate:"omitempty,max=255"`
		Description *string    `json:"description"`
		Status      *string    `json:"status"       validate:"omitempty,oneof=open in_progress completed"`
		AssignedTo  *string    `json:"assigned_to"`
		DueAt       *time.Time `json:"due_at"`
	}

	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	if err := s.validator.Struct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var task models.Task
	if err := s.db.WithContext(c.Context()).First(&task, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query task failed")

		return handler.RenderError(c, err)
	}

	// the mutation guard runs against the existing row, not the request
	if !authz.CanMutate(p, rowMeta(&task)) {
		authz.CountDenial(string(authz.ResourceTask), "update")
		return handler.RenderError(c, authz.Denied("no access to this task"))
	}

	oldValues := snapshot(&task)

	reassigned := in.AssignedTo != nil && *in.AssignedTo != task.AssignedTo
	if reassigned {
		assigneeDept, err := s.lookupUserDepartment(c, *in.AssignedTo)
		if err != nil {
			return handler.RenderError(c, err)
		}

		if err := authz.CanReassign(p, rowMeta(&task), assigneeDept); err != nil {
			authz.CountDenial(string(authz.ResourceTask), "reassign")
			return handler.RenderError(c, err)
		}

		task.AssignedTo = *in.AssignedTo
	}

	if in.Title != nil {
		task.Title = *in.Title
	}

	if in.Description != nil {
		task.Description = *in.Description
	}

	if in.DueAt != nil {
		task.DueAt = in.DueAt
	}

	completed := false
	if in.Status != nil && *in.Status != task.Status {
		task.Status = *in.Status

		if task.Status == models.TaskStatusCompleted {
			now := time.Now()
			task.CompletedAt = &now
			completed = true
		}
	}

	if err := s.db.WithContext(c.Context()).Save(&task).Error; err != nil {
		log.Error().Err(err).Msg("update task failed")
		return handler.RenderError(c, err)
	}

	metadata := models.JSONMap{}
	if reassigned {
		metadata["sensitive_action"] = string(audit.ActionTaskAssign)
	}

	if completed {
		metadata["sensitive_action"] = string(audit.ActionTaskComplete)
	}

	_ = s.audit.Record(c.Context(), audit.Entry{
		TableName: models.Task{}.TableName(),
		RecordID:  task.ID,
		Action:    models.AuditActionUpdate,
		OldValues: oldValues,
		NewValues: snapshot(&task),
		Metadata:  metadata,
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})

	return c.JSON(task)
}

// Delete removes one task.
func (s *Service) Delete(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var task models.Task
	if err := s.db.WithContext(c.Context()).First(&task, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return handler.RenderError(c, authz.ErrNotFound)
		}

		log.Error().Err(err).Msg("query task failed")

		return handler.RenderError(c, err)
	}

	if !authz.CanMutate(p, rowMeta(&task)) {
		authz.CountDenial(string(authz.ResourceTask), "delete")
		return handler.RenderError(c, authz.Denied("no access to this task"))
	}

	if err := s.db.WithContext(c.Context()).Delete(&task).Error; err != nil {
		log.Error().Err(err).Msg("delete task failed")
		return handler.RenderError(c, err)
	}

	_ = s.audit.Record(c.Context(), audit.Entry{
		TableName: models.Task{}.TableName(),
		RecordID:  task.ID,
		Action:    models.AuditActionDelete,
		OldValues: snapshot(&task),
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	})

	return c.SendStatus(fiber.StatusNoContent)
}

// lookupUserDepartment fetches the department of the prospective assignee.
func (s *Service) lookupUserDepartment(c *fiber.Ctx, userID string) (*string, error) {
	var user models.User
	if err := s.db.WithContext(c.Context()).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, authz.Denied("assignee does not exist")
		}

		log.Error().Err(err).Msg("query assignee failed")

		return nil, err
	}

	return user.DepartmentID, nil
}
