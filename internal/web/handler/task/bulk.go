package task

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/audit"
	"github.com/shiftdesk/shiftdesk/internal/authz"
	"github.com/shiftdesk/shiftdesk/internal/bulk"
	"github.com/shiftdesk/shiftdesk/internal/db/models"
	"github.com/shiftdesk/shiftdesk/internal/identity"
	"github.com/shiftdesk/shiftdesk/internal/web/handler"
)

type bulkRequest struct {
	IDs []string `json:"ids"`
}

// fetchTargets loads the requested rows by id, like the single-row
// mutation paths. Absent and duplicate ids surface as a count mismatch in
// validation, rows the caller may not touch as a per-row rejection count.
func (s *Service) fetchTargets(c *fiber.Ctx, ids []string) ([]models.Task, []bulk.Target, error) {
	var tasks []models.Task
	err := s.db.WithContext(c.Context()).
		Where("id IN ?", ids).
		Find(&tasks).Error
	if err != nil {
		log.Error().Err(err).Msg("bulk fetch failed")
		return nil, nil, err
	}

	targets := make([]bulk.Target, 0, len(tasks))
	for i := range tasks {
		targets = append(targets, bulk.Target{
			ID:        tasks[i].ID,
			Meta:      rowMeta(&tasks[i]),
			Completed: tasks[i].Status == models.TaskStatusCompleted,
		})
	}

	return tasks, targets, nil
}

// BulkComplete marks a batch of tasks completed, all-or-nothing. Rows
// already completed block the whole batch.
func (s *Service) BulkComplete(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in bulkRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	_, targets, err := s.fetchTargets(c, in.IDs)
	if err != nil {
		return handler.RenderError(c, err)
	}

	if err := bulk.Validate(p, in.IDs, targets, bulk.Options{RejectCompleted: true}); err != nil {
		return handler.RenderBulkError(c, err)
	}

	now := time.Now()
	err = s.db.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&models.Task{}).
			Where("id IN ?", in.IDs).
			Updates(map[string]any{
				"status":       models.TaskStatusCompleted,
				"completed_at": now,
			}).Error
	})
	if err != nil {
		log.Error().Err(err).Msg("bulk complete failed")
		return handler.RenderError(c, err)
	}

	// one aggregate audit entry for the whole batch
	_ = s.audit.RecordSensitive(c.Context(), audit.ActionBulkComplete, audit.Context{
		TableName: models.Task{}.TableName(),
		RecordID:  "batch",
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Metadata: models.JSONMap{
			"ids":   in.IDs,
			"count": len(in.IDs),
		},
	})

	return c.JSON(fiber.Map{"completed": len(in.IDs)})
}

// BulkDelete removes a batch of tasks, all-or-nothing.
func (s *Service) BulkDelete(c *fiber.Ctx) error {
	p, ok := identity.FromCtx(c)
	if !ok {
		return handler.RenderError(c, authz.ErrUnauthenticated)
	}

	var in bulkRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	_, targets, err := s.fetchTargets(c, in.IDs)
	if err != nil {
		return handler.RenderError(c, err)
	}

	if err := bulk.Validate(p, in.IDs, targets, bulk.Options{}); err != nil {
		return handler.RenderBulkError(c, err)
	}

	err = s.db.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
		return tx.Where("id IN ?", in.IDs).Delete(&models.Task{}).Error
	})
	if err != nil {
		log.Error().Err(err).Msg("bulk delete failed")
		return handler.RenderError(c, err)
	}

	_ = s.audit.RecordSensitive(c.Context(), audit.ActionBulkDelete, audit.Context{
		TableName: models.Task{}.TableName(),
		RecordID:  "batch",
		UserID:    p.ID,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Metadata: models.JSONMap{
			"ids":   in.IDs,
			"count": len(in.IDs),
		},
	})

	return c.JSON(fiber.Map{"deleted": len(in.IDs)})
}
