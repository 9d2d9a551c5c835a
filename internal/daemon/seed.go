package daemon

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/shiftdesk/shiftdesk/internal/authz"
	"github.com/shiftdesk/shiftdesk/internal/config"
	"github.com/shiftdesk/shiftdesk/internal/db/models"
	"github.com/shiftdesk/shiftdesk/internal/uniuri"
)

// seed populates an empty database with the initial root account and, in
// dev mode, a small fixture set to poke the API with. The generated root
// password is logged exactly once and must be rotated after first login.
func seed(cfg *config.Config, db *gorm.DB) {
	var count int64

	db.Model(&models.User{}).Count(&count)
	if count > 0 {
		return
	}

	password := uniuri.NewLen(uniuri.UUIDLen)

	root := models.User{
		ID:       uuid.NewString(),
		Active:   true,
		Email:    "root@localhost",
		Password: models.HashPassword(password),
		Role:     string(authz.RoleGod),
	}

	if err := db.Create(&root).Error; err != nil {
		log.Fatal().Err(err).Msg("failed to seed root user")
		return
	}

	log.Warn().
		Str("email", root.Email).
		Str("password", password).
		Msg("seeded initial root user, rotate this password after first login")

	if cfg.DevMode {
		seedDevFixtures(db)
	}
}

func seedDevFixtures(db *gorm.DB) {
	dept := models.Department{ID: uuid.NewString(), Name: "Operations"}
	if err := db.Create(&dept).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed dev department")
		return
	}

	manager := models.User{
		ID:           uuid.NewString(),
		Active:       true,
		Email:        "manager@localhost",
		Password:     models.HashPassword(uniuri.New()),
		Role:         string(authz.RoleManager),
		DepartmentID: &dept.ID,
	}
	worker := models.User{
		ID:           uuid.NewString(),
		Active:       true,
		Email:        "worker@localhost",
		Password:     models.HashPassword(uniuri.New()),
		Role:         string(authz.RoleUser),
		DepartmentID: &dept.ID,
	}

	if err := db.Create(&[]models.User{manager, worker}).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed dev users")
		return
	}

	task := models.Task{
		ID:           uuid.NewString(),
		Title:        "Walk through the onboarding checklist",
		Status:       models.TaskStatusOpen,
		DepartmentID: &dept.ID,
		AssignedTo:   worker.ID,
		CreatedBy:    manager.ID,
	}
	sop := models.SOP{
		ID:        uuid.NewString(),
		Title:     "Incident escalation",
		Body:      "Page the on-call manager, then open a ticket.",
		Status:    models.SOPStatusActive,
		CreatedBy: manager.ID,
	}

	if err := db.Create(&task).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed dev task")
	}

	if err := db.Create(&sop).Error; err != nil {
		log.Error().Err(err).Msg("failed to seed dev sop")
	}

	log.Info().Str("department", dept.Name).Msg("seeded dev fixtures")
}
