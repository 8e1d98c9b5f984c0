package service

import (
	"github.com/quillford/inkpress/internal/config"
	"github.com/quillford/inkpress/internal/models"
	"github.com/quillford/inkpress/internal/repository"
	"github.com/quillford/inkpress/internal/utils"
	"github.com/quillford/inkpress/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Bootstrap seeds the fixed roles and, unless skipped or one already
// exists, the initial Admin account from configuration. Runs once at
// startup; also reachable through cmd/seed.
func Bootstrap(userRepo *repository.UserRepository, roleRepo *repository.RoleRepository, cfg *config.Config) error {
	if err := roleRepo.EnsureDefaults(); err != nil {
		return err
	}

	if cfg.BootstrapSkip {
		logger.Log.Info("Bootstrap admin seeding skipped by configuration")
		return nil
	}
	if cfg.BootstrapAdminEmail == "" || cfg.BootstrapAdminPassword == "" {
		logger.Log.Info("No bootstrap admin configured")
		return nil
	}

	exists, err := userRepo.AdminExists()
	if err != nil {
		return err
	}
	if exists {
		logger.Log.Info("Admin account already present, skipping bootstrap")
		return nil
	}

	passwordHash, err := utils.HashPassword(cfg.BootstrapAdminPassword)
	if err != nil {
		return err
	}

	adminRole, err := roleRepo.GetByName(models.RoleAdmin)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:           uuid.New(),
		Email:        cfg.BootstrapAdminEmail,
		DisplayName:  cfg.BootstrapAdminDisplayName,
		PasswordHash: passwordHash,
		Roles:        []models.Role{*adminRole},
	}

	if err := userRepo.CreateUser(admin); err != nil {
		return err
	}

	logger.Log.Info("Bootstrap admin created",
		zap.String("user_id", admin.ID.String()),
		zap.String("email", admin.Email),
	)

	return nil
}
