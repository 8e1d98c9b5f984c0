package main

import (
	"log"

	"github.com/quillford/inkpress/internal/config"
	"github.com/quillford/inkpress/internal/database"
	"github.com/quillford/inkpress/internal/repository"
	"github.com/quillford/inkpress/internal/service"
	"github.com/quillford/inkpress/pkg/logger"
)

// Standalone seeding tool. The server runs the same bootstrap at startup;
// this exists for provisioning a database ahead of the first deploy.
func main() {
	cfg := config.Load()

	if err := logger.Init(true); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	userRepo := repository.NewUserRepository(database.DB)
	roleRepo := repository.NewRoleRepository(database.DB)

	if err := service.Bootstrap(userRepo, roleRepo, cfg); err != nil {
		log.Fatal("Seeding failed:", err)
	}

	log.Println("Seeding completed")
}
