package main

import (
	"log"

	"github.com/quillford/inkpress/internal/config"
	"github.com/quillford/inkpress/internal/database"
	"github.com/quillford/inkpress/internal/handler"
	"github.com/quillford/inkpress/internal/media"
	"github.com/quillford/inkpress/internal/middleware"
	"github.com/quillford/inkpress/internal/models"
	"github.com/quillford/inkpress/internal/repository"
	"github.com/quillford/inkpress/internal/service"
	"github.com/quillford/inkpress/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log.Println("Config loaded successfully")

	isProduction := cfg.Environment == "production"
	if err := logger.Init(!isProduction); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	database.Connect(cfg)
	database.Migrate()

	// Redis backs the rate limiter and the optional login lockout
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Invalid REDIS_URL: %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB)
	roleRepo := repository.NewRoleRepository(database.DB)
	postRepo := repository.NewPostRepository(database.DB)

	// Seed roles and the initial admin account
	if err := service.Bootstrap(userRepo, roleRepo, cfg); err != nil {
		log.Fatalf("Bootstrap failed: %v", err)
	}

	mediaHost := media.NewHTTPHost(cfg.MediaHostURL, cfg.MediaHostAPIKey)

	// Initialize services
	authService := service.NewAuthService(
		userRepo,
		roleRepo,
		redisClient,
		service.LockoutConfig{
			Threshold: cfg.LoginLockoutThreshold,
			Window:    cfg.LoginLockoutWindow,
		},
		cfg.JWTSecret,
		cfg.JWTIssuer,
		cfg.JWTAudience,
	)
	postService := service.NewPostService(postRepo, mediaHost)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	adminHandler := handler.NewAdminHandler(authService)
	postHandler := handler.NewPostHandler(postService)

	rateLimiter := middleware.NewRateLimiter(redisClient, middleware.RateLimiterConfig{
		MaxRequests: cfg.RateLimitMaxRequests,
		Window:      cfg.RateLimitWindow,
		BlockTime:   cfg.RateLimitBlockTime,
	})

	// Setup Gin router
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(cors.Default())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.HSTSMiddleware(isProduction))
	router.Use(rateLimiter.Middleware())

	v1 := router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/login", authHandler.Login)
	v1.GET("/posts/list", postHandler.ListPublished)
	v1.GET("/posts/slug/:slug", postHandler.GetBySlug)

	// Authenticated routes
	authed := v1.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience))
	{
		authed.GET("/auth/me", authHandler.Me)

		admin := authed.Group("/admin", middleware.RequireRole(models.RoleAdmin))
		admin.POST("/users", adminHandler.CreateUser)

		posts := authed.Group("/posts", middleware.RequireRole(models.RoleAdmin, models.RoleAuthor))
		{
			posts.POST("", postHandler.Create)
			posts.GET("/:id", postHandler.GetByID)
			posts.PUT("/:id", postHandler.Update)
			posts.DELETE("/:id", postHandler.Delete)
			posts.POST("/:id/publish", middleware.RequireRole(models.RoleAdmin), postHandler.Publish)
			posts.POST("/:id/unpublish", middleware.RequireRole(models.RoleAdmin), postHandler.Unpublish)
		}
	}

	// Start server
	log.Printf("Server starting on %s", cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
