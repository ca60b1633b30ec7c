package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/feedbackfortress/backend/internal/auth"
	"github.com/feedbackfortress/backend/internal/captcha"
	"github.com/feedbackfortress/backend/internal/config"
	"github.com/feedbackfortress/backend/internal/crypto"
	"github.com/feedbackfortress/backend/internal/database"
	"github.com/feedbackfortress/backend/internal/handler"
	"github.com/feedbackfortress/backend/internal/middleware"
	"github.com/feedbackfortress/backend/internal/repository"
	"github.com/feedbackfortress/backend/internal/service"
	"github.com/feedbackfortress/backend/internal/storage"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Initialize MinIO client
	minioClient, err := storage.NewMinIOClient(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MinIO: %v", err)
	}

	// Initialize field/attachment codec
	codec, err := crypto.NewCodec(cfg.App.Key)
	if err != nil {
		log.Fatalf("Failed to initialize codec: %v", err)
	}

	// Captcha store: Redis when configured, in-process otherwise
	var captchaStore captcha.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		captchaStore = captcha.NewRedisStore(rdb)
	} else {
		log.Println("REDIS_ADDR not set, captcha codes held in process memory")
		captchaStore = captcha.NewMemoryStore()
	}
	captchaService := captcha.NewService(captchaStore, cfg.Redis.CaptchaTTL)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	grievanceRepo := repository.NewGrievanceRepository(db, codec)
	notificationRepo := repository.NewNotificationRepository(db)
	inboxRepo := repository.NewInboxRepository(db)

	// Initialize services
	notificationService := service.NewNotificationService(notificationRepo)
	analyticsService := service.NewAnalyticsService(grievanceRepo, userRepo)

	// Initialize handlers
	captchaHandler := handler.NewCaptchaHandler(captchaService)
	authHandler := handler.NewAuthHandler(userRepo, jwtService, captchaService)
	grievanceHandler := handler.NewGrievanceHandler(grievanceRepo, codec, minioClient)
	adminHandler := handler.NewAdminHandler(grievanceRepo, analyticsService, notificationService)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	inboxHandler := handler.NewInboxHandler(inboxRepo)

	// Initialize auth middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"success": false,
				"error": fiber.Map{
					"code":    "INTERNAL_ERROR",
					"message": err.Error(),
				},
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.CORS.Origins, ","),
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: true,
	}))

	// API v1 routes
	api := app.Group("/api/v1")

	// Health check
	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Public routes
	api.Get("/captcha", captchaHandler.Get)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)

	// Profile
	api.Patch("/me", authMiddleware.Required(), authHandler.UpdateMe)

	// Dashboard
	api.Get("/dashboard", authMiddleware.Required(), grievanceHandler.Dashboard)

	// Grievance routes
	grievanceRoutes := api.Group("/grievances", authMiddleware.Required())
	grievanceRoutes.Post("/", grievanceHandler.Create)
	grievanceRoutes.Get("/deleted", grievanceHandler.ListDeleted)
	grievanceRoutes.Put("/restore/:id", grievanceHandler.Restore)
	grievanceRoutes.Delete("/force-delete/:id", grievanceHandler.ForceDelete)
	grievanceRoutes.Delete("/:id", grievanceHandler.SoftDelete)

	api.Get("/grievance-attachment/:id", authMiddleware.Required(), grievanceHandler.DownloadAttachment)

	// Notification routes
	notificationRoutes := api.Group("/notifications", authMiddleware.Required())
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Get("/count", notificationHandler.Count)
	notificationRoutes.Patch("/read-all", notificationHandler.MarkAllAsRead)
	notificationRoutes.Patch("/:id/read", notificationHandler.MarkAsRead)
	notificationRoutes.Delete("/", notificationHandler.ClearAll)
	notificationRoutes.Delete("/:id", notificationHandler.Delete)

	// Inbox
	api.Get("/inbox", authMiddleware.Required(), inboxHandler.List)

	// Admin routes
	adminRoutes := api.Group("/admin", authMiddleware.Required(), authMiddleware.AdminOnly())
	adminRoutes.Get("/grievances", adminHandler.ListGrievances)
	adminRoutes.Put("/grievances/:id", adminHandler.UpdateGrievance)
	adminRoutes.Get("/dashboard/stats", adminHandler.DashboardStats)
	adminRoutes.Get("/analytics", adminHandler.Analytics)
	adminRoutes.Get("/analytics/export", adminHandler.ExportAnalytics)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.App.Port
	if port == "" {
		port = "8080"
	}
	log.Printf("Server starting on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
