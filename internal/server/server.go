// Package server contains HTTP handlers and routing for the API.
package server

import (
	"context"
	"fmt"
	"time"

	"capmatch/internal/cache"
	"capmatch/internal/config"
	"capmatch/internal/database"
	"capmatch/internal/middleware"
	"capmatch/internal/models"
	"capmatch/internal/observability"
	"capmatch/internal/repository"
	"capmatch/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	logger         *observability.Logger

	studentRepo       repository.StudentRepository
	supervisorRepo    repository.SupervisorRepository
	applicationRepo   repository.ApplicationRepository
	projectRepo       repository.ProjectRepository
	partnershipRepo   repository.PartnershipRequestRepository
	coSupervisionRepo repository.CoSupervisionRequestRepository

	applicationService *service.ApplicationService
	partnershipService *service.StudentPartnershipService
	coSupervisionSvc   *service.SupervisorPartnershipService
	projectService     *service.ProjectService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	middleware.InitMiddleware(cfg)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("capmatch-api"),
		logger:         observability.Component("server"),

		studentRepo:       repository.NewStudentRepository(db),
		supervisorRepo:    repository.NewSupervisorRepository(db),
		applicationRepo:   repository.NewApplicationRepository(db),
		projectRepo:       repository.NewProjectRepository(db),
		partnershipRepo:   repository.NewPartnershipRequestRepository(db),
		coSupervisionRepo: repository.NewCoSupervisionRequestRepository(db),
	}

	ledger := service.NewCapacityLedger(db)
	server.applicationService = service.NewApplicationService(
		ledger, server.applicationRepo, server.studentRepo, server.supervisorRepo)
	server.partnershipService = service.NewStudentPartnershipService(
		db, server.partnershipRepo, server.studentRepo, server.applicationRepo)
	server.coSupervisionSvc = service.NewSupervisorPartnershipService(
		db, ledger, server.coSupervisionRepo, server.supervisorRepo, server.projectRepo)
	server.projectService = service.NewProjectService(
		server.projectRepo, server.supervisorRepo, server.coSupervisionSvc)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for correlation
	app.Use(requestid.New())

	// Propagate request ID and user ID into the request context
	app.Use(middleware.ContextMiddleware())

	// Prometheus HTTP metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Structured request logging (after requestid and context middleware)
	app.Use(middleware.RequestLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400,
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	protected := api.Group("", middleware.AuthRequired)

	// Auth surface. Identity itself lives in an external provider; only the
	// verification-email resend is proxied here so it can be rate limited.
	auth := protected.Group("/auth")
	auth.Post("/resend-verification",
		middleware.RateLimit(s.redis, "resend_verification", s.resendLimit()),
		s.ResendVerification)

	// Application routes
	applications := protected.Group("/applications")
	applications.Post("/",
		middleware.RequireRole(models.RoleStudent),
		middleware.RateLimit(s.redis, "submit_application", s.submitLimit()),
		s.CreateApplication)
	applications.Get("/", s.GetApplications)
	applications.Get("/duplicate-check",
		middleware.RequireRole(models.RoleStudent), s.CheckDuplicateApplication)
	applications.Patch("/:id/status",
		middleware.RequireRole(models.RoleSupervisor), s.UpdateApplicationStatus)
	applications.Post("/:id/resubmit",
		middleware.RequireRole(models.RoleStudent), s.ResubmitApplication)
	applications.Delete("/:id",
		middleware.RequireRole(models.RoleStudent), s.WithdrawApplication)

	// Student partnership routes
	partnerships := protected.Group("/partnerships",
		middleware.RequireRole(models.RoleStudent))
	partnerships.Post("/requests",
		middleware.RateLimit(s.redis, "partnership_request", s.requestLimit()),
		s.SendPartnershipRequest)
	partnerships.Get("/requests", s.GetPartnershipRequests)
	partnerships.Post("/requests/:id/respond", s.RespondToPartnershipRequest)
	partnerships.Delete("/requests/:id", s.CancelPartnershipRequest)
	partnerships.Delete("/partner", s.Unpair)

	// Project and co-supervision routes
	projects := protected.Group("/projects",
		middleware.RequireRole(models.RoleSupervisor))
	projects.Post("/", s.CreateProject)
	projects.Get("/", s.GetProjects)
	projects.Patch("/:id/status", s.UpdateProjectStatus)
	projects.Post("/:projectId/co-supervision/requests",
		middleware.RateLimit(s.redis, "partnership_request", s.requestLimit()),
		s.SendCoSupervisionRequest)
	projects.Delete("/:projectId/co-supervisor", s.UnpairCoSupervisor)

	coSupervision := protected.Group("/co-supervision",
		middleware.RequireRole(models.RoleSupervisor))
	coSupervision.Get("/requests", s.GetCoSupervisionRequests)
	coSupervision.Post("/requests/:id/respond", s.RespondToCoSupervisionRequest)
	coSupervision.Delete("/requests/:id", s.CancelCoSupervisionRequest)
}

func (s *Server) submitLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		MaxRequests: s.config.RateLimitSubmitMax,
		Window:      time.Duration(s.config.RateLimitSubmitWindowS) * time.Second,
	}
}

func (s *Server) requestLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		MaxRequests: s.config.RateLimitRequestMax,
		Window:      time.Duration(s.config.RateLimitRequestWindowS) * time.Second,
	}
}

func (s *Server) resendLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{
		MaxRequests: s.config.RateLimitResendMax,
		Window:      time.Duration(s.config.RateLimitResendWindowS) * time.Second,
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis being down degrades
// the rate limiter to fail-open, so it reports as degraded rather than
// failing readiness outright.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	} else if redisStatus != "healthy" {
		overallStatus = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	app := fiber.New(fiber.Config{
		AppName: "Capstone Matching API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			s.logger.Error("unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	s.logger.Info("server starting", "port", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			s.logger.Error("error shutting down HTTP server", "error", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			s.logger.Error("error closing sql DB", "error", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			s.logger.Error("error closing redis", "error", rerr)
		}
	}

	s.logger.Info("server shutdown complete")
	return nil
}
