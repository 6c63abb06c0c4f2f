package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/medesk/helpdesk-api/config"
	"github.com/medesk/helpdesk-api/internal/email"
	adminHandler "github.com/medesk/helpdesk-api/internal/handler/admin"
	authHandler "github.com/medesk/helpdesk-api/internal/handler/auth"
	authzHandler "github.com/medesk/helpdesk-api/internal/handler/authz"
	categoryHandler "github.com/medesk/helpdesk-api/internal/handler/category"
	clinicHandler "github.com/medesk/helpdesk-api/internal/handler/clinic"
	departmentHandler "github.com/medesk/helpdesk-api/internal/handler/department"
	healthHandler "github.com/medesk/helpdesk-api/internal/handler/health"
	rbacHandler "github.com/medesk/helpdesk-api/internal/handler/rbac"
	tagHandler "github.com/medesk/helpdesk-api/internal/handler/tag"
	ticketHandler "github.com/medesk/helpdesk-api/internal/handler/ticket"
	userHandler "github.com/medesk/helpdesk-api/internal/handler/user"
	"github.com/medesk/helpdesk-api/internal/middleware"
	"github.com/medesk/helpdesk-api/internal/repository/postgres"
	"github.com/medesk/helpdesk-api/internal/router"
	auditService "github.com/medesk/helpdesk-api/internal/service/audit"
	authService "github.com/medesk/helpdesk-api/internal/service/auth"
	authzService "github.com/medesk/helpdesk-api/internal/service/authz"
	categoryService "github.com/medesk/helpdesk-api/internal/service/category"
	clinicService "github.com/medesk/helpdesk-api/internal/service/clinic"
	departmentService "github.com/medesk/helpdesk-api/internal/service/department"
	rbacService "github.com/medesk/helpdesk-api/internal/service/rbac"
	seedService "github.com/medesk/helpdesk-api/internal/service/seed"
	tagService "github.com/medesk/helpdesk-api/internal/service/tag"
	ticketService "github.com/medesk/helpdesk-api/internal/service/ticket"
	userService "github.com/medesk/helpdesk-api/internal/service/user"
	"github.com/medesk/helpdesk-api/pkg/auth"
	"github.com/medesk/helpdesk-api/pkg/logger"
	messagingredis "github.com/medesk/helpdesk-api/pkg/messaging/redis"
	"github.com/medesk/helpdesk-api/pkg/metrics"
	"github.com/medesk/helpdesk-api/pkg/security"
	"github.com/medesk/helpdesk-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	clinicRepo := postgres.NewClinicRepository(db)
	rbacRepo := postgres.NewRBACRepository(db)
	departmentRepo := postgres.NewDepartmentRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	tagRepo := postgres.NewTagRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	truncateRepo := postgres.NewTruncateRepository(db)

	// Mail transport is optional; without SMTP the services log instead of send.
	var mailer email.Service
	if cfg.SMTP.Enabled {
		mailer = email.NewSMTPService(email.Config{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		}, &log.Logger)
	} else {
		mailer = email.NewNoopService(&log.Logger)
	}

	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)
	tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.RefreshSecret, cfg.JWT.ExpiryHours, cfg.JWT.RefreshExpiryHours)

	// Services
	auditSvc := auditService.NewService(auditRepo)
	authzSvc := authzService.NewService(userRepo, rbacRepo)
	rbacSvc := rbacService.NewService(rbacRepo, userRepo, auditSvc, authzSvc.Invalidate)
	userSvc := userService.NewService(userRepo, clinicRepo, rbacRepo, outboxRepo, auditSvc, mailer)
	clinicSvc := clinicService.NewService(clinicRepo, userRepo, ticketRepo, auditSvc)
	departmentSvc := departmentService.NewService(departmentRepo, clinicRepo, userRepo, categoryRepo, ticketRepo, auditSvc)
	categorySvc := categoryService.NewService(categoryRepo, clinicRepo, departmentRepo, ticketRepo, outboxRepo, auditSvc, mailer)
	tagSvc := tagService.NewService(tagRepo, categoryRepo, clinicRepo, ticketRepo, auditSvc)
	ticketSvc := ticketService.NewService(ticketRepo, categoryRepo, clinicRepo, userRepo, tagRepo, outboxRepo, auditSvc)
	authSvc := authService.NewService(userRepo, userSvc, tokens, hasher)
	seedSvc := seedService.NewService(rbacSvc, rbacRepo, clinicRepo, departmentRepo, categorySvc, userRepo, truncateRepo, hasher, &log.Logger)

	authMiddleware := middleware.NewAuthMiddleware(tokens, authzSvc)

	handlers := router.Handlers{
		Health:     healthHandler.NewHandler(db),
		Auth:       authHandler.NewHandler(authSvc),
		Admin:      adminHandler.NewHandler(seedSvc, cfg.Seed.AllowReset),
		Authz:      authzHandler.NewHandler(authzSvc),
		RBAC:       rbacHandler.NewHandler(rbacSvc),
		Category:   categoryHandler.NewHandler(categorySvc),
		User:       userHandler.NewHandler(userSvc),
		Clinic:     clinicHandler.NewHandler(clinicSvc),
		Department: departmentHandler.NewHandler(departmentSvc),
		Tag:        tagHandler.NewHandler(tagSvc),
		Ticket:     ticketHandler.NewHandler(ticketSvc),
	}

	r := router.NewRouter(authMiddleware, handlers, router.Config{
		RateLimitEnabled: cfg.RateLimit.Enabled,
		RateLimit:        rate.Limit(cfg.RateLimit.RequestsPerSecond),
		RateBurst:        cfg.RateLimit.Burst,
		CORSConfig:       corsConfig(cfg.Security),
		MetricsPrefix:    "helpdesk_api",
		MetricsEnabled:   cfg.Monitoring.PrometheusEnabled,
		MetricsPath:      cfg.Monitoring.MetricsPath,
	})
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	broker, err := messagingredis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	appMetrics := metrics.NewMetrics("helpdesk", "outbox")
	outboxProcessor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		cfg.Outbox.ToWorkerConfig(),
		logger.NewLogger(nil),
		appMetrics,
	)
	go outboxProcessor.Start(workerCtx)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func corsConfig(sec config.SecurityConfig) middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(sec.AllowedOrigins) > 0 {
		cors.AllowOrigins = sec.AllowedOrigins
	}
	if len(sec.AllowedMethods) > 0 {
		cors.AllowMethods = sec.AllowedMethods
	}
	if len(sec.AllowedHeaders) > 0 {
		cors.AllowHeaders = sec.AllowedHeaders
	}
	return cors
}
