package main

import (
	"context"
	"flag"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medesk/helpdesk-api/config"
	"github.com/medesk/helpdesk-api/internal/email"
	"github.com/medesk/helpdesk-api/internal/repository/postgres"
	auditService "github.com/medesk/helpdesk-api/internal/service/audit"
	categoryService "github.com/medesk/helpdesk-api/internal/service/category"
	rbacService "github.com/medesk/helpdesk-api/internal/service/rbac"
	seedService "github.com/medesk/helpdesk-api/internal/service/seed"
	"github.com/medesk/helpdesk-api/pkg/security"
)

// Seed CLI: initializes a fresh database with the permission catalog, system
// roles and demo data, or wipes everything for a clean re-run.
func main() {
	reset := flag.Bool("reset", false, "wipe all data before exiting (requires seed.allow_reset)")
	initialize := flag.Bool("init", true, "seed the database")
	adminPassword := flag.String("admin-password", "", "password for the demo admin (overrides config)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	userRepo := postgres.NewUserRepository(db)
	clinicRepo := postgres.NewClinicRepository(db)
	rbacRepo := postgres.NewRBACRepository(db)
	departmentRepo := postgres.NewDepartmentRepository(db)
	categoryRepo := postgres.NewCategoryRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	auditRepo := postgres.NewAuditRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)
	truncateRepo := postgres.NewTruncateRepository(db)

	auditSvc := auditService.NewService(auditRepo)
	mailer := email.NewNoopService(&log.Logger)
	rbacSvc := rbacService.NewService(rbacRepo, userRepo, auditSvc, nil)
	categorySvc := categoryService.NewService(categoryRepo, clinicRepo, departmentRepo, ticketRepo, outboxRepo, auditSvc, mailer)
	hasher := security.NewBcryptHasher(cfg.Security.BcryptCost)

	seedSvc := seedService.NewService(rbacSvc, rbacRepo, clinicRepo, departmentRepo, categorySvc, userRepo, truncateRepo, hasher, &log.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *reset {
		if !cfg.Seed.AllowReset {
			log.Fatal().Msg("reset is disabled; set seed.allow_reset to enable it")
		}
		if err := seedSvc.ResetDatabase(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to reset database")
		}
		log.Info().Msg("database reset")
	}

	if *initialize {
		password := *adminPassword
		if password == "" {
			password = cfg.Seed.AdminPassword
		}
		if password == "" {
			log.Fatal().Msg("admin password is required; pass -admin-password or set seed.admin_password")
		}

		summary, err := seedSvc.InitializeDatabase(ctx, password)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize database")
		}
		log.Info().
			Int("permissions", summary.Permissions).
			Int("roles", summary.Roles).
			Str("clinic_id", summary.ClinicID.String()).
			Int("departments", summary.Departments).
			Int("categories", summary.Categories).
			Str("admin_user_id", summary.AdminUserID.String()).
			Msg("database initialized")
	}
}
