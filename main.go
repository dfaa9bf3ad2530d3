package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/inkwell-ai/inkwell-engine/pkg/audit"
	"github.com/inkwell-ai/inkwell-engine/pkg/auth"
	"github.com/inkwell-ai/inkwell-engine/pkg/config"
	"github.com/inkwell-ai/inkwell-engine/pkg/database"
	"github.com/inkwell-ai/inkwell-engine/pkg/handlers"
	"github.com/inkwell-ai/inkwell-engine/pkg/language"
	"github.com/inkwell-ai/inkwell-engine/pkg/llm"
	"github.com/inkwell-ai/inkwell-engine/pkg/middleware"
	"github.com/inkwell-ai/inkwell-engine/pkg/repositories"
	"github.com/inkwell-ai/inkwell-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Env == "local" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("model", cfg.Model.Name),
		zap.String("database", cfg.Database.Database),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification))

	ctx := context.Background()

	// Migrations run over database/sql; the service itself uses pgxpool.
	sqlDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	_ = sqlDB.Close()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	jwksClient, err := auth.NewJWKSClient(&auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		logger.Fatal("Failed to create JWKS client", zap.Error(err))
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	authMW := auth.NewMiddleware(authService, logger)

	modelClient, err := llm.NewClient(&llm.Config{
		Endpoint:    cfg.Model.Endpoint,
		Model:       cfg.Model.Name,
		APIKey:      cfg.Model.APIKey,
		Timeout:     cfg.Model.Timeout(),
		Temperature: cfg.Model.Temperature,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create model client", zap.Error(err))
	}

	entryRepo := repositories.NewEntryRepository(db)
	patternRepo := repositories.NewPatternRepository(db)
	creditRepo := repositories.NewCreditRepository(db)
	usageRepo := repositories.NewUsageLogRepository(db)

	auditor := audit.NewUsageAuditor(usageRepo, logger)
	settlement := services.NewSettlementService(creditRepo, auditor, logger)

	patternService := services.NewPatternService(
		entryRepo,
		patternRepo,
		creditRepo,
		services.NewEligibilityGate(cfg.Billing),
		services.NewCostEstimator(cfg.Billing),
		services.NewCacheResolver(cfg.Cache),
		services.NewResponseValidator(),
		settlement,
		language.NewRegexDetector(),
		modelClient,
		cfg.Billing.RecentEntryCap,
		cfg.Cache.CurrentSchemaVersion,
		logger,
	)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewPatternHandler(patternService, patternRepo, creditRepo, usageRepo, authMW, logger).RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting inkwell-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
