package main

import (
	"context"
	"log"
	"net/http"

	"go.uber.org/zap"

	"github.com/vantagedesk/vantage-console/pkg/auth"
	"github.com/vantagedesk/vantage-console/pkg/config"
	"github.com/vantagedesk/vantage-console/pkg/database"
	"github.com/vantagedesk/vantage-console/pkg/datasource"
	"github.com/vantagedesk/vantage-console/pkg/export"
	"github.com/vantagedesk/vantage-console/pkg/handlers"
	"github.com/vantagedesk/vantage-console/pkg/logging"
	"github.com/vantagedesk/vantage-console/pkg/middleware"
	"github.com/vantagedesk/vantage-console/pkg/repositories"
	"github.com/vantagedesk/vantage-console/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("database", logging.SanitizeDSN(cfg.Database.ConnectionString())),
		zap.String("reporting_driver", cfg.Reporting.Driver))

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database.ConnectionString(), cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	executor, err := datasource.New(ctx, cfg.Reporting.Driver, cfg.Reporting.DSN)
	if err != nil {
		logger.Fatal("Failed to connect to reporting datasource",
			zap.String("driver", cfg.Reporting.Driver), zap.Error(err))
	}
	defer executor.Close()

	queryRepo := repositories.NewQueryRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	roleRepo := repositories.NewRoleRepository(db)
	userRepo := repositories.NewUserRepository(db)
	widgetRepo := repositories.NewWidgetRepository(db)
	kpiRepo := repositories.NewKPIRepository(db)

	queryService := services.NewQueryService(queryRepo, executor, logger)
	menuService := services.NewMenuService(menuRepo, logger)
	roleService := services.NewRoleService(roleRepo, queryRepo, menuRepo, userRepo, logger)
	userService := services.NewUserService(userRepo, logger)
	dashboardService := services.NewDashboardService(menuRepo, widgetRepo, logger)
	kpiService := services.NewKPIService(kpiRepo, executor, logger)
	exportService := services.NewExportService(queryRepo, executor, logger)
	exportSlots := export.NewSlots(exportService, cfg.Export.ExcelTimeout, logger)

	if err := userService.Bootstrap(ctx, cfg.Auth.BootstrapUser, cfg.Auth.BootstrapPassword); err != nil {
		logger.Fatal("Failed to bootstrap admin account", zap.Error(err))
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret)
	authMiddleware := auth.NewMiddleware(tokens, logger)

	mux := http.NewServeMux()

	health := handlers.NewHealthHandler(cfg, logger)
	health.AddCheck("database", db.Healthy)
	health.AddCheck("reporting", func(ctx context.Context) error {
		return executor.Validate(ctx, "SELECT 1")
	})
	health.RegisterRoutes(mux)
	handlers.NewQueryHandler(queryService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewMenuHandler(menuService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewRoleHandler(roleService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewUserHandler(userService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewDashboardHandler(dashboardService, queryService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewKPIHandler(kpiService, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewExportHandler(queryService, exportSlots, logger).RegisterRoutes(mux, authMiddleware)
	handlers.NewPreferencesHandler(cfg.Auth.SessionSecret, logger).RegisterRoutes(mux, authMiddleware)

	// Serve the built UI for everything that is not an API route.
	mux.Handle("/", http.FileServer(http.Dir("./ui/dist")))

	handler := middleware.RequestLogger(logger)(mux)

	addr := cfg.BindAddr + ":" + cfg.Port
	logger.Info("Starting vantage-console",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
