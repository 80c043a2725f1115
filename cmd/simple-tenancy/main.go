package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/tendant/simple-tenancy/internal/config"
	httpserver "github.com/tendant/simple-tenancy/internal/http"
	"github.com/tendant/simple-tenancy/internal/http/middleware"
	"github.com/tendant/simple-tenancy/pkg/auth"
	"github.com/tendant/simple-tenancy/pkg/metrics"
	"github.com/tendant/simple-tenancy/pkg/repository"
	"github.com/tendant/simple-tenancy/pkg/tenancy"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		return err
	}
	defer db.Close()
	logger.Info("connected to database")

	if err := repository.Migrate(ctx, db); err != nil {
		return err
	}
	if version, err := repository.MigrationVersion(ctx, db); err == nil {
		logger.Info("database migrated", "version", version)
	}

	// Initialize repositories
	tenantsRepo := repository.NewTenantsRepository(db)
	branchesRepo := repository.NewBranchesRepository(db)
	usersRepo := repository.NewUsersRepository(db)
	txRunner := repository.NewTxRunner(db)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// Initialize services
	hasher := auth.Argon2Hasher{}
	tokens := auth.NewTokenService(auth.TokenConfig{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
	})
	opts := []tenancy.Option{tenancy.WithLogger(logger), tenancy.WithMetrics(m)}

	tenantService := tenancy.NewTenantService(tenantsRepo, branchesRepo, txRunner, opts...)
	branchService := tenancy.NewBranchService(branchesRepo, tenantsRepo, usersRepo, opts...)
	userService := tenancy.NewUserService(usersRepo, tenantsRepo, branchesRepo, hasher, tokens, opts...)

	if cfg.HasBootstrap() {
		user, created, err := tenancy.Bootstrap(ctx, tenantsRepo, branchesRepo, usersRepo, txRunner, hasher, tenancy.BootstrapInput{
			TenantName: cfg.BootstrapTenant,
			Email:      cfg.BootstrapEmail,
			Password:   cfg.BootstrapPassword,
		}, opts...)
		if err != nil {
			return err
		}
		logger.Info("bootstrap superadmin ready", "user_id", user.ID, "created", created)
	}

	// Create router
	router := httpserver.NewRouter(httpserver.RouterConfig{
		Logger:   logger,
		Gate:     auth.NewGate(tokens, usersRepo, logger),
		Tenants:  tenantService,
		Branches: branchService,
		Users:    userService,
		Metrics:  m,
		Health:   db.PingContext,
		LoginRateLimit: middleware.RateLimitConfig{
			Enabled:  cfg.RateLimitEnabled,
			Requests: cfg.LoginRateLimit,
			Window:   cfg.LoginRateWindow,
			Logger:   logger,
		},
		SecurityHeaders:    middleware.APISecurityHeaders(cfg.SecurityHeadersEnabled),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		Debug:              cfg.IsDevelopment(),
	})

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		// Graceful shutdown with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
