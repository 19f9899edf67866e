package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"consignment-ledger/config"
	httpHandler "consignment-ledger/internal/adapter/http/handler"
	pgStorage "consignment-ledger/internal/adapter/storage/postgres"
	redisStorage "consignment-ledger/internal/adapter/storage/redis"
	"consignment-ledger/internal/core/ports"
	"consignment-ledger/internal/service"
	"consignment-ledger/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Int("port", cfg.Server.Port).
		Msg("Starting Consignment Ledger")

	ctx := context.Background()

	// Initialize PostgreSQL pool
	pool, err := pgStorage.NewPool(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()
	log.Info().Msg("PostgreSQL connected")

	// Initialize Redis client
	rdb, err := redisStorage.NewClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("Redis connected")

	// Initialize repositories
	sellerRepo := pgStorage.NewSellerRepo(pool)
	trailRepo := pgStorage.NewTrailRepo(pool)
	transactor := pgStorage.NewTransactor(pool)

	// Initialize core services
	hashSvc := service.NewArgon2HashService()

	tokenSecret := cfg.Auth.TokenSecret
	if tokenSecret == "" {
		// Tokens only live for the lifetime of this process, so an
		// ephemeral signing key suffices when none is configured.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatal().Err(err).Msg("Failed to generate token signing key")
		}
		tokenSecret = hex.EncodeToString(buf)
		log.Warn().Msg("auth.token_secret not set, using an ephemeral signing key")
	}
	tokenSvc := service.NewBearerTokenService(tokenSecret)

	if cfg.Auth.Password == "" && cfg.Auth.PasswordHash == "" {
		log.Warn().Msg("No panel password configured, every login will be refused")
	}
	authSvc := service.NewAuthService(cfg.Auth.Password, cfg.Auth.PasswordHash, hashSvc, tokenSvc)

	// Settlement trail worker
	trailWorker := service.NewTrailWorker(trailRepo, cfg.Trail.QueueSize, log)
	trailWorker.Start()

	// Ledger and export services
	ledgerSvc := service.NewLedgerService(sellerRepo, transactor, trailWorker, log)
	exportSvc := service.NewCSVExportService(sellerRepo)

	// Initialize rate limit store
	var rateLimitStore *redisStorage.RateLimitStore
	if cfg.RateLimit.Enabled {
		rateLimitStore = redisStorage.NewRateLimitStore(rdb)
	}

	// Initialize health checkers
	pgHealth := pgStorage.NewHealthCheck(pool)
	redisHealth := redisStorage.NewHealthCheck(rdb)

	// Load OpenAPI spec for Swagger UI
	if specBytes, err := os.ReadFile("docs/api/openapi.yaml"); err == nil {
		httpHandler.SetSwaggerSpec(specBytes)
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	// Setup Gin router with all routes
	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		AuthSvc:        authSvc,
		SellerSvc:      ledgerSvc,
		SettlementSvc:  ledgerSvc,
		ExportSvc:      exportSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		LoginLimit:     cfg.RateLimit.LoginLimit,
		LoginWindow:    cfg.RateLimit.LoginWindow,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		HealthCheckers: []ports.HealthChecker{pgHealth, redisHealth},
		Mode:           cfg.Server.Mode,
		Logger:         log,
	})

	// HTTP Server with graceful shutdown
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Drain the trail queue before the pool closes underneath it.
	if err := trailWorker.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Trail worker did not drain in time")
	}

	log.Info().Msg("Server exited")
}
