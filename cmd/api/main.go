package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/BradenHooton/tradepost/internal/auth"
	"github.com/BradenHooton/tradepost/internal/background"
	"github.com/BradenHooton/tradepost/internal/config"
	"github.com/BradenHooton/tradepost/internal/database"
	"github.com/BradenHooton/tradepost/internal/handlers"
	middlewareCustom "github.com/BradenHooton/tradepost/internal/middleware"
	"github.com/BradenHooton/tradepost/internal/repositories"
	"github.com/BradenHooton/tradepost/internal/routes"
	"github.com/BradenHooton/tradepost/internal/services"
	"github.com/BradenHooton/tradepost/internal/throttle"
	pkghttp "github.com/BradenHooton/tradepost/pkg/http"
	pkglogger "github.com/BradenHooton/tradepost/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("throttle_backend", cfg.Throttle.Backend),
		slog.String("listing_backend", cfg.Storage.ListingBackend),
	)

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Database.RunMigrations {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db.Pool, logger)
		cancel()
		if err != nil {
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
	}

	healthChecks := map[string]handlers.HealthCheck{"postgres": db.HealthCheck}

	// Login throttle backend
	throttleConfig := throttle.Config{
		Threshold:   cfg.Throttle.MaxAttempts,
		BanDuration: cfg.Throttle.BanDuration,
		IdleTTL:     cfg.Throttle.IdleTTL,
	}
	if err := throttleConfig.Validate(); err != nil {
		logger.Error("invalid login throttle config", slog.Any("error", err))
		os.Exit(1)
	}

	var (
		loginThrottle throttle.Throttle
		sweeper       background.ThrottleSweeper
	)
	switch cfg.Throttle.Backend {
	case config.ThrottleBackendRedis:
		redisClient, err := database.NewRedisClient(&cfg.Redis, logger)
		if err != nil {
			logger.Error("failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		defer redisClient.Close()

		loginThrottle = throttle.NewRedis(redisClient, throttleConfig)
		healthChecks["redis"] = redisHealthCheck(redisClient)
	default:
		mem := throttle.NewMemory(throttleConfig)
		loginThrottle = mem
		sweeper = mem
	}

	// Listing storage backend
	var listingRepo repositories.ListingRepository
	switch cfg.Storage.ListingBackend {
	case config.ListingBackendMongo:
		mongoDB, err := database.NewMongoConnection(&cfg.Mongo, logger)
		if err != nil {
			logger.Error("failed to connect to mongodb", slog.Any("error", err))
			os.Exit(1)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongoDB.Close(ctx)
		}()

		mongoRepo := repositories.NewMongoListingRepository(mongoDB)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err = mongoRepo.EnsureIndexes(ctx)
		cancel()
		if err != nil {
			logger.Error("failed to create listing indexes", slog.Any("error", err))
			os.Exit(1)
		}

		listingRepo = mongoRepo
		healthChecks["mongo"] = mongoDB.HealthCheck
	default:
		listingRepo = repositories.NewPostgresListingRepository(db)
	}

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	revokeRepo := repositories.NewTokenRevocationRepository(db)

	// Initialize cleanup manager
	cleanupManager := background.NewCleanupManager(revokeRepo, sweeper, logger, cfg.Auth.CleanupInterval)

	// Initialize auth components
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelay:   cfg.Auth.FailureDelay,
		RandomDelay: cfg.Auth.FailureDelayJitter,
	})
	googleVerifier := auth.NewGoogleVerifier(cfg.Auth.GoogleClientID)
	if !googleVerifier.Enabled() {
		logger.Info("GOOGLE_CLIENT_ID not set, Google sign-in disabled")
	}

	auditLogger := pkglogger.NewAuditLogger(logger)
	cookieConfig := auth.CookieConfig{
		Secure:   cfg.Auth.CookieSecure,
		SameSite: cfg.Auth.CookieSameSite,
	}
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)

	// Initialize services
	loginGuard := services.NewLoginThrottleService(loginThrottle, logger, auditLogger)
	authService := services.NewAuthService(
		userRepo,
		tokenManager,
		revokeRepo,
		loginGuard,
		timingDelay,
		googleVerifier,
		services.SessionSettings{
			SessionTTL:       cfg.Auth.SessionTTL,
			GoogleSessionTTL: cfg.Auth.GoogleSessionTTL,
		},
		logger,
		auditLogger,
	)
	userService := services.NewUserService(
		userRepo,
		listingRepo,
		revokeRepo,
		max(cfg.Auth.SessionTTL, cfg.Auth.GoogleSessionTTL),
		logger,
		auditLogger,
	)
	listingService := services.NewListingService(listingRepo, logger)

	// Access log
	var accessLog io.Writer
	if cfg.Server.AccessLogPath != "" {
		f, err := os.OpenFile(cfg.Server.AccessLogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
		if err != nil {
			logger.Error("failed to open access log", slog.String("path", cfg.Server.AccessLogPath), slog.Any("error", err))
			os.Exit(1)
		}
		defer f.Close()
		accessLog = f
	}

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.AccessLog(accessLog))
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ipConfig))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	revocationConfig := auth.RevocationConfig{FailClosed: cfg.Auth.RevocationFailClosed}

	routes.RegisterRoutes(router, routes.Handlers{
		Auth:    handlers.NewAuthHandler(authService, ipConfig, cookieConfig),
		User:    handlers.NewUserHandler(userService, cookieConfig),
		Listing: handlers.NewListingHandler(listingService),
	}, routes.Sessions{
		Require:  auth.SessionMiddleware(tokenManager, revokeRepo, revocationConfig, logger),
		Optional: auth.OptionalSession(tokenManager, revokeRepo, revocationConfig, logger),
	})

	router.Method(http.MethodGet, "/health", handlers.NewHealthHandler(healthChecks))

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", slog.Any("error", err))
	}

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

func redisHealthCheck(client *redis.Client) handlers.HealthCheck {
	return func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
